// Marketplace HTTP handlers.
//
// This file declares the service contracts the handlers depend on and the
// shared wiring/helpers. Handlers are transport-thin: they validate input,
// call the session stores behind the service interfaces, and translate the
// outcome into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sellexa/go-marketplace-backend/internal/domain"
	"github.com/sellexa/go-marketplace-backend/internal/supabase"
	"github.com/sellexa/go-marketplace-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// FeedService exposes the public product feed consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type FeedService interface {
	// FetchFeed refreshes the feed when its TTL has lapsed.
	FetchFeed(ctx context.Context) error
	// Feed returns the cached feed, newest first.
	Feed() []domain.Product
	// Product resolves one listing, falling back to the backend on a miss.
	Product(ctx context.Context, id string) (*domain.Product, bool)
	// Search ranks cached listings against a free-text query.
	Search(query string, limit int) []domain.Product
	// Err reports the last feed fetch failure, if any.
	Err() string
}

// SavesService exposes per-listing save state and the save/unsave toggle.
type SavesService interface {
	// FetchSaveData loads the save count and saved flag for a listing.
	FetchSaveData(ctx context.Context, productID string) error
	// ToggleSave optimistically flips the saved flag; false means rejected.
	ToggleSave(ctx context.Context, productID string) bool
	// SaveData returns the cached save state for a listing.
	SaveData(productID string) domain.SaveData
	// Err reports the last save failure for a listing, if any.
	Err(productID string) string
}

// ProfileService exposes the current user's marketplace profile.
type ProfileService interface {
	// Fetch refreshes the profile when stale.
	Fetch(ctx context.Context) error
	// Update optimistically applies a patch; false means rolled back.
	Update(ctx context.Context, patch supabase.ProfilePatch) bool
	// Profile returns the cached profile, or nil when none is loaded.
	Profile() *domain.Profile
	// CanCreateListings reports whether the user may publish listings.
	CanCreateListings() bool
	// Err reports the last profile failure, if any.
	Err() string
}

// NotificationService exposes the notification inbox.
type NotificationService interface {
	// Fetch refreshes the inbox when stale.
	Fetch(ctx context.Context) error
	// Notifications returns the cached inbox, newest first.
	Notifications() []domain.Notification
	// UnreadCount counts unread rows.
	UnreadCount() int
	// MarkRead optimistically marks one row read; false means rolled back.
	MarkRead(ctx context.Context, id string) bool
	// MarkAllRead optimistically clears the whole inbox; false on rollback.
	MarkAllRead(ctx context.Context) bool
	// Err reports the last inbox failure, if any.
	Err() string
}

// ChatService exposes conversations, messages, typing, and reactions.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ChatService interface {
	// LoadConversations refreshes the conversation list when stale.
	LoadConversations(ctx context.Context) error
	// Conversations returns the cached list, most recent first.
	Conversations() []domain.Conversation
	// Conversation resolves one cached conversation by thread id.
	Conversation(threadID string) (domain.Conversation, bool)
	// LoadMessages loads a thread's messages once per TTL window.
	LoadMessages(ctx context.Context, threadID string) error
	// Messages returns the cached messages for a thread, oldest first.
	Messages(threadID string) []domain.Message
	// SendMessage persists a message and appends the confirmed row.
	SendMessage(ctx context.Context, threadID, body string) (*domain.Message, error)
	// MarkAsRead zeroes a thread's unread count; false means rolled back.
	MarkAsRead(ctx context.Context, threadID string) bool
	// StartThread opens (or reuses) a buyer/seller thread for a listing.
	StartThread(ctx context.Context, productID, sellerID string) (*domain.Thread, error)
	// ToggleArchive flips the archived flag; false means rolled back.
	ToggleArchive(ctx context.Context, threadID string) bool
	// ToggleMute flips the muted flag; false means rolled back.
	ToggleMute(ctx context.Context, threadID string) bool
	// FetchTyping refreshes the ephemeral typing indicators for a thread.
	FetchTyping(ctx context.Context, threadID string)
	// Typing returns who is currently typing in a thread.
	Typing(threadID string) []domain.TypingIndicator
	// SetTyping records or clears the caller's typing state.
	SetTyping(ctx context.Context, threadID string, typing bool)
	// Reactions lists the emoji reactions on a message.
	Reactions(ctx context.Context, messageID string) ([]domain.MessageReaction, error)
	// AddReaction attaches an emoji reaction to a message.
	AddReaction(ctx context.Context, messageID, emoji string) (*domain.MessageReaction, error)
	// RemoveReaction detaches one of the caller's reactions.
	RemoveReaction(ctx context.Context, messageID, emoji string) error
	// SearchConversations ranks conversations against a free-text query.
	SearchConversations(query string, limit int) []domain.Conversation
	// UnreadTotal sums unread counts across unmuted conversations.
	UnreadTotal() int
}

// AccountService exposes the authenticated session.
type AccountService interface {
	// FetchCurrentUser refreshes the session user from the auth backend.
	FetchCurrentUser(ctx context.Context) error
	// User returns the session user, or nil when signed out.
	User() *domain.User
	// SignOut ends the session; local state is cleared even on failure.
	SignOut(ctx context.Context) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for the marketplace session. It depends
// on abstract service interfaces to keep transport concerns separate from the
// store layer. DB is optional and only used for best-effort ETag pre-checks
// against the local snapshot tables.
type Handlers struct {
	feed    FeedService
	saves   SavesService
	profile ProfileService
	notifs  NotificationService
	chat    ChatService
	account AccountService

	DB *gorm.DB
}

// New constructs a Handlers instance bound to the given services.
func New(feed FeedService, saves SavesService, profile ProfileService, notifs NotificationService, chat ChatService, account AccountService) *Handlers {
	return &Handlers{feed: feed, saves: saves, profile: profile, notifs: notifs, chat: chat, account: account}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// Shared DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// paginate windows a full in-memory slice into one page and builds the
// matching Pagination block.
func paginate[T any](items []T, page, pageSize int) ([]T, Pagination) {
	total := int64(len(items))
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	start := (page - 1) * pageSize
	if start > len(items) {
		start = len(items)
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}

	return items[start:end], Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}
