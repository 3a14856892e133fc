// Package supabase — gateway contracts.
//
// Each interface below is a narrow repository over one backend aggregate.
// Inputs are plain scalars and DTOs, never query objects; outputs are domain
// types. Implementations must honor the provided context for cancellation.
// The method contracts (inputs/outputs) are the only thing this codebase
// depends on; the backend's internal algorithms stay external.
package supabase

import (
	"context"

	"github.com/sellexa/go-marketplace-backend/internal/domain"
	"github.com/sellexa/go-marketplace-backend/internal/realtime"
)

// Conversations exposes the thread/conversation aggregate.
type Conversations interface {
	// List returns the denormalized conversation projections for a user,
	// via the get_user_conversations RPC.
	List(ctx context.Context, userID string) ([]domain.Conversation, error)
	// Get returns one conversation projection for a thread as seen by userID.
	Get(ctx context.Context, threadID, userID string) (*domain.Conversation, error)
	// CreateThread opens a buyer–seller channel for a product.
	CreateThread(ctx context.Context, productID, buyerID, sellerID string) (*domain.Thread, error)
	// SetArchived flips the per-user archived flag on a thread.
	SetArchived(ctx context.Context, threadID, userID string, archived bool) error
	// SetMuted flips the per-user muted flag on a thread.
	SetMuted(ctx context.Context, threadID, userID string, muted bool) error
}

// Messages exposes the message aggregate within a thread.
type Messages interface {
	// List returns a thread's messages oldest-first with sender profiles embedded.
	List(ctx context.Context, threadID string) ([]domain.Message, error)
	// Get fetches one message by id with its sender profile embedded.
	Get(ctx context.Context, messageID string) (*domain.Message, error)
	// Send appends a message and returns the backend-assigned row.
	Send(ctx context.Context, threadID, senderID, body string) (*domain.Message, error)
	// MarkRead marks every message in the thread addressed to userID as read,
	// via the mark_messages_as_read RPC.
	MarkRead(ctx context.Context, threadID, userID string) error
}

// Typing exposes the ephemeral typing-indicator RPCs.
type Typing interface {
	// Indicators returns who is currently typing in a thread, excluding userID.
	Indicators(ctx context.Context, threadID, userID string) ([]domain.TypingIndicator, error)
	// Set records or clears userID's typing state in a thread.
	Set(ctx context.Context, threadID, userID string, typing bool) error
}

// Reactions exposes emoji reactions on messages.
type Reactions interface {
	List(ctx context.Context, messageID string) ([]domain.MessageReaction, error)
	Add(ctx context.Context, messageID, userID, emoji string) (*domain.MessageReaction, error)
	Remove(ctx context.Context, messageID, userID, emoji string) error
}

// Products exposes read access to the product catalogue.
type Products interface {
	// Feed returns the newest active products, capped at limit.
	Feed(ctx context.Context, limit int) ([]domain.Product, error)
	Get(ctx context.Context, productID string) (*domain.Product, error)
}

// ProfilePatch carries the updatable profile fields. Nil means "leave as is".
type ProfilePatch struct {
	DisplayName *string `json:"display_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	Location    *string `json:"location,omitempty"`
}

// Profiles exposes the profile aggregate.
type Profiles interface {
	Get(ctx context.Context, profileID string) (*domain.Profile, error)
	Update(ctx context.Context, profileID string, patch ProfilePatch) (*domain.Profile, error)
}

// Saves exposes the saves join table and its aggregate RPCs.
type Saves interface {
	// Count returns the total saves for a product (get_product_save_count).
	Count(ctx context.Context, productID string) (int, error)
	// IsSaved reports whether userID saved the product (is_product_saved_by_user).
	IsSaved(ctx context.Context, productID, userID string) (bool, error)
	Insert(ctx context.Context, productID, userID string) error
	Delete(ctx context.Context, productID, userID string) error
}

// Notifications exposes per-user notifications.
type Notifications interface {
	List(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// Auth exposes session retrieval, sign-out, and the auth event stream.
type Auth interface {
	// Session returns the current user, or nil when no session exists.
	Session(ctx context.Context) (*domain.User, error)
	SignOut(ctx context.Context) error
	// Events is the stream of auth state changes (SIGNED_IN, TOKEN_REFRESHED,
	// INITIAL_SESSION, SIGNED_OUT). The channel stays open for the lifetime
	// of the gateway.
	Events() <-chan domain.AuthEvent
}

// Realtime exposes per-table change-feed subscriptions filtered by a column
// predicate (e.g. "thread_id=eq.<id>"). The returned function unsubscribes.
type Realtime interface {
	Subscribe(table, filter string, h realtime.Handler) func()
}
