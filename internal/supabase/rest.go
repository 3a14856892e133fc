// Package supabase — REST/RPC gateway implementations.
//
// Each aggregate gateway is implemented by its own small struct over the
// shared Client. Selects go through /rest/v1/<table> with filter and embed
// query parameters; aggregates and cross-row operations go through their
// dedicated RPCs. All methods are thin: query composition and decoding only,
// no business rules.
package supabase

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sellexa/go-marketplace-backend/internal/domain"
)

// Interface guards.
var (
	_ Conversations = (*ConversationsREST)(nil)
	_ Messages      = (*MessagesREST)(nil)
	_ Typing        = (*TypingREST)(nil)
	_ Reactions     = (*ReactionsREST)(nil)
	_ Products      = (*ProductsREST)(nil)
	_ Profiles      = (*ProfilesREST)(nil)
	_ Saves         = (*SavesREST)(nil)
	_ Notifications = (*NotificationsREST)(nil)
)

// firstOrErr returns the first element of an insert/update representation,
// or a normalized error when the backend returned no rows.
func firstOrErr[T any](rows []T, missingStatus int, missingMsg string) (*T, error) {
	if len(rows) == 0 {
		return nil, &Error{Status: missingStatus, Message: missingMsg}
	}
	return &rows[0], nil
}

//
// Conversations
//

// ConversationsREST implements the Conversations gateway.
type ConversationsREST struct{ c *Client }

// NewConversations returns the REST-backed Conversations gateway.
func NewConversations(c *Client) *ConversationsREST { return &ConversationsREST{c: c} }

// List calls the get_user_conversations RPC.
func (g *ConversationsREST) List(ctx context.Context, userID string) ([]domain.Conversation, error) {
	var out []domain.Conversation
	err := g.c.rpc(ctx, "get_user_conversations", map[string]string{"user_uuid": userID}, &out)
	return out, err
}

// Get returns one conversation projection. The RPC has no single-thread
// variant, so the user's list is filtered client-side.
func (g *ConversationsREST) Get(ctx context.Context, threadID, userID string) (*domain.Conversation, error) {
	all, err := g.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ThreadID == threadID {
			return &all[i], nil
		}
	}
	return nil, &Error{Status: http.StatusNotFound, Message: "conversation not found"}
}

// CreateThread inserts a threads row and returns the created channel.
func (g *ConversationsREST) CreateThread(ctx context.Context, productID, buyerID, sellerID string) (*domain.Thread, error) {
	body := map[string]string{
		"product_id": productID,
		"buyer_id":   buyerID,
		"seller_id":  sellerID,
	}
	var out []domain.Thread
	if err := g.c.send(ctx, http.MethodPost, "/rest/v1/threads", nil, body, &out); err != nil {
		return nil, err
	}
	return firstOrErr(out, http.StatusInternalServerError, "empty insert response")
}

// SetArchived upserts the per-user conversation_metadata archived flag.
func (g *ConversationsREST) SetArchived(ctx context.Context, threadID, userID string, archived bool) error {
	return g.upsertMetadata(ctx, threadID, userID, map[string]any{"is_archived": archived})
}

// SetMuted upserts the per-user conversation_metadata muted flag.
func (g *ConversationsREST) SetMuted(ctx context.Context, threadID, userID string, muted bool) error {
	return g.upsertMetadata(ctx, threadID, userID, map[string]any{"is_muted": muted})
}

func (g *ConversationsREST) upsertMetadata(ctx context.Context, threadID, userID string, fields map[string]any) error {
	body := map[string]any{
		"thread_id": threadID,
		"user_id":   userID,
	}
	for k, v := range fields {
		body[k] = v
	}
	q := url.Values{}
	q.Set("on_conflict", "thread_id,user_id")
	return g.c.send(ctx, http.MethodPost, "/rest/v1/conversation_metadata", q, body, nil)
}

//
// Messages
//

// MessagesREST implements the Messages gateway.
type MessagesREST struct{ c *Client }

// NewMessages returns the REST-backed Messages gateway.
func NewMessages(c *Client) *MessagesREST { return &MessagesREST{c: c} }

// List returns a thread's messages oldest-first with sender profiles embedded.
func (g *MessagesREST) List(ctx context.Context, threadID string) ([]domain.Message, error) {
	q := url.Values{}
	q.Set("select", "*,sender:profiles(*)")
	q.Set("thread_id", "eq."+threadID)
	q.Set("order", "created_at.asc")
	var out []domain.Message
	err := g.c.get(ctx, "/rest/v1/messages", q, &out)
	return out, err
}

// Get fetches one message by id with its sender profile embedded. Used by the
// realtime enrich-then-append stage.
func (g *MessagesREST) Get(ctx context.Context, messageID string) (*domain.Message, error) {
	q := url.Values{}
	q.Set("select", "*,sender:profiles(*)")
	q.Set("id", "eq."+messageID)
	q.Set("limit", "1")
	var out []domain.Message
	if err := g.c.get(ctx, "/rest/v1/messages", q, &out); err != nil {
		return nil, err
	}
	return firstOrErr(out, http.StatusNotFound, "message not found")
}

// Send inserts a messages row and returns the backend-assigned record.
func (g *MessagesREST) Send(ctx context.Context, threadID, senderID, body string) (*domain.Message, error) {
	payload := map[string]string{
		"thread_id": threadID,
		"sender_id": senderID,
		"body":      body,
	}
	var out []domain.Message
	if err := g.c.send(ctx, http.MethodPost, "/rest/v1/messages", nil, payload, &out); err != nil {
		return nil, err
	}
	return firstOrErr(out, http.StatusInternalServerError, "empty insert response")
}

// MarkRead calls the mark_messages_as_read RPC.
func (g *MessagesREST) MarkRead(ctx context.Context, threadID, userID string) error {
	args := map[string]string{"thread_uuid": threadID, "user_uuid": userID}
	return g.c.rpc(ctx, "mark_messages_as_read", args, nil)
}

//
// Typing
//

// TypingREST implements the Typing gateway.
type TypingREST struct{ c *Client }

// NewTyping returns the REST-backed Typing gateway.
func NewTyping(c *Client) *TypingREST { return &TypingREST{c: c} }

// Indicators calls the get_typing_indicators RPC.
func (g *TypingREST) Indicators(ctx context.Context, threadID, userID string) ([]domain.TypingIndicator, error) {
	args := map[string]string{"thread_uuid": threadID, "user_uuid": userID}
	var out []domain.TypingIndicator
	err := g.c.rpc(ctx, "get_typing_indicators", args, &out)
	return out, err
}

// Set calls the set_typing_indicator RPC.
func (g *TypingREST) Set(ctx context.Context, threadID, userID string, typing bool) error {
	args := map[string]any{"thread_uuid": threadID, "user_uuid": userID, "typing": typing}
	return g.c.rpc(ctx, "set_typing_indicator", args, nil)
}

//
// Reactions
//

// ReactionsREST implements the Reactions gateway.
type ReactionsREST struct{ c *Client }

// NewReactions returns the REST-backed Reactions gateway.
func NewReactions(c *Client) *ReactionsREST { return &ReactionsREST{c: c} }

// List calls the get_message_reactions RPC.
func (g *ReactionsREST) List(ctx context.Context, messageID string) ([]domain.MessageReaction, error) {
	var out []domain.MessageReaction
	err := g.c.rpc(ctx, "get_message_reactions", map[string]string{"message_uuid": messageID}, &out)
	return out, err
}

// Add inserts a message_reactions row.
func (g *ReactionsREST) Add(ctx context.Context, messageID, userID, emoji string) (*domain.MessageReaction, error) {
	body := map[string]string{"message_id": messageID, "user_id": userID, "emoji": emoji}
	var out []domain.MessageReaction
	if err := g.c.send(ctx, http.MethodPost, "/rest/v1/message_reactions", nil, body, &out); err != nil {
		return nil, err
	}
	return firstOrErr(out, http.StatusInternalServerError, "empty insert response")
}

// Remove deletes a message_reactions row by its composite predicate.
func (g *ReactionsREST) Remove(ctx context.Context, messageID, userID, emoji string) error {
	q := url.Values{}
	q.Set("message_id", "eq."+messageID)
	q.Set("user_id", "eq."+userID)
	q.Set("emoji", "eq."+emoji)
	return g.c.send(ctx, http.MethodDelete, "/rest/v1/message_reactions", q, nil, nil)
}

//
// Products
//

// ProductsREST implements the Products gateway.
type ProductsREST struct{ c *Client }

// NewProducts returns the REST-backed Products gateway.
func NewProducts(c *Client) *ProductsREST { return &ProductsREST{c: c} }

// Feed returns the newest active products capped at limit.
func (g *ProductsREST) Feed(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	q := url.Values{}
	q.Set("status", "eq.active")
	q.Set("order", "created_at.desc")
	q.Set("limit", strconv.Itoa(limit))
	var out []domain.Product
	err := g.c.get(ctx, "/rest/v1/products", q, &out)
	return out, err
}

// Get fetches one product by id.
func (g *ProductsREST) Get(ctx context.Context, productID string) (*domain.Product, error) {
	q := url.Values{}
	q.Set("id", "eq."+productID)
	q.Set("limit", "1")
	var out []domain.Product
	if err := g.c.get(ctx, "/rest/v1/products", q, &out); err != nil {
		return nil, err
	}
	return firstOrErr(out, http.StatusNotFound, "product not found")
}

//
// Profiles
//

// ProfilesREST implements the Profiles gateway.
type ProfilesREST struct{ c *Client }

// NewProfiles returns the REST-backed Profiles gateway.
func NewProfiles(c *Client) *ProfilesREST { return &ProfilesREST{c: c} }

// Get fetches one profile by id.
func (g *ProfilesREST) Get(ctx context.Context, profileID string) (*domain.Profile, error) {
	q := url.Values{}
	q.Set("id", "eq."+profileID)
	q.Set("limit", "1")
	var out []domain.Profile
	if err := g.c.get(ctx, "/rest/v1/profiles", q, &out); err != nil {
		return nil, err
	}
	return firstOrErr(out, http.StatusNotFound, "profile not found")
}

// Update patches a profile row and returns the updated record.
func (g *ProfilesREST) Update(ctx context.Context, profileID string, patch ProfilePatch) (*domain.Profile, error) {
	q := url.Values{}
	q.Set("id", "eq."+profileID)
	var out []domain.Profile
	if err := g.c.send(ctx, http.MethodPatch, "/rest/v1/profiles", q, patch, &out); err != nil {
		return nil, err
	}
	return firstOrErr(out, http.StatusNotFound, "profile not found")
}

//
// Saves
//

// SavesREST implements the Saves gateway.
type SavesREST struct{ c *Client }

// NewSaves returns the REST-backed Saves gateway.
func NewSaves(c *Client) *SavesREST { return &SavesREST{c: c} }

// Count calls the get_product_save_count RPC.
func (g *SavesREST) Count(ctx context.Context, productID string) (int, error) {
	var out int
	err := g.c.rpc(ctx, "get_product_save_count", map[string]string{"product_uuid": productID}, &out)
	return out, err
}

// IsSaved calls the is_product_saved_by_user RPC.
func (g *SavesREST) IsSaved(ctx context.Context, productID, userID string) (bool, error) {
	var out bool
	args := map[string]string{"product_uuid": productID, "user_uuid": userID}
	err := g.c.rpc(ctx, "is_product_saved_by_user", args, &out)
	return out, err
}

// Insert adds a saves join row.
func (g *SavesREST) Insert(ctx context.Context, productID, userID string) error {
	body := map[string]string{"product_id": productID, "user_id": userID}
	return g.c.send(ctx, http.MethodPost, "/rest/v1/saves", nil, body, nil)
}

// Delete removes a saves join row.
func (g *SavesREST) Delete(ctx context.Context, productID, userID string) error {
	q := url.Values{}
	q.Set("product_id", "eq."+productID)
	q.Set("user_id", "eq."+userID)
	return g.c.send(ctx, http.MethodDelete, "/rest/v1/saves", q, nil, nil)
}

//
// Notifications
//

// NotificationsREST implements the Notifications gateway.
type NotificationsREST struct{ c *Client }

// NewNotifications returns the REST-backed Notifications gateway.
func NewNotifications(c *Client) *NotificationsREST { return &NotificationsREST{c: c} }

// List returns a user's notifications newest-first.
func (g *NotificationsREST) List(ctx context.Context, userID string) ([]domain.Notification, error) {
	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	q.Set("order", "created_at.desc")
	var out []domain.Notification
	err := g.c.get(ctx, "/rest/v1/notifications", q, &out)
	return out, err
}

// MarkRead flags one notification row as read.
func (g *NotificationsREST) MarkRead(ctx context.Context, notificationID, userID string) error {
	q := url.Values{}
	q.Set("id", "eq."+notificationID)
	q.Set("user_id", "eq."+userID)
	return g.c.send(ctx, http.MethodPatch, "/rest/v1/notifications", q, map[string]bool{"is_read": true}, nil)
}

// MarkAllRead flags every unread notification for userID as read.
func (g *NotificationsREST) MarkAllRead(ctx context.Context, userID string) error {
	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	q.Set("is_read", "eq.false")
	return g.c.send(ctx, http.MethodPatch, "/rest/v1/notifications", q, map[string]bool{"is_read": true}, nil)
}
