// Package domain defines the data transfer objects exchanged with the
// managed marketplace backend (profiles, products, saves, threads, messages,
// notifications) and the projections built on top of them. These types mirror
// backend rows one-to-one: nullable columns map to pointer fields, and all
// identifiers are backend-assigned — the client never generates ids for
// persisted entities. The sole exception is the "temp-" prefix used for
// locally synthesized notifications that have not reached the backend yet.
package domain

import "time"

// TempIDPrefix marks locally synthesized records that are expected to be
// replaced by backend-assigned rows on the next fetch.
const TempIDPrefix = "temp-"

// Auth event names emitted by the backend auth stream.
const (
	AuthSignedIn       = "SIGNED_IN"
	AuthSignedOut      = "SIGNED_OUT"
	AuthTokenRefreshed = "TOKEN_REFRESHED"
	AuthInitialSession = "INITIAL_SESSION"
)

// User is the authenticated actor as reported by the backend auth service.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthEvent is one state transition on the backend auth stream. User is nil
// for sign-out and missing-session events.
type AuthEvent struct {
	Event string `json:"event"`
	User  *User  `json:"user,omitempty"`
}

// Profile mirrors a row of the backend `profiles` table. It carries both
// buyer identity and, for vendors, the KYC verification state that gates
// listing creation.
//
// Fields:
//   - ID: backend-assigned UUID, same as the auth user id.
//   - DisplayName / AvatarURL / Bio: optional presentation fields.
//   - IsVendor: whether the profile can hold listings.
//   - KYCStatus: one of "unverified", "pending", "verified", "rejected".
type Profile struct {
	ID          string    `json:"id"`
	DisplayName *string   `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url"`
	Bio         *string   `json:"bio"`
	Location    *string   `json:"location"`
	IsVendor    bool      `json:"is_vendor"`
	KYCStatus   string    `json:"kyc_status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Product mirrors a row of the backend `products` table.
type Product struct {
	ID          string    `json:"id"`
	VendorID    string    `json:"vendor_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	PricePence  int64     `json:"price_pence"`
	Currency    string    `json:"currency"`
	Category    *string   `json:"category"`
	ImagePath   *string   `json:"image_path"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SaveData is the client-side projection of the saves join table for one
// product as seen by one viewer: a total count plus a per-viewer boolean.
type SaveData struct {
	ProductID string `json:"product_id"`
	SaveCount int    `json:"save_count"`
	IsSaved   bool   `json:"is_saved"`
}

// Message mirrors a row of the backend `messages` table. Sender is a
// display-only join of the sender profile, populated when the backend query
// embeds it; it is never written back.
type Message struct {
	ID        string     `json:"id"`
	ThreadID  string     `json:"thread_id"`
	SenderID  string     `json:"sender_id"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at"`

	Sender *Profile `json:"sender,omitempty"`
}

// MessageReaction mirrors a row of the backend `message_reactions` table.
type MessageReaction struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

// Thread mirrors a row of the backend `threads` table: the storage-level
// buyer–seller–product messaging channel.
type Thread struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	BuyerID   string    `json:"buyer_id"`
	SellerID  string    `json:"seller_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is the denormalized, UI-facing projection of a thread plus its
// latest message and counterpart profile, as returned by the backend
// get_user_conversations RPC. UnreadCount is maintained locally between
// fetches and is never allowed to go negative.
type Conversation struct {
	ThreadID         string     `json:"thread_id"`
	ProductID        string     `json:"product_id"`
	ProductTitle     string     `json:"product_title"`
	ProductImagePath *string    `json:"product_image_path"`
	OtherUserID      string     `json:"other_user_id"`
	OtherUserName    *string    `json:"other_user_name"`
	OtherUserAvatar  *string    `json:"other_user_avatar"`
	LastMessageBody  *string    `json:"last_message_body"`
	LastMessageAt    *time.Time `json:"last_message_at"`
	UnreadCount      int        `json:"unread_count"`
	IsArchived       bool       `json:"is_archived"`
	IsMuted          bool       `json:"is_muted"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TypingIndicator is the ephemeral "user X is typing" signal for a thread.
// It is re-fetched on demand and never cached long-term.
type TypingIndicator struct {
	ThreadID  string    `json:"thread_id"`
	UserID    string    `json:"user_id"`
	UserName  *string   `json:"user_name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Notification mirrors a row of the backend `notifications` table. Rows with
// a TempIDPrefix id were synthesized locally and are replaced on next fetch.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      *string   `json:"body"`
	LinkPath  *string   `json:"link_path"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
