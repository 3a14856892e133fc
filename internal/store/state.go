package store

import (
	"context"
	"time"

	"github.com/sellexa/go-marketplace-backend/internal/api"
	"github.com/sellexa/go-marketplace-backend/internal/cache"
	"github.com/sellexa/go-marketplace-backend/internal/supabase"
)

// Local is the full local-persistence surface the stores can use. A nil
// Local disables offline hydration without changing any store behavior.
type Local interface {
	SessionPersister
	ProfilePersister
	FeedPersister
	SavesPersister
	NotificationsPersister
}

// Deps carries everything State needs: the shared request cache, the backend
// gateways, and optional local persistence.
type Deps struct {
	Cache *cache.Cache

	Auth          supabase.Auth
	Profiles      supabase.Profiles
	Products      supabase.Products
	Saves         supabase.Saves
	Notifications supabase.Notifications
	Conversations supabase.Conversations
	Messages      supabase.Messages
	Typing        supabase.Typing
	Reactions     supabase.Reactions
	Realtime      supabase.Realtime

	Local     Local
	FeedLimit int

	// Optional TTL overrides; zero keeps the package defaults.
	FeedTTL          time.Duration
	ProfileTTL       time.Duration
	ConversationsTTL time.Duration
}

// State is the root of the client-visible state tree: one store per domain,
// wired so that sign-out clears everything derived from the old session.
type State struct {
	User          *UserStore
	Profile       *ProfileStore
	Products      *ProductsStore
	Saves         *SavesStore
	Notifications *NotificationsStore
	Chat          *ChatStore
}

// New builds the full store tree. The product feed intentionally survives
// sign-out: it is public data and keeps the browse surface warm.
func New(d Deps) *State {
	var (
		sessionLocal SessionPersister
		profileLocal ProfilePersister
		feedLocal    FeedPersister
		savesLocal   SavesPersister
		notifLocal   NotificationsPersister
	)
	if d.Local != nil {
		sessionLocal = d.Local
		profileLocal = d.Local
		feedLocal = d.Local
		savesLocal = d.Local
		notifLocal = d.Local
	}

	user := NewUserStore(d.Auth, sessionLocal)

	st := &State{
		User: user,
		Profile: NewProfileStore(
			&api.Profiles{Cache: d.Cache, Gateway: d.Profiles}, user, profileLocal),
		Products: NewProductsStore(
			&api.Products{Cache: d.Cache, Gateway: d.Products, FeedLimit: d.FeedLimit}, feedLocal),
		Saves: NewSavesStore(
			&api.Saves{Cache: d.Cache, Gateway: d.Saves}, user, savesLocal),
		Notifications: NewNotificationsStore(
			&api.Notifications{Cache: d.Cache, Gateway: d.Notifications}, user, notifLocal),
		Chat: NewChatStore(
			&api.Chat{Cache: d.Cache, Messages: d.Messages, Typing: d.Typing, Reactions: d.Reactions},
			&api.Conversations{Cache: d.Cache, Gateway: d.Conversations},
			user, d.Realtime),
	}

	if d.FeedTTL > 0 {
		st.Products.ttl = d.FeedTTL
	}
	if d.ProfileTTL > 0 {
		st.Profile.ttl = d.ProfileTTL
	}
	if d.ConversationsTTL > 0 {
		st.Chat.ttl = d.ConversationsTTL
	}

	user.OnSignOut(st.Profile.Clear)
	user.OnSignOut(st.Saves.Clear)
	user.OnSignOut(st.Notifications.Clear)
	user.OnSignOut(st.Chat.Clear)
	if d.Cache != nil {
		user.OnSignOut(d.Cache.ClearAll)
	}
	return st
}

// Start hydrates stores from local persistence and begins consuming auth
// events. Call once after New.
func (s *State) Start(ctx context.Context) {
	s.User.Hydrate(ctx)
	s.User.SetupAuthListener(ctx)
	s.Products.Hydrate(ctx)
	s.Profile.Hydrate(ctx)
	s.Saves.Hydrate(ctx)
	s.Notifications.Hydrate(ctx)
}
