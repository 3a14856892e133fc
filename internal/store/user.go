package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/sellexa/go-marketplace-backend/internal/domain"
	"github.com/sellexa/go-marketplace-backend/internal/supabase"
)

// Identity exposes the currently authenticated user id, or "" when signed
// out. Stores that gate mutations on authentication depend on this narrow
// view rather than on the full UserStore.
type Identity interface {
	UserID() string
}

// SessionPersister is the slice of local persistence the user store needs:
// the session row itself plus the blanket clear that runs on sign-out so no
// private snapshot outlives the session.
type SessionPersister interface {
	SaveSession(ctx context.Context, u domain.User) error
	LoadSession(ctx context.Context) (*domain.User, error)
	ClearUserData(ctx context.Context) error
}

// UserStore owns the authentication state: the current user, the loading
// flag for the initial session fetch, and the listener that keeps the store
// in sync with auth events. Sign-out hooks registered by other stores run
// whenever the session ends, so dependent state is cleared exactly once.
type UserStore struct {
	auth  supabase.Auth
	local SessionPersister

	mu        sync.Mutex
	user      *domain.User
	loading   bool
	lastErr   string
	listening bool
	onSignOut []func()
}

// NewUserStore returns a UserStore backed by auth. No session is fetched
// until Hydrate, FetchCurrentUser, or the listener delivers one. local may
// be nil when no offline persistence is configured.
func NewUserStore(auth supabase.Auth, local SessionPersister) *UserStore {
	return &UserStore{auth: auth, local: local}
}

// Hydrate seeds the session from local persistence so the client starts
// signed in across restarts. The next auth event or session fetch remains
// authoritative; an already-populated store is left alone.
func (s *UserStore) Hydrate(ctx context.Context) {
	if s.local == nil {
		return
	}
	u, err := s.local.LoadSession(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("session hydration failed")
		return
	}
	if u == nil {
		return
	}
	s.mu.Lock()
	if s.user == nil {
		s.user = u
	}
	s.mu.Unlock()
}

// OnSignOut registers fn to run after the session ends, either through an
// explicit SignOut or a SIGNED_OUT auth event.
func (s *UserStore) OnSignOut(fn func()) {
	s.mu.Lock()
	s.onSignOut = append(s.onSignOut, fn)
	s.mu.Unlock()
}

// SetupAuthListener starts consuming auth events. It is idempotent: repeated
// calls after the first are no-ops, so at most one listener goroutine exists
// regardless of how many callers initialize the store. The goroutine exits
// when ctx is done or the event channel closes.
func (s *UserStore) SetupAuthListener(ctx context.Context) {
	s.mu.Lock()
	if s.listening {
		s.mu.Unlock()
		return
	}
	s.listening = true
	s.mu.Unlock()

	events := s.auth.Events()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				s.apply(ev)
			}
		}
	}()
}

// apply folds one auth event into the store.
func (s *UserStore) apply(ev domain.AuthEvent) {
	log.Debug().Str("event", ev.Event).Msg("auth event")

	switch ev.Event {
	case domain.AuthSignedIn, domain.AuthTokenRefreshed, domain.AuthInitialSession:
		s.mu.Lock()
		s.user = ev.User
		s.loading = false
		s.lastErr = ""
		hooks := s.hooksIfCleared(ev.User)
		s.mu.Unlock()
		s.persistSession(context.Background(), ev.User)
		runHooks(hooks)
	case domain.AuthSignedOut:
		s.clearSession()
	}
}

// hooksIfCleared must be called with mu held. INITIAL_SESSION with a nil
// user means there is no session, which dependent stores treat as sign-out.
func (s *UserStore) hooksIfCleared(u *domain.User) []func() {
	if u != nil {
		return nil
	}
	return append([]func(){}, s.onSignOut...)
}

// FetchCurrentUser loads the current session. Concurrent calls collapse to
// one request: later callers return immediately while the first is in
// flight. A missing session is not an error, it simply leaves user nil.
func (s *UserStore) FetchCurrentUser(ctx context.Context) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.mu.Unlock()

	u, err := s.auth.Session(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastErr = err.Error()
		return err
	}
	s.user = u
	s.lastErr = ""
	s.persistSession(ctx, u)
	return nil
}

// persistSession mirrors the session row locally. Only live sessions are
// written; clearing happens through clearSession.
func (s *UserStore) persistSession(ctx context.Context, u *domain.User) {
	if s.local == nil || u == nil {
		return
	}
	if err := s.local.SaveSession(ctx, *u); err != nil {
		logPersistErr("session", err)
	}
}

// SignOut ends the session remotely and clears local auth state. Dependent
// stores are cleared through their registered hooks even when the remote
// call fails, so a half-signed-out client never keeps private data around.
func (s *UserStore) SignOut(ctx context.Context) error {
	err := s.auth.SignOut(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("remote sign-out failed, clearing local session anyway")
	}
	s.clearSession()
	return err
}

func (s *UserStore) clearSession() {
	s.mu.Lock()
	s.user = nil
	s.loading = false
	s.lastErr = ""
	hooks := append([]func(){}, s.onSignOut...)
	s.mu.Unlock()
	if s.local != nil {
		// Drop the session row and every private snapshot with it.
		if err := s.local.ClearUserData(context.Background()); err != nil {
			logPersistErr("session", err)
		}
	}
	runHooks(hooks)
}

func runHooks(hooks []func()) {
	for _, fn := range hooks {
		fn()
	}
}

// User returns the current user, or nil when signed out.
func (s *UserStore) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// UserID implements Identity.
func (s *UserStore) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

// IsLoading reports whether a session fetch is outstanding.
func (s *UserStore) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last session fetch error message, if any.
func (s *UserStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
