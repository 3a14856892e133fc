// Package supabase — auth gateway.
package supabase

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sellexa/go-marketplace-backend/internal/domain"
)

// AuthREST implements the Auth gateway over the backend auth endpoints.
// Events are produced by a session watcher goroutine (see Watch): the
// backend's push-based auth stream is a browser-SDK facility, so the gateway
// re-validates the session on an interval and maps transitions into the same
// event vocabulary (INITIAL_SESSION, SIGNED_IN, TOKEN_REFRESHED, SIGNED_OUT).
type AuthREST struct {
	c      *Client
	events chan domain.AuthEvent
}

var _ Auth = (*AuthREST)(nil)

// NewAuth returns the REST-backed Auth gateway. Call Watch to start the
// event stream.
func NewAuth(c *Client) *AuthREST {
	return &AuthREST{
		c:      c,
		events: make(chan domain.AuthEvent, 8),
	}
}

// Session returns the current user, or nil when no session exists.
// A backend 401/404 is "no session", not an error.
func (a *AuthREST) Session(ctx context.Context) (*domain.User, error) {
	var u domain.User
	err := a.c.get(ctx, "/auth/v1/user", nil, &u)
	if err != nil {
		if be, ok := err.(*Error); ok && (be.Status == http.StatusUnauthorized || be.Status == http.StatusNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if u.ID == "" {
		return nil, nil
	}
	return &u, nil
}

// SignOut revokes the current session.
func (a *AuthREST) SignOut(ctx context.Context) error {
	return a.c.send(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, nil)
}

// Events returns the auth event stream.
func (a *AuthREST) Events() <-chan domain.AuthEvent { return a.events }

// Watch re-validates the session every interval and emits transitions on the
// event stream until ctx is cancelled. The first check emits INITIAL_SESSION
// (with or without a user); later checks emit SIGNED_IN, TOKEN_REFRESHED, or
// SIGNED_OUT depending on the transition. Events are dropped when the buffer
// is full rather than blocking the watcher.
func (a *AuthREST) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	emit := func(ev domain.AuthEvent) {
		select {
		case a.events <- ev:
		default:
			log.Warn().Str("event", ev.Event).Msg("auth event dropped, buffer full")
		}
	}

	var hadUser bool
	first := true
	t := time.NewTicker(interval)
	defer t.Stop()

	check := func() {
		u, err := a.Session(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("session check failed")
			return
		}
		switch {
		case first:
			emit(domain.AuthEvent{Event: domain.AuthInitialSession, User: u})
		case u != nil && !hadUser:
			emit(domain.AuthEvent{Event: domain.AuthSignedIn, User: u})
		case u != nil && hadUser:
			emit(domain.AuthEvent{Event: domain.AuthTokenRefreshed, User: u})
		case u == nil && hadUser:
			emit(domain.AuthEvent{Event: domain.AuthSignedOut})
		}
		hadUser = u != nil
		first = false
	}

	check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			check()
		}
	}
}
