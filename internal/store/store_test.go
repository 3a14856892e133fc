package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sellexa/go-marketplace-backend/internal/domain"
	"github.com/sellexa/go-marketplace-backend/internal/supabase"
)

// ---------- shared fakes ----------

type fakeIdentity string

func (f fakeIdentity) UserID() string { return string(f) }

var errBoom = errors.New("boom")

type fakeSaves struct {
	mu        sync.Mutex
	count     int
	saved     bool
	insertErr error
	deleteErr error
	inserts   int
	deletes   int
}

func (f *fakeSaves) Count(_ context.Context, _ string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count, nil
}

func (f *fakeSaves) IsSaved(_ context.Context, _, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved, nil
}

func (f *fakeSaves) Insert(_ context.Context, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserts++
	f.saved = true
	f.count++
	return nil
}

func (f *fakeSaves) Delete(_ context.Context, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletes++
	f.saved = false
	if f.count > 0 {
		f.count--
	}
	return nil
}

type fakeProducts struct {
	feed    []domain.Product
	feedErr error
	calls   int
}

func (f *fakeProducts) Feed(_ context.Context, _ int) ([]domain.Product, error) {
	f.calls++
	if f.feedErr != nil {
		return nil, f.feedErr
	}
	return f.feed, nil
}

func (f *fakeProducts) Get(_ context.Context, id string) (*domain.Product, error) {
	for _, p := range f.feed {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, errBoom
}

type fakeProfiles struct {
	profile   *domain.Profile
	getErr    error
	updateErr error
}

func (f *fakeProfiles) Get(_ context.Context, _ string) (*domain.Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.profile, nil
}

func (f *fakeProfiles) Update(_ context.Context, _ string, patch supabase.ProfilePatch) (*domain.Profile, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	cp := *f.profile
	if patch.DisplayName != nil {
		cp.DisplayName = patch.DisplayName
	}
	if patch.Bio != nil {
		cp.Bio = patch.Bio
	}
	f.profile = &cp
	return &cp, nil
}

type fakeNotifications struct {
	mu          sync.Mutex
	rows        []domain.Notification
	listErr     error
	markErr     error
	markAllErr  error
	markedIDs   []string
	markAllHits int
}

func (f *fakeNotifications) List(_ context.Context, _ string) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Notification, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, id, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	f.markedIDs = append(f.markedIDs, id)
	return nil
}

func (f *fakeNotifications) MarkAllRead(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markAllErr != nil {
		return f.markAllErr
	}
	f.markAllHits++
	return nil
}

type fakeAuth struct {
	mu       sync.Mutex
	user     *domain.User
	signOuts int
	events   chan domain.AuthEvent
}

func newFakeAuth(u *domain.User) *fakeAuth {
	return &fakeAuth{user: u, events: make(chan domain.AuthEvent, 8)}
}

func (f *fakeAuth) Session(_ context.Context) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user, nil
}

func (f *fakeAuth) SignOut(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts++
	f.user = nil
	return nil
}

func (f *fakeAuth) Events() <-chan domain.AuthEvent { return f.events }

// advance returns a controllable clock starting at base.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
