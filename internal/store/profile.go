package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sellexa/go-marketplace-backend/internal/api"
	"github.com/sellexa/go-marketplace-backend/internal/domain"
	"github.com/sellexa/go-marketplace-backend/internal/supabase"
)

// ProfileTTL is the freshness window for the viewer's own profile.
const ProfileTTL = 10 * time.Minute

// ProfilePersister is the slice of local persistence the profile store needs.
type ProfilePersister interface {
	SaveProfile(ctx context.Context, p domain.Profile) error
	LoadProfile(ctx context.Context, id string) (*domain.Profile, time.Time, error)
}

var nameCaser = cases.Title(language.English)

// ProfileStore holds the current user's profile and the KYC verification
// state that gates listing creation.
type ProfileStore struct {
	profiles *api.Profiles
	identity Identity
	local    ProfilePersister

	mu      sync.Mutex
	profile *domain.Profile
	st      fetchState
	ttl     time.Duration
	now     func() time.Time
}

// NewProfileStore returns a ProfileStore for the user resolved through
// identity. local may be nil when no offline persistence is configured.
func NewProfileStore(profiles *api.Profiles, identity Identity, local ProfilePersister) *ProfileStore {
	return &ProfileStore{
		profiles: profiles,
		identity: identity,
		local:    local,
		ttl:      ProfileTTL,
		now:      time.Now,
	}
}

// Hydrate seeds the store from local persistence. A hydrated profile keeps
// its original fetch time, so a stale snapshot still triggers a refresh.
func (s *ProfileStore) Hydrate(ctx context.Context) {
	if s.local == nil {
		return
	}
	uid := s.identity.UserID()
	if uid == "" {
		return
	}
	p, fetchedAt, err := s.local.LoadProfile(ctx, uid)
	if err != nil || p == nil {
		return
	}
	s.mu.Lock()
	s.profile = p
	s.st.lastFetch = fetchedAt
	s.mu.Unlock()
}

// Fetch loads the current user's profile when it is stale. Signed-out
// callers and fresh profiles are no-ops.
func (s *ProfileStore) Fetch(ctx context.Context) error {
	uid := s.identity.UserID()
	if uid == "" {
		return nil
	}

	s.mu.Lock()
	if !s.st.admit(s.ttl, s.now()) {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	res := s.profiles.Get(ctx, uid)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !res.Success {
		s.st.fail(res.Error)
		return nil
	}
	s.profile = res.Data
	s.st.succeed(s.now())
	if s.local != nil && res.Data != nil {
		if err := s.local.SaveProfile(ctx, *res.Data); err != nil {
			logPersistErr("profile", err)
		}
	}
	return nil
}

// Update patches the profile on the backend and replaces the cached copy
// with the returned row. It reports whether the update was applied.
func (s *ProfileStore) Update(ctx context.Context, patch supabase.ProfilePatch) bool {
	uid := s.identity.UserID()
	if uid == "" {
		return false
	}
	res := s.profiles.Update(ctx, uid, patch)
	if !res.Success {
		s.mu.Lock()
		s.st.lastErr = res.Error
		s.mu.Unlock()
		return false
	}
	s.mu.Lock()
	s.profile = res.Data
	s.st.succeed(s.now())
	s.mu.Unlock()
	if s.local != nil && res.Data != nil {
		if err := s.local.SaveProfile(ctx, *res.Data); err != nil {
			logPersistErr("profile", err)
		}
	}
	return true
}

// Profile returns the cached profile, or nil when none is loaded.
func (s *ProfileStore) Profile() *domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// DisplayName returns the profile's display name, falling back to a
// title-cased rendering of the supplied email local part when unset.
func (s *ProfileStore) DisplayName(fallbackEmail string) string {
	s.mu.Lock()
	p := s.profile
	s.mu.Unlock()
	if p != nil && p.DisplayName != nil && *p.DisplayName != "" {
		return *p.DisplayName
	}
	local, _, _ := strings.Cut(fallbackEmail, "@")
	if local == "" {
		return ""
	}
	return nameCaser.String(strings.ReplaceAll(local, ".", " "))
}

// CanCreateListings reports whether the cached profile is a vendor whose
// KYC verification has completed.
func (s *ProfileStore) CanCreateListings() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile != nil && s.profile.IsVendor && s.profile.KYCStatus == "verified"
}

// IsStale reports whether the profile needs a refresh.
func (s *ProfileStore) IsStale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.stale(s.ttl, s.now())
}

// Err returns the last fetch or update error message.
func (s *ProfileStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.lastErr
}

// Clear drops all profile state. Wired to UserStore.OnSignOut.
func (s *ProfileStore) Clear() {
	s.mu.Lock()
	s.profile = nil
	s.st.reset()
	s.mu.Unlock()
}
