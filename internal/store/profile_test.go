package store

import (
	"context"
	"testing"
	"time"

	"github.com/sellexa/go-marketplace-backend/internal/api"
	"github.com/sellexa/go-marketplace-backend/internal/cache"
	"github.com/sellexa/go-marketplace-backend/internal/domain"
	"github.com/sellexa/go-marketplace-backend/internal/supabase"
)

func newProfileStore(gw *fakeProfiles, uid string) *ProfileStore {
	profiles := &api.Profiles{Cache: cache.New(time.Nanosecond), Gateway: gw}
	return NewProfileStore(profiles, fakeIdentity(uid), nil)
}

func vendorProfile(kyc string) *domain.Profile {
	name := "Ada"
	return &domain.Profile{ID: "u1", DisplayName: &name, IsVendor: true, KYCStatus: kyc}
}

func TestProfileFetchAndKYCGate(t *testing.T) {
	gw := &fakeProfiles{profile: vendorProfile("pending")}
	s := newProfileStore(gw, "u1")

	if s.CanCreateListings() {
		t.Fatalf("no profile loaded, gate must be closed")
	}
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if s.CanCreateListings() {
		t.Fatalf("pending KYC must not open the gate")
	}

	gw.profile = vendorProfile("verified")
	s.Clear()
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !s.CanCreateListings() {
		t.Fatalf("verified vendor should pass the gate")
	}
}

func TestProfileFetch_SignedOutIsNoOp(t *testing.T) {
	gw := &fakeProfiles{profile: vendorProfile("verified")}
	s := newProfileStore(gw, "")
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if s.Profile() != nil {
		t.Fatalf("signed-out fetch must not load a profile")
	}
}

func TestProfileUpdate(t *testing.T) {
	gw := &fakeProfiles{profile: vendorProfile("verified")}
	s := newProfileStore(gw, "u1")
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	bio := "Restorer of old furniture"
	if !s.Update(context.Background(), supabase.ProfilePatch{Bio: &bio}) {
		t.Fatalf("Update should succeed")
	}
	p := s.Profile()
	if p == nil || p.Bio == nil || *p.Bio != bio {
		t.Fatalf("cached profile should carry the update: %#v", p)
	}

	gw.updateErr = errBoom
	if s.Update(context.Background(), supabase.ProfilePatch{Bio: &bio}) {
		t.Fatalf("failed update should report false")
	}
	if s.Err() == "" {
		t.Fatalf("expected recorded error")
	}
}

func TestDisplayNameFallback(t *testing.T) {
	s := newProfileStore(&fakeProfiles{}, "u1")
	if got := s.DisplayName("ada.lovelace@example.com"); got != "Ada Lovelace" {
		t.Fatalf("fallback display name: got %q", got)
	}
	if got := s.DisplayName(""); got != "" {
		t.Fatalf("empty email should yield empty name, got %q", got)
	}

	gw := &fakeProfiles{profile: vendorProfile("verified")}
	s = newProfileStore(gw, "u1")
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := s.DisplayName("ada.lovelace@example.com"); got != "Ada" {
		t.Fatalf("explicit display name wins, got %q", got)
	}
}
