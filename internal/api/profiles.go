// Package api — profiles module.
package api

import (
	"context"

	"github.com/sellexa/go-marketplace-backend/internal/cache"
	"github.com/sellexa/go-marketplace-backend/internal/domain"
	"github.com/sellexa/go-marketplace-backend/internal/supabase"
)

// Profiles is the profile API module.
type Profiles struct {
	Cache   *cache.Cache
	Gateway supabase.Profiles
}

// Get returns one profile by id, cached per profile.
func (a *Profiles) Get(ctx context.Context, profileID string) Result[*domain.Profile] {
	out, err := cache.Request(ctx, a.Cache, profileKey(profileID), func(ctx context.Context) (*domain.Profile, error) {
		return a.Gateway.Get(ctx, profileID)
	}, true)
	if err != nil {
		return Err[*domain.Profile](err)
	}
	return OK(out)
}

// Update patches a profile and invalidates its cache key so the next read is
// fresh.
func (a *Profiles) Update(ctx context.Context, profileID string, patch supabase.ProfilePatch) Result[*domain.Profile] {
	p, err := a.Gateway.Update(ctx, profileID, patch)
	if err != nil {
		return Err[*domain.Profile](err)
	}
	a.Cache.Clear(profileKey(profileID))
	return OK(p)
}
