package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sellexa/go-marketplace-backend/internal/api"
	"github.com/sellexa/go-marketplace-backend/internal/domain"
)

// SavesTTL is the freshness window for per-product save data.
const SavesTTL = 2 * time.Minute

// SavesPersister is the slice of local persistence the saves store needs.
type SavesPersister interface {
	UpsertSave(ctx context.Context, s domain.SaveData) error
	LoadSaves(ctx context.Context) ([]domain.SaveData, error)
}

// SavesStore holds per-product save data for the current viewer. Toggles are
// optimistic: the local projection flips first, the backend write follows,
// and a failed write rolls the projection back to its prior value. A per-key
// guard rejects a second toggle or fetch for a product while the first is
// still in flight.
type SavesStore struct {
	saves    *api.Saves
	identity Identity
	local    SavesPersister
	guard    *inflight

	mu      sync.Mutex
	data    map[string]domain.SaveData
	fetched map[string]time.Time
	errs    map[string]string
	ttl     time.Duration
	now     func() time.Time
}

// NewSavesStore returns a SavesStore. local may be nil when no offline
// persistence is configured.
func NewSavesStore(saves *api.Saves, identity Identity, local SavesPersister) *SavesStore {
	return &SavesStore{
		saves:    saves,
		identity: identity,
		local:    local,
		guard:    newInflight(),
		data:     make(map[string]domain.SaveData),
		fetched:  make(map[string]time.Time),
		errs:     make(map[string]string),
		ttl:      SavesTTL,
		now:      time.Now,
	}
}

// Hydrate seeds per-product save data from local persistence. Hydrated
// entries carry no fetch time, so the first FetchSaveData still refreshes.
func (s *SavesStore) Hydrate(ctx context.Context) {
	if s.local == nil {
		return
	}
	rows, err := s.local.LoadSaves(ctx)
	if err != nil {
		return
	}
	s.mu.Lock()
	for _, r := range rows {
		s.data[r.ProductID] = r
	}
	s.mu.Unlock()
}

// FetchSaveData loads the save projection for one product unless a fresh
// copy exists or a fetch for the same product is already in flight.
func (s *SavesStore) FetchSaveData(ctx context.Context, productID string) error {
	s.mu.Lock()
	if at, ok := s.fetched[productID]; ok && s.now().Sub(at) < s.ttl && s.errs[productID] == "" {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if !s.guard.begin("fetch:" + productID) {
		return nil
	}
	defer s.guard.end("fetch:" + productID)

	res := s.saves.Data(ctx, productID, s.identity.UserID())

	s.mu.Lock()
	defer s.mu.Unlock()
	if !res.Success {
		s.errs[productID] = res.Error
		return nil
	}
	s.data[productID] = res.Data
	s.fetched[productID] = s.now()
	delete(s.errs, productID)
	if s.local != nil {
		if err := s.local.UpsertSave(ctx, res.Data); err != nil {
			logPersistErr("saves", err)
		}
	}
	return nil
}

// ToggleSave flips the viewer's saved state for productID. The flip applies
// locally before the backend write, and rolls back when that write fails.
// It reports whether the toggle took effect. Signed-out viewers are a silent
// no-op, as is a toggle for a product whose previous toggle has not settled.
func (s *SavesStore) ToggleSave(ctx context.Context, productID string) bool {
	userID := s.identity.UserID()
	if userID == "" {
		return false
	}
	if !s.guard.begin(productID) {
		log.Debug().Str("product_id", productID).Msg("toggle rejected, already in flight")
		return false
	}
	defer s.guard.end(productID)

	s.mu.Lock()
	prev, ok := s.data[productID]
	if !ok {
		prev = domain.SaveData{ProductID: productID}
	}
	next := prev
	next.IsSaved = !prev.IsSaved
	if next.IsSaved {
		next.SaveCount = prev.SaveCount + 1
	} else {
		next.SaveCount = maxInt(0, prev.SaveCount-1)
	}
	s.data[productID] = next
	s.mu.Unlock()

	var res api.Result[bool]
	if next.IsSaved {
		res = s.saves.Save(ctx, productID, userID)
	} else {
		res = s.saves.Unsave(ctx, productID, userID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !res.Success {
		s.data[productID] = prev
		s.errs[productID] = res.Error
		return false
	}
	delete(s.errs, productID)
	if s.local != nil {
		if err := s.local.UpsertSave(ctx, next); err != nil {
			logPersistErr("saves", err)
		}
	}
	return true
}

// SaveData returns the projection for productID, zero-valued when unknown.
func (s *SavesStore) SaveData(productID string) domain.SaveData {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.data[productID]; ok {
		return d
	}
	return domain.SaveData{ProductID: productID}
}

// IsLoading reports whether a fetch or toggle for productID is in flight.
func (s *SavesStore) IsLoading(productID string) bool {
	return s.guard.busy(productID) || s.guard.busy("fetch:"+productID)
}

// Err returns the last error recorded for productID.
func (s *SavesStore) Err(productID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs[productID]
}

// Clear drops all save state. Wired to UserStore.OnSignOut.
func (s *SavesStore) Clear() {
	s.mu.Lock()
	s.data = make(map[string]domain.SaveData)
	s.fetched = make(map[string]time.Time)
	s.errs = make(map[string]string)
	s.mu.Unlock()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
