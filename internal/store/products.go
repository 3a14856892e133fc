package store

import (
	"context"
	"sync"
	"time"

	"github.com/sellexa/go-marketplace-backend/internal/api"
	"github.com/sellexa/go-marketplace-backend/internal/domain"
	"github.com/sellexa/go-marketplace-backend/internal/search"
)

// FeedTTL is the freshness window for the product feed.
const FeedTTL = 5 * time.Minute

// FeedPersister is the slice of local persistence the products store needs.
type FeedPersister interface {
	ReplaceFeed(ctx context.Context, products []domain.Product) error
	LoadFeed(ctx context.Context) ([]domain.Product, time.Time, error)
}

// ProductsStore holds the browse feed plus a per-product lookup, and keeps a
// search index over listing text rebuilt on every successful feed load.
type ProductsStore struct {
	products *api.Products
	local    FeedPersister

	mu   sync.Mutex
	feed []domain.Product
	byID map[string]domain.Product
	idx  search.Index
	st   fetchState
	ttl  time.Duration
	now  func() time.Time
}

// NewProductsStore returns a ProductsStore. local may be nil when no offline
// persistence is configured.
func NewProductsStore(products *api.Products, local FeedPersister) *ProductsStore {
	return &ProductsStore{
		products: products,
		local:    local,
		byID:     make(map[string]domain.Product),
		ttl:      FeedTTL,
		now:      time.Now,
	}
}

// Hydrate seeds the feed from local persistence, keeping the snapshot's
// original fetch time so staleness is judged against real age.
func (s *ProductsStore) Hydrate(ctx context.Context) {
	if s.local == nil {
		return
	}
	feed, fetchedAt, err := s.local.LoadFeed(ctx)
	if err != nil || len(feed) == 0 {
		return
	}
	s.mu.Lock()
	s.install(feed)
	s.st.lastFetch = fetchedAt
	s.mu.Unlock()
}

// FetchFeed loads the product feed when it is stale. Redundant calls while a
// fetch is in flight, or while the feed is fresh, are no-ops.
func (s *ProductsStore) FetchFeed(ctx context.Context) error {
	s.mu.Lock()
	if !s.st.admit(s.ttl, s.now()) {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	res := s.products.Feed(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !res.Success {
		s.st.fail(res.Error)
		return nil
	}
	s.install(res.Data)
	s.st.succeed(s.now())
	if s.local != nil {
		if err := s.local.ReplaceFeed(ctx, res.Data); err != nil {
			logPersistErr("feed", err)
		}
	}
	return nil
}

// install must be called with mu held.
func (s *ProductsStore) install(feed []domain.Product) {
	s.feed = feed
	s.byID = make(map[string]domain.Product, len(feed))
	docs := make([]search.Doc, 0, len(feed))
	for _, p := range feed {
		s.byID[p.ID] = p
		docs = append(docs, search.Doc{
			ID:   p.ID,
			Text: search.ListingText(p.Title, p.Description, p.Category),
		})
	}
	s.idx = search.NewIndex(docs)
}

// Feed returns a copy of the current feed, newest first.
func (s *ProductsStore) Feed() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, len(s.feed))
	copy(out, s.feed)
	return out
}

// Product returns one product. It prefers the feed snapshot and falls back
// to a backend fetch for products outside the current feed page.
func (s *ProductsStore) Product(ctx context.Context, id string) (*domain.Product, bool) {
	s.mu.Lock()
	p, ok := s.byID[id]
	s.mu.Unlock()
	if ok {
		return &p, true
	}
	res := s.products.Get(ctx, id)
	if !res.Success || res.Data == nil {
		return nil, false
	}
	s.mu.Lock()
	s.byID[res.Data.ID] = *res.Data
	s.mu.Unlock()
	return res.Data, true
}

// Search ranks feed products against query. An empty query returns nil.
func (s *ProductsStore) Search(query string, limit int) []domain.Product {
	s.mu.Lock()
	idx := s.idx
	s.mu.Unlock()
	if idx == nil {
		return nil
	}
	hits := idx.TopK(query, limit)

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, 0, len(hits))
	for _, h := range hits {
		if p, ok := s.byID[h.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// IsFeedStale reports whether the next FetchFeed would hit the backend.
func (s *ProductsStore) IsFeedStale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.stale(s.ttl, s.now())
}

// IsLoading reports whether a feed fetch is outstanding.
func (s *ProductsStore) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.loading
}

// Err returns the last feed fetch error message.
func (s *ProductsStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.lastErr
}

// ClearCache drops the feed and its index. The next FetchFeed reloads.
func (s *ProductsStore) ClearCache() {
	s.mu.Lock()
	s.feed = nil
	s.byID = make(map[string]domain.Product)
	s.idx = nil
	s.st.reset()
	s.mu.Unlock()
}
