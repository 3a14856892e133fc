package session

import (
	"sync"
	"time"

	"github.com/sellexa/go-marketplace-backend/internal/domain"
	"github.com/sellexa/go-marketplace-backend/internal/store"
)

// DefaultSearchDebounce is how long a query must rest before it runs.
const DefaultSearchDebounce = 300 * time.Millisecond

// DefaultSearchLimit caps result sets.
const DefaultSearchLimit = 20

// SearchSession is a debounced live-search box over the product feed. Each
// keystroke replaces the pending query; only the query that survives the
// debounce window executes, so fast typists cost one search, not one per
// keystroke.
type SearchSession struct {
	products *store.ProductsStore
	debounce time.Duration
	limit    int

	mu      sync.Mutex
	query   string
	results []domain.Product
	timer   *time.Timer
	gen     int
}

// NewSearchSession returns a search box over the products store with the
// default debounce and result cap.
func NewSearchSession(products *store.ProductsStore) *SearchSession {
	return &SearchSession{
		products: products,
		debounce: DefaultSearchDebounce,
		limit:    DefaultSearchLimit,
	}
}

// SetQuery replaces the pending query. An empty query cancels any pending
// search and clears results immediately.
func (s *SearchSession) SetQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.query = q
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if q == "" {
		s.results = nil
		return
	}
	s.timer = time.AfterFunc(s.debounce, func() { s.run(gen) })
}

// run executes the query unless a newer one superseded it meanwhile.
func (s *SearchSession) run(gen int) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	q := s.query
	limit := s.limit
	s.mu.Unlock()

	hits := s.products.Search(q, limit)

	s.mu.Lock()
	if gen == s.gen {
		s.results = hits
	}
	s.mu.Unlock()
}

// Results returns the results of the last executed query.
func (s *SearchSession) Results() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, len(s.results))
	copy(out, s.results)
	return out
}

// Query returns the current (possibly still pending) query.
func (s *SearchSession) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}
