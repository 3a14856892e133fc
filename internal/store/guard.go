package store

import "sync"

// inflight is a keyed admission guard for single-flight mutations. begin is a
// compare-and-swap: it admits exactly one caller per key until the matching
// end. Concurrent duplicates are rejected, not queued.
type inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{keys: make(map[string]struct{})}
}

// begin reports whether the caller acquired key. The caller that receives
// true must release it with end.
func (g *inflight) begin(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.keys[key]; busy {
		return false
	}
	g.keys[key] = struct{}{}
	return true
}

// end releases key. Releasing a key that was never acquired is a no-op.
func (g *inflight) end(key string) {
	g.mu.Lock()
	delete(g.keys, key)
	g.mu.Unlock()
}

// busy reports whether key is currently held.
func (g *inflight) busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, held := g.keys[key]
	return held
}
