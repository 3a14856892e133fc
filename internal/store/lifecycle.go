package store

import "time"

// fetchState tracks the lifecycle of one cached collection: empty until the
// first successful load, loading while a fetch is outstanding, ready within
// the freshness window, stale afterwards. A recorded error always re-opens
// the collection for the next fetch attempt.
type fetchState struct {
	loading   bool
	lastFetch time.Time
	lastErr   string
}

// stale reports whether the collection needs a refresh: never loaded, the
// freshness window elapsed, or the previous attempt failed.
func (f *fetchState) stale(ttl time.Duration, now time.Time) bool {
	if f.lastErr != "" {
		return true
	}
	if f.lastFetch.IsZero() {
		return true
	}
	return now.Sub(f.lastFetch) >= ttl
}

// admit reports whether a fetch should proceed, and marks the state loading
// when it does. Redundant fetches (already loading, or still fresh) are
// declined.
func (f *fetchState) admit(ttl time.Duration, now time.Time) bool {
	if f.loading {
		return false
	}
	if !f.stale(ttl, now) {
		return false
	}
	f.loading = true
	return true
}

// succeed records a successful load at now and clears any prior error.
func (f *fetchState) succeed(now time.Time) {
	f.loading = false
	f.lastFetch = now
	f.lastErr = ""
}

// fail records a failed load. lastFetch is left untouched so previously
// loaded data keeps its age.
func (f *fetchState) fail(msg string) {
	f.loading = false
	f.lastErr = msg
}

// reset returns the collection to its initial empty state.
func (f *fetchState) reset() {
	*f = fetchState{}
}
