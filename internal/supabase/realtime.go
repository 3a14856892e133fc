// Package supabase — realtime gateway.
package supabase

import "github.com/sellexa/go-marketplace-backend/internal/realtime"

// HubRealtime implements the Realtime gateway over an in-process hub. The
// backend's change feed (whatever transport delivers it) publishes into the
// hub; subscribers only ever see the hub, so tests and the production feed
// are interchangeable.
type HubRealtime struct {
	hub *realtime.Hub
}

var _ Realtime = (*HubRealtime)(nil)

// NewHubRealtime returns a Realtime gateway backed by hub.
func NewHubRealtime(hub *realtime.Hub) *HubRealtime {
	return &HubRealtime{hub: hub}
}

// Subscribe registers h for the filtered table feed and returns the
// unsubscribe function.
func (r *HubRealtime) Subscribe(table, filter string, h realtime.Handler) func() {
	return r.hub.Subscribe(realtime.Topic(table, filter), h)
}
