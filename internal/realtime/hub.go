// Package realtime provides the change-feed subscription abstraction used by
// the chat layer. A topic identifies one filtered table feed (for example
// "messages:thread_id=eq.<id>"); handlers registered for a topic receive
// every event published to it until their unsubscribe function is called.
//
// The Hub is an in-process fan-out spine: the backend realtime transport (or
// a test) publishes into it, and stores subscribe to it. Handlers run on the
// publisher's goroutine, so they must be quick and must not block.
package realtime

import (
	"encoding/json"
	"sync"
)

// Change types delivered on a feed, mirroring the backend change events.
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// Event is one row change on a subscribed feed. Record carries the raw new
// row; subscribers that need joined data (e.g. sender profiles) are expected
// to follow up with a fetch by id rather than rely on the payload.
type Event struct {
	Topic    string
	Type     string
	RecordID string
	Record   json.RawMessage
}

// Topic builds the canonical topic name for a filtered table feed.
func Topic(table, filter string) string {
	if filter == "" {
		return table
	}
	return table + ":" + filter
}

// Handler consumes events for a topic.
type Handler func(Event)

// Hub is a thread-safe topic/handler registry. The zero value is not usable;
// construct with NewHub.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]Handler
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]Handler)}
}

// Subscribe registers h for topic and returns its unsubscribe function.
// Unsubscribing twice is a no-op.
func (h *Hub) Subscribe(topic string, fn Handler) func() {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[int]Handler)
	}
	h.subs[topic][id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			if m, ok := h.subs[topic]; ok {
				delete(m, id)
				if len(m) == 0 {
					delete(h.subs, topic)
				}
			}
			h.mu.Unlock()
		})
	}
}

// Publish delivers ev to every handler subscribed to ev.Topic.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	handlers := make([]Handler, 0, len(h.subs[ev.Topic]))
	for _, fn := range h.subs[ev.Topic] {
		handlers = append(handlers, fn)
	}
	h.mu.Unlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

// Subscribers reports the number of handlers registered for topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topic])
}
