package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sellexa/go-marketplace-backend/internal/api"
	"github.com/sellexa/go-marketplace-backend/internal/domain"
)

// NotificationsTTL is the freshness window for the notification list.
const NotificationsTTL = 2 * time.Minute

// NotificationsPersister is the slice of local persistence the notifications
// store needs. Locally synthesized rows are never persisted.
type NotificationsPersister interface {
	ReplaceNotifications(ctx context.Context, rows []domain.Notification) error
	LoadNotifications(ctx context.Context) ([]domain.Notification, error)
}

// NotificationsStore holds the current user's notifications newest-first.
// Besides backend rows it accepts locally synthesized notifications, which
// carry a "temp-" id and survive only until the next successful fetch.
type NotificationsStore struct {
	notifications *api.Notifications
	identity      Identity
	local         NotificationsPersister

	mu    sync.Mutex
	items []domain.Notification
	st    fetchState
	ttl   time.Duration
	now   func() time.Time
	newID func() string
}

// NewNotificationsStore returns a NotificationsStore. local may be nil when
// no offline persistence is configured.
func NewNotificationsStore(n *api.Notifications, identity Identity, local NotificationsPersister) *NotificationsStore {
	return &NotificationsStore{
		notifications: n,
		identity:      identity,
		local:         local,
		ttl:           NotificationsTTL,
		now:           time.Now,
		newID:         func() string { return domain.TempIDPrefix + uuid.NewString() },
	}
}

// Hydrate seeds the list from local persistence without marking it fresh.
func (s *NotificationsStore) Hydrate(ctx context.Context) {
	if s.local == nil {
		return
	}
	rows, err := s.local.LoadNotifications(ctx)
	if err != nil || len(rows) == 0 {
		return
	}
	s.mu.Lock()
	if len(s.items) == 0 {
		s.items = rows
	}
	s.mu.Unlock()
}

// Fetch loads the notification list when it is stale. A successful fetch
// replaces the whole list, dropping any locally synthesized rows.
func (s *NotificationsStore) Fetch(ctx context.Context) error {
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

	res := s.notifications.List(ctx, uid)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !res.Success {
		s.st.fail(res.Error)
		return nil
	}
	s.items = res.Data
	s.st.succeed(s.now())
	if s.local != nil {
		if err := s.local.ReplaceNotifications(ctx, res.Data); err != nil {
			logPersistErr("notifications", err)
		}
	}
	return nil
}

// AddLocal prepends a locally synthesized notification. Its id carries the
// temp prefix and the row is replaced by backend state on the next fetch.
// It returns the assigned id.
func (s *NotificationsStore) AddLocal(kind, title string, body *string) string {
	n := domain.Notification{
		ID:        s.newID(),
		UserID:    s.identity.UserID(),
		Kind:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: s.now(),
	}
	s.mu.Lock()
	s.items = append([]domain.Notification{n}, s.items...)
	s.mu.Unlock()
	return n.ID
}

// MarkRead flags one notification read. Temp rows flip locally only; backend
// rows flip optimistically and roll back when the write fails. It reports
// whether the notification is now read.
func (s *NotificationsStore) MarkRead(ctx context.Context, id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	wasRead := s.items[i].IsRead
	s.items[i].IsRead = true
	s.mu.Unlock()

	if strings.HasPrefix(id, domain.TempIDPrefix) {
		return true
	}

	res := s.notifications.MarkRead(ctx, id, s.identity.UserID())
	if !res.Success {
		s.mu.Lock()
		if j := s.indexOf(id); j >= 0 {
			s.items[j].IsRead = wasRead
		}
		s.st.lastErr = res.Error
		s.mu.Unlock()
		return false
	}
	return true
}

// MarkAllRead flags every notification read, optimistically, rolling back
// the previously unread rows when the backend write fails.
func (s *NotificationsStore) MarkAllRead(ctx context.Context) bool {
	s.mu.Lock()
	prevUnread := make(map[string]struct{})
	for i := range s.items {
		if !s.items[i].IsRead {
			prevUnread[s.items[i].ID] = struct{}{}
			s.items[i].IsRead = true
		}
	}
	s.mu.Unlock()
	if len(prevUnread) == 0 {
		return true
	}

	res := s.notifications.MarkAllRead(ctx, s.identity.UserID())
	if !res.Success {
		s.mu.Lock()
		for i := range s.items {
			if _, was := prevUnread[s.items[i].ID]; was {
				s.items[i].IsRead = false
			}
		}
		s.st.lastErr = res.Error
		s.mu.Unlock()
		return false
	}
	return true
}

// indexOf must be called with mu held.
func (s *NotificationsStore) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Notifications returns a copy of the current list, newest first.
func (s *NotificationsStore) Notifications() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Notification, len(s.items))
	copy(out, s.items)
	return out
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationsStore) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.items {
		if !s.items[i].IsRead {
			n++
		}
	}
	return n
}

// IsStale reports whether the list needs a refresh.
func (s *NotificationsStore) IsStale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.stale(s.ttl, s.now())
}

// Err returns the last fetch or write error message.
func (s *NotificationsStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.lastErr
}

// Clear drops all notification state. Wired to UserStore.OnSignOut.
func (s *NotificationsStore) Clear() {
	s.mu.Lock()
	s.items = nil
	s.st.reset()
	s.mu.Unlock()
}
