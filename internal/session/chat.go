// Package session binds the domain stores into per-surface workflows: the
// chat overlay, the save button, and the live search box. Each session owns
// the call ordering a surface needs (load, subscribe, mark read, tear down)
// so callers only express intent.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/sellexa/go-marketplace-backend/internal/store"
)

// typingThrottle is the minimum interval between typing-state writes while
// the user keeps typing.
const typingThrottle = 3 * time.Second

// ChatSession drives the chat overlay: opening it loads conversations,
// opening a thread wires message history, realtime delivery, and read
// receipts together, and closing tears the thread state down again.
type ChatSession struct {
	chat *store.ChatStore

	mu         sync.Mutex
	openThread string
	lastTyping time.Time
	now        func() time.Time
}

// NewChatSession returns a session over the chat store.
func NewChatSession(chat *store.ChatStore) *ChatSession {
	return &ChatSession{chat: chat, now: time.Now}
}

// Open prepares the overlay: the conversation list is loaded (or refreshed
// when stale).
func (s *ChatSession) Open(ctx context.Context) error {
	return s.chat.LoadConversations(ctx)
}

// OpenThread focuses one conversation: history loads, live delivery starts,
// and the thread is marked read. Opening the already-open thread only
// refreshes history.
func (s *ChatSession) OpenThread(ctx context.Context, threadID string) error {
	s.mu.Lock()
	prev := s.openThread
	s.openThread = threadID
	s.mu.Unlock()

	if prev != "" && prev != threadID {
		s.chat.SetTyping(ctx, prev, false)
	}

	s.chat.SetCurrentThread(threadID)
	s.chat.SubscribeThread(ctx, threadID)
	if err := s.chat.LoadMessages(ctx, threadID); err != nil {
		return err
	}
	s.chat.MarkAsRead(ctx, threadID)
	s.chat.FetchTyping(ctx, threadID)
	return nil
}

// CloseThread unfocuses the current conversation. Live delivery stays
// subscribed so background unread counts keep accruing.
func (s *ChatSession) CloseThread(ctx context.Context) {
	s.mu.Lock()
	prev := s.openThread
	s.openThread = ""
	s.mu.Unlock()

	if prev != "" {
		s.chat.SetTyping(ctx, prev, false)
	}
	s.chat.SetCurrentThread("")
}

// Send sends a message in the open thread and clears the caller's typing
// state.
func (s *ChatSession) Send(ctx context.Context, body string) error {
	s.mu.Lock()
	threadID := s.openThread
	s.mu.Unlock()
	if threadID == "" {
		return store.ErrThreadNotFound
	}
	_, err := s.chat.SendMessage(ctx, threadID, body)
	if err == nil {
		s.chat.SetTyping(ctx, threadID, false)
		s.mu.Lock()
		s.lastTyping = time.Time{}
		s.mu.Unlock()
	}
	return err
}

// Typing reports keystroke activity. Writes are throttled so a steadily
// typing user produces one backend write per throttle window.
func (s *ChatSession) Typing(ctx context.Context) {
	s.mu.Lock()
	threadID := s.openThread
	due := s.lastTyping.IsZero() || s.now().Sub(s.lastTyping) >= typingThrottle
	if due {
		s.lastTyping = s.now()
	}
	s.mu.Unlock()

	if threadID == "" || !due {
		return
	}
	s.chat.SetTyping(ctx, threadID, true)
}

// OpenThreadID returns the focused thread id, or "".
func (s *ChatSession) OpenThreadID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openThread
}
