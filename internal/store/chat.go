package store

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sellexa/go-marketplace-backend/internal/api"
	"github.com/sellexa/go-marketplace-backend/internal/domain"
	"github.com/sellexa/go-marketplace-backend/internal/realtime"
	"github.com/sellexa/go-marketplace-backend/internal/search"
	"github.com/sellexa/go-marketplace-backend/internal/supabase"
)

// ConversationsTTL is the freshness window for the conversation list.
const ConversationsTTL = 2 * time.Minute

// MaxMessageRunes caps outgoing message bodies.
const MaxMessageRunes = 2000

// enrichTimeout bounds the profile-enrichment fetch behind a realtime insert.
const enrichTimeout = 10 * time.Second

// ChatStore owns the messaging overlay state: the conversation list, the
// per-thread message histories, the currently open thread, typing
// indicators, and the realtime subscriptions feeding them. Unlike the other
// stores it is never persisted locally: message history is always served
// from the backend so a shared device never leaks a previous user's chats.
//
// Observability: the fetch and send paths are OpenTelemetry-instrumented;
// spans carry thread and user ids.
type ChatStore struct {
	chat     *api.Chat
	convs    *api.Conversations
	identity Identity
	rt       supabase.Realtime
	guard    *inflight

	mu            sync.Mutex
	conversations []domain.Conversation
	messages      map[string][]domain.Message
	msgFetched    map[string]time.Time
	msgErrs       map[string]string
	typing        map[string][]domain.TypingIndicator
	currentThread string
	unsubs        map[string]func()
	st            fetchState
	ttl           time.Duration
	now           func() time.Time
}

// NewChatStore wires the chat store to its API modules and the realtime
// fan-out. rt may be nil, which disables live message delivery.
func NewChatStore(chat *api.Chat, convs *api.Conversations, identity Identity, rt supabase.Realtime) *ChatStore {
	return &ChatStore{
		chat:       chat,
		convs:      convs,
		identity:   identity,
		rt:         rt,
		guard:      newInflight(),
		messages:   make(map[string][]domain.Message),
		msgFetched: make(map[string]time.Time),
		msgErrs:    make(map[string]string),
		typing:     make(map[string][]domain.TypingIndicator),
		unsubs:     make(map[string]func()),
		ttl:        ConversationsTTL,
		now:        time.Now,
	}
}

// LoadConversations fetches the conversation list when it is stale.
// Signed-out callers, in-flight fetches, and fresh lists are no-ops.
func (s *ChatStore) LoadConversations(ctx context.Context) error {
	uid := s.identity.UserID()
	if uid == "" {
		return nil
	}

	tr := otel.Tracer("store/ChatStore")
	ctx, span := tr.Start(ctx, "LoadConversations",
		trace.WithAttributes(attribute.String("user.id", uid)),
	)
	defer span.End()

	s.mu.Lock()
	if !s.st.admit(s.ttl, s.now()) {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	res := s.convs.List(ctx, uid)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !res.Success {
		s.st.fail(res.Error)
		return nil
	}
	s.conversations = res.Data
	s.st.succeed(s.now())
	return nil
}

// Conversations returns a copy of the current list. Archived conversations
// are included; callers filter for display.
func (s *ChatStore) Conversations() []domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// Conversation returns one conversation by thread id.
func (s *ChatStore) Conversation(threadID string) (domain.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.convIndex(threadID)
	if i < 0 {
		return domain.Conversation{}, false
	}
	return s.conversations[i], true
}

// SetCurrentThread switches the open thread. Realtime delivery for the
// previous thread stays subscribed; only the unread attribution changes.
// An empty id means no thread is open.
func (s *ChatStore) SetCurrentThread(threadID string) {
	s.mu.Lock()
	s.currentThread = threadID
	s.mu.Unlock()
}

// CurrentThread returns the open thread id, or "".
func (s *ChatStore) CurrentThread() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentThread
}

// LoadMessages fetches a thread's history when it is stale. Per-thread
// fetches are single-flight: a second call for the same thread while the
// first is outstanding is a no-op.
func (s *ChatStore) LoadMessages(ctx context.Context, threadID string) error {
	uid := s.identity.UserID()
	if uid == "" {
		return nil
	}

	s.mu.Lock()
	if at, ok := s.msgFetched[threadID]; ok && s.now().Sub(at) < s.ttl && s.msgErrs[threadID] == "" {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if !s.guard.begin("messages:" + threadID) {
		return nil
	}
	defer s.guard.end("messages:" + threadID)

	tr := otel.Tracer("store/ChatStore")
	ctx, span := tr.Start(ctx, "LoadMessages",
		trace.WithAttributes(
			attribute.String("thread.id", threadID),
			attribute.String("user.id", uid),
		),
	)
	defer span.End()

	res := s.chat.ListMessages(ctx, threadID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !res.Success {
		s.msgErrs[threadID] = res.Error
		return nil
	}
	s.messages[threadID] = res.Data
	s.msgFetched[threadID] = s.now()
	delete(s.msgErrs, threadID)
	return nil
}

// Messages returns a copy of a thread's history, oldest first.
func (s *ChatStore) Messages(threadID string) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.messages[threadID]
	out := make([]domain.Message, len(src))
	copy(out, src)
	return out
}

// SendMessage appends a message to a thread. The local history gains the
// backend-confirmed row immediately, without waiting for a re-fetch, and
// the conversation preview is updated in place. Validation failures and
// backend errors return the sentinel or gateway error; signed-out callers
// get ErrNoUser.
func (s *ChatStore) SendMessage(ctx context.Context, threadID, body string) (*domain.Message, error) {
	uid := s.identity.UserID()
	if uid == "" {
		return nil, ErrNoUser
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	if utf8.RuneCountInString(body) > MaxMessageRunes {
		return nil, ErrTooLong
	}

	tr := otel.Tracer("store/ChatStore")
	ctx, span := tr.Start(ctx, "SendMessage",
		trace.WithAttributes(
			attribute.String("thread.id", threadID),
			attribute.String("user.id", uid),
		),
	)
	defer span.End()

	res := s.chat.SendMessage(ctx, threadID, uid, body)
	if !res.Success {
		s.mu.Lock()
		s.msgErrs[threadID] = res.Error
		s.mu.Unlock()
		return nil, &supabase.Error{Message: res.Error}
	}

	s.mu.Lock()
	s.appendMessage(*res.Data, false)
	s.mu.Unlock()
	return res.Data, nil
}

// MarkAsRead zeroes a conversation's unread count optimistically and tells
// the backend. A failed write restores the previous count. It reports
// whether the thread is now read.
func (s *ChatStore) MarkAsRead(ctx context.Context, threadID string) bool {
	uid := s.identity.UserID()
	if uid == "" {
		return false
	}

	s.mu.Lock()
	i := s.convIndex(threadID)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	prev := s.conversations[i].UnreadCount
	s.conversations[i].UnreadCount = 0
	s.mu.Unlock()
	if prev == 0 {
		return true
	}

	res := s.chat.MarkMessagesAsRead(ctx, threadID, uid)
	if !res.Success {
		s.mu.Lock()
		if j := s.convIndex(threadID); j >= 0 {
			s.conversations[j].UnreadCount = prev
		}
		s.mu.Unlock()
		return false
	}
	return true
}

// UnreadTotal sums unread counts over non-muted conversations.
func (s *ChatStore) UnreadTotal() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.conversations {
		if !s.conversations[i].IsMuted {
			n += s.conversations[i].UnreadCount
		}
	}
	return n
}

// StartThread opens (or reuses) a buyer–seller channel for a product and
// refreshes the conversation list on the next load.
func (s *ChatStore) StartThread(ctx context.Context, productID, sellerID string) (*domain.Thread, error) {
	uid := s.identity.UserID()
	if uid == "" {
		return nil, ErrNoUser
	}
	res := s.convs.StartThread(ctx, productID, uid, sellerID)
	if !res.Success {
		return nil, &supabase.Error{Message: res.Error}
	}
	s.mu.Lock()
	s.st.reset()
	s.mu.Unlock()
	return res.Data, nil
}

// ToggleArchive flips a conversation's archived flag optimistically,
// rolling back when the backend write fails.
func (s *ChatStore) ToggleArchive(ctx context.Context, threadID string) bool {
	return s.toggleFlag(ctx, threadID, "archive")
}

// ToggleMute flips a conversation's muted flag optimistically, rolling back
// when the backend write fails.
func (s *ChatStore) ToggleMute(ctx context.Context, threadID string) bool {
	return s.toggleFlag(ctx, threadID, "mute")
}

func (s *ChatStore) toggleFlag(ctx context.Context, threadID, which string) bool {
	uid := s.identity.UserID()
	if uid == "" {
		return false
	}

	s.mu.Lock()
	i := s.convIndex(threadID)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	var next bool
	if which == "archive" {
		next = !s.conversations[i].IsArchived
		s.conversations[i].IsArchived = next
	} else {
		next = !s.conversations[i].IsMuted
		s.conversations[i].IsMuted = next
	}
	s.mu.Unlock()

	var res api.Result[bool]
	if which == "archive" {
		res = s.convs.SetArchived(ctx, threadID, uid, next)
	} else {
		res = s.convs.SetMuted(ctx, threadID, uid, next)
	}
	if !res.Success {
		s.mu.Lock()
		if j := s.convIndex(threadID); j >= 0 {
			if which == "archive" {
				s.conversations[j].IsArchived = !next
			} else {
				s.conversations[j].IsMuted = !next
			}
		}
		s.mu.Unlock()
		return false
	}
	return true
}

// FetchTyping refreshes the ephemeral typing indicators for a thread.
func (s *ChatStore) FetchTyping(ctx context.Context, threadID string) {
	uid := s.identity.UserID()
	if uid == "" {
		return
	}
	res := s.chat.TypingIndicators(ctx, threadID, uid)
	if !res.Success {
		return
	}
	s.mu.Lock()
	s.typing[threadID] = res.Data
	s.mu.Unlock()
}

// Typing returns who is currently typing in a thread.
func (s *ChatStore) Typing(threadID string) []domain.TypingIndicator {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.typing[threadID]
	out := make([]domain.TypingIndicator, len(src))
	copy(out, src)
	return out
}

// SetTyping records or clears the caller's typing state for a thread.
func (s *ChatStore) SetTyping(ctx context.Context, threadID string, typing bool) {
	uid := s.identity.UserID()
	if uid == "" {
		return
	}
	s.chat.SetTyping(ctx, threadID, uid, typing)
}

// Reactions returns the emoji reactions attached to a message.
func (s *ChatStore) Reactions(ctx context.Context, messageID string) ([]domain.MessageReaction, error) {
	res := s.chat.ListReactions(ctx, messageID)
	if !res.Success {
		return nil, &supabase.Error{Message: res.Error}
	}
	return res.Data, nil
}

// AddReaction attaches an emoji reaction to a message on behalf of the
// current user.
func (s *ChatStore) AddReaction(ctx context.Context, messageID, emoji string) (*domain.MessageReaction, error) {
	uid := s.identity.UserID()
	if uid == "" {
		return nil, ErrNoUser
	}
	res := s.chat.AddReaction(ctx, messageID, uid, emoji)
	if !res.Success {
		return nil, &supabase.Error{Message: res.Error}
	}
	return res.Data, nil
}

// RemoveReaction detaches one of the current user's reactions from a message.
func (s *ChatStore) RemoveReaction(ctx context.Context, messageID, emoji string) error {
	uid := s.identity.UserID()
	if uid == "" {
		return ErrNoUser
	}
	res := s.chat.RemoveReaction(ctx, messageID, uid, emoji)
	if !res.Success {
		return &supabase.Error{Message: res.Error}
	}
	return nil
}

// SearchConversations ranks conversations against query by product title,
// counterpart name, and last message preview.
func (s *ChatStore) SearchConversations(query string, limit int) []domain.Conversation {
	s.mu.Lock()
	docs := make([]search.Doc, 0, len(s.conversations))
	byThread := make(map[string]domain.Conversation, len(s.conversations))
	for _, c := range s.conversations {
		docs = append(docs, search.Doc{
			ID:   c.ThreadID,
			Text: search.ConversationText(c.ProductTitle, c.OtherUserName, c.LastMessageBody),
		})
		byThread[c.ThreadID] = c
	}
	s.mu.Unlock()

	hits := search.NewIndex(docs).TopK(query, limit)
	out := make([]domain.Conversation, 0, len(hits))
	for _, h := range hits {
		out = append(out, byThread[h.ID])
	}
	return out
}

// SubscribeThread starts live message delivery for a thread. Inserted rows
// arrive without their sender profile, so each one is enriched with a
// by-id fetch before it is appended. Duplicate subscriptions are no-ops.
func (s *ChatStore) SubscribeThread(ctx context.Context, threadID string) {
	if s.rt == nil {
		return
	}
	s.mu.Lock()
	if _, ok := s.unsubs[threadID]; ok {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	unsub := s.rt.Subscribe("messages", "thread_id=eq."+threadID, func(ev realtime.Event) {
		s.handleMessageEvent(ctx, threadID, ev)
	})

	s.mu.Lock()
	s.unsubs[threadID] = unsub
	s.mu.Unlock()
}

// UnsubscribeThread stops live delivery for a thread.
func (s *ChatStore) UnsubscribeThread(threadID string) {
	s.mu.Lock()
	unsub := s.unsubs[threadID]
	delete(s.unsubs, threadID)
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// handleMessageEvent is the enrich-then-append pipeline behind realtime
// inserts: fetch the full row (with sender profile), drop events for rows
// already present, then fold the message into history and the conversation
// preview.
func (s *ChatStore) handleMessageEvent(ctx context.Context, threadID string, ev realtime.Event) {
	if ev.Type != realtime.EventInsert || ev.RecordID == "" {
		return
	}

	ectx, cancel := context.WithTimeout(ctx, enrichTimeout)
	defer cancel()
	res := s.chat.GetMessage(ectx, ev.RecordID)
	if !res.Success || res.Data == nil {
		log.Warn().
			Str("thread_id", threadID).
			Str("message_id", ev.RecordID).
			Str("error", res.Error).
			Msg("realtime enrichment fetch failed, dropping event")
		return
	}
	m := *res.Data
	if m.ThreadID != threadID {
		return
	}

	s.mu.Lock()
	s.appendMessage(m, true)
	s.mu.Unlock()
}

// appendMessage must be called with mu held. It deduplicates by message id,
// updates the conversation preview, and attributes unread counts: only
// messages from the counterpart, arriving via realtime for a thread that is
// not currently open, increment unread.
func (s *ChatStore) appendMessage(m domain.Message, fromRealtime bool) {
	hist := s.messages[m.ThreadID]
	for i := range hist {
		if hist[i].ID == m.ID {
			return
		}
	}
	s.messages[m.ThreadID] = append(hist, m)

	i := s.convIndex(m.ThreadID)
	if i < 0 {
		// Unknown conversation (first message on a brand-new thread): force
		// the next LoadConversations to hit the backend.
		s.st.reset()
		return
	}
	body := m.Body
	at := m.CreatedAt
	s.conversations[i].LastMessageBody = &body
	s.conversations[i].LastMessageAt = &at
	s.conversations[i].UpdatedAt = at
	if fromRealtime && m.SenderID != s.identity.UserID() && m.ThreadID != s.currentThread {
		s.conversations[i].UnreadCount++
	}
	// Most recently active conversation surfaces first.
	if i > 0 {
		c := s.conversations[i]
		copy(s.conversations[1:i+1], s.conversations[0:i])
		s.conversations[0] = c
	}
}

// convIndex must be called with mu held.
func (s *ChatStore) convIndex(threadID string) int {
	for i := range s.conversations {
		if s.conversations[i].ThreadID == threadID {
			return i
		}
	}
	return -1
}

// MessagesErr returns the last per-thread fetch or send error message.
func (s *ChatStore) MessagesErr(threadID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msgErrs[threadID]
}

// IsStale reports whether the conversation list needs a refresh.
func (s *ChatStore) IsStale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.stale(s.ttl, s.now())
}

// Clear drops every piece of chat state and tears down all realtime
// subscriptions. Wired to UserStore.OnSignOut.
func (s *ChatStore) Clear() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.conversations = nil
	s.messages = make(map[string][]domain.Message)
	s.msgFetched = make(map[string]time.Time)
	s.msgErrs = make(map[string]string)
	s.typing = make(map[string][]domain.TypingIndicator)
	s.currentThread = ""
	s.unsubs = make(map[string]func())
	s.st.reset()
	s.mu.Unlock()
	for _, unsub := range unsubs {
		unsub()
	}
}
