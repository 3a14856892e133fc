// Package api — chat module.
//
// Wraps the Messages, Typing, and Reactions gateways. Message lists are
// cached per thread; typing indicators are ephemeral and never cached;
// reactions are cached per message. Sends, reads, and reaction changes
// invalidate the keys they touched plus the conversation projections that
// display them.
package api

import (
	"context"

	"github.com/sellexa/go-marketplace-backend/internal/cache"
	"github.com/sellexa/go-marketplace-backend/internal/domain"
	"github.com/sellexa/go-marketplace-backend/internal/supabase"
)

// Chat is the messaging API module.
type Chat struct {
	Cache     *cache.Cache
	Messages  supabase.Messages
	Typing    supabase.Typing
	Reactions supabase.Reactions
}

// ListMessages returns a thread's messages oldest-first, served from cache
// within the cache TTL.
func (a *Chat) ListMessages(ctx context.Context, threadID string) Result[[]domain.Message] {
	out, err := cache.Request(ctx, a.Cache, messagesKey(threadID), func(ctx context.Context) ([]domain.Message, error) {
		return a.Messages.List(ctx, threadID)
	}, true)
	if err != nil {
		return Err[[]domain.Message](err)
	}
	return OK(out)
}

// GetMessage fetches one message with its sender profile, bypassing the
// cache. This is the enrichment fetch behind realtime inserts.
func (a *Chat) GetMessage(ctx context.Context, messageID string) Result[*domain.Message] {
	m, err := a.Messages.Get(ctx, messageID)
	if err != nil {
		return Err[*domain.Message](err)
	}
	return OK(m)
}

// SendMessage appends a message to a thread. On success the thread's message
// list and both sides' conversation projections are invalidated.
func (a *Chat) SendMessage(ctx context.Context, threadID, senderID, body string) Result[*domain.Message] {
	m, err := a.Messages.Send(ctx, threadID, senderID, body)
	if err != nil {
		return Err[*domain.Message](err)
	}
	a.Cache.Clear(messagesKey(threadID))
	a.Cache.Clear(conversationsKey(senderID))
	a.Cache.Clear(conversationKey(threadID, senderID))
	return OK(m)
}

// MarkMessagesAsRead marks a thread read for userID and invalidates the
// affected read models.
func (a *Chat) MarkMessagesAsRead(ctx context.Context, threadID, userID string) Result[bool] {
	if err := a.Messages.MarkRead(ctx, threadID, userID); err != nil {
		return Err[bool](err)
	}
	a.Cache.Clear(messagesKey(threadID))
	a.Cache.Clear(conversationsKey(userID))
	a.Cache.Clear(conversationKey(threadID, userID))
	return OK(true)
}

// TypingIndicators returns who is typing in a thread right now. Never cached.
func (a *Chat) TypingIndicators(ctx context.Context, threadID, userID string) Result[[]domain.TypingIndicator] {
	out, err := a.Typing.Indicators(ctx, threadID, userID)
	if err != nil {
		return Err[[]domain.TypingIndicator](err)
	}
	return OK(out)
}

// SetTyping records or clears the caller's typing state. Never cached.
func (a *Chat) SetTyping(ctx context.Context, threadID, userID string, typing bool) Result[bool] {
	if err := a.Typing.Set(ctx, threadID, userID, typing); err != nil {
		return Err[bool](err)
	}
	return OK(true)
}

// ListReactions returns the reactions on a message, cached per message.
func (a *Chat) ListReactions(ctx context.Context, messageID string) Result[[]domain.MessageReaction] {
	out, err := cache.Request(ctx, a.Cache, reactionsKey(messageID), func(ctx context.Context) ([]domain.MessageReaction, error) {
		return a.Reactions.List(ctx, messageID)
	}, true)
	if err != nil {
		return Err[[]domain.MessageReaction](err)
	}
	return OK(out)
}

// AddReaction attaches an emoji reaction to a message.
func (a *Chat) AddReaction(ctx context.Context, messageID, userID, emoji string) Result[*domain.MessageReaction] {
	rx, err := a.Reactions.Add(ctx, messageID, userID, emoji)
	if err != nil {
		return Err[*domain.MessageReaction](err)
	}
	a.Cache.Clear(reactionsKey(messageID))
	return OK(rx)
}

// RemoveReaction detaches an emoji reaction from a message.
func (a *Chat) RemoveReaction(ctx context.Context, messageID, userID, emoji string) Result[bool] {
	if err := a.Reactions.Remove(ctx, messageID, userID, emoji); err != nil {
		return Err[bool](err)
	}
	a.Cache.Clear(reactionsKey(messageID))
	return OK(true)
}
