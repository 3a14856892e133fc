// Package api — conversations module.
package api

import (
	"context"

	"github.com/sellexa/go-marketplace-backend/internal/cache"
	"github.com/sellexa/go-marketplace-backend/internal/domain"
	"github.com/sellexa/go-marketplace-backend/internal/supabase"
)

// Conversations is the conversation-projection API module.
type Conversations struct {
	Cache   *cache.Cache
	Gateway supabase.Conversations
}

// List returns the user's conversations, served from cache within the TTL.
func (a *Conversations) List(ctx context.Context, userID string) Result[[]domain.Conversation] {
	out, err := cache.Request(ctx, a.Cache, conversationsKey(userID), func(ctx context.Context) ([]domain.Conversation, error) {
		return a.Gateway.List(ctx, userID)
	}, true)
	if err != nil {
		return Err[[]domain.Conversation](err)
	}
	return OK(out)
}

// Get returns one conversation projection for a thread as seen by userID.
func (a *Conversations) Get(ctx context.Context, threadID, userID string) Result[*domain.Conversation] {
	out, err := cache.Request(ctx, a.Cache, conversationKey(threadID, userID), func(ctx context.Context) (*domain.Conversation, error) {
		return a.Gateway.Get(ctx, threadID, userID)
	}, true)
	if err != nil {
		return Err[*domain.Conversation](err)
	}
	return OK(out)
}

// StartThread opens a buyer–seller channel for a product and invalidates the
// buyer's conversation list.
func (a *Conversations) StartThread(ctx context.Context, productID, buyerID, sellerID string) Result[*domain.Thread] {
	th, err := a.Gateway.CreateThread(ctx, productID, buyerID, sellerID)
	if err != nil {
		return Err[*domain.Thread](err)
	}
	a.Cache.Clear(conversationsKey(buyerID))
	a.Cache.Clear(conversationsKey(sellerID))
	return OK(th)
}

// SetArchived flips the archived flag and invalidates the affected keys.
func (a *Conversations) SetArchived(ctx context.Context, threadID, userID string, archived bool) Result[bool] {
	if err := a.Gateway.SetArchived(ctx, threadID, userID, archived); err != nil {
		return Err[bool](err)
	}
	a.Cache.Clear(conversationsKey(userID))
	a.Cache.Clear(conversationKey(threadID, userID))
	return OK(true)
}

// SetMuted flips the muted flag and invalidates the affected keys.
func (a *Conversations) SetMuted(ctx context.Context, threadID, userID string, muted bool) Result[bool] {
	if err := a.Gateway.SetMuted(ctx, threadID, userID, muted); err != nil {
		return Err[bool](err)
	}
	a.Cache.Clear(conversationsKey(userID))
	a.Cache.Clear(conversationKey(threadID, userID))
	return OK(true)
}
