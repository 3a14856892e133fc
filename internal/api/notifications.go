// Package api — notifications module.
package api

import (
	"context"

	"github.com/sellexa/go-marketplace-backend/internal/cache"
	"github.com/sellexa/go-marketplace-backend/internal/domain"
	"github.com/sellexa/go-marketplace-backend/internal/supabase"
)

// Notifications is the notification API module.
type Notifications struct {
	Cache   *cache.Cache
	Gateway supabase.Notifications
}

// List returns the user's notifications newest-first, served from cache
// within the TTL.
func (a *Notifications) List(ctx context.Context, userID string) Result[[]domain.Notification] {
	out, err := cache.Request(ctx, a.Cache, notificationsKey(userID), func(ctx context.Context) ([]domain.Notification, error) {
		return a.Gateway.List(ctx, userID)
	}, true)
	if err != nil {
		return Err[[]domain.Notification](err)
	}
	return OK(out)
}

// MarkRead flags one notification read and invalidates the user's list.
func (a *Notifications) MarkRead(ctx context.Context, notificationID, userID string) Result[bool] {
	if err := a.Gateway.MarkRead(ctx, notificationID, userID); err != nil {
		return Err[bool](err)
	}
	a.Cache.Clear(notificationsKey(userID))
	return OK(true)
}

// MarkAllRead flags every unread notification read and invalidates the list.
func (a *Notifications) MarkAllRead(ctx context.Context, userID string) Result[bool] {
	if err := a.Gateway.MarkAllRead(ctx, userID); err != nil {
		return Err[bool](err)
	}
	a.Cache.Clear(notificationsKey(userID))
	return OK(true)
}
