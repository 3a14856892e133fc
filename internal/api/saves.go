// Package api — saves module.
package api

import (
	"context"

	"github.com/sellexa/go-marketplace-backend/internal/cache"
	"github.com/sellexa/go-marketplace-backend/internal/domain"
	"github.com/sellexa/go-marketplace-backend/internal/supabase"
)

// Saves is the product-saves API module.
type Saves struct {
	Cache   *cache.Cache
	Gateway supabase.Saves
}

// Data returns the save projection (count + viewer boolean) for one product,
// cached per (product, viewer) pair. The two aggregate RPCs are combined into
// one projection here.
func (a *Saves) Data(ctx context.Context, productID, userID string) Result[domain.SaveData] {
	out, err := cache.Request(ctx, a.Cache, saveKey(productID, userID), func(ctx context.Context) (domain.SaveData, error) {
		count, err := a.Gateway.Count(ctx, productID)
		if err != nil {
			return domain.SaveData{}, err
		}
		saved := false
		if userID != "" {
			saved, err = a.Gateway.IsSaved(ctx, productID, userID)
			if err != nil {
				return domain.SaveData{}, err
			}
		}
		return domain.SaveData{ProductID: productID, SaveCount: count, IsSaved: saved}, nil
	}, true)
	if err != nil {
		return Err[domain.SaveData](err)
	}
	return OK(out)
}

// Save inserts the viewer's save row and invalidates the pair's projection.
func (a *Saves) Save(ctx context.Context, productID, userID string) Result[bool] {
	if err := a.Gateway.Insert(ctx, productID, userID); err != nil {
		return Err[bool](err)
	}
	a.Cache.Clear(saveKey(productID, userID))
	return OK(true)
}

// Unsave removes the viewer's save row and invalidates the pair's projection.
func (a *Saves) Unsave(ctx context.Context, productID, userID string) Result[bool] {
	if err := a.Gateway.Delete(ctx, productID, userID); err != nil {
		return Err[bool](err)
	}
	a.Cache.Clear(saveKey(productID, userID))
	return OK(true)
}
