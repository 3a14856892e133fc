// Package api — products module.
package api

import (
	"context"

	"github.com/sellexa/go-marketplace-backend/internal/cache"
	"github.com/sellexa/go-marketplace-backend/internal/domain"
	"github.com/sellexa/go-marketplace-backend/internal/supabase"
)

// Products is the catalogue API module.
type Products struct {
	Cache   *cache.Cache
	Gateway supabase.Products

	// FeedLimit caps the feed fetch; zero selects the gateway default.
	FeedLimit int
}

// Feed returns the newest active products, served from cache within the TTL.
func (a *Products) Feed(ctx context.Context) Result[[]domain.Product] {
	out, err := cache.Request(ctx, a.Cache, feedKey(), func(ctx context.Context) ([]domain.Product, error) {
		return a.Gateway.Feed(ctx, a.FeedLimit)
	}, true)
	if err != nil {
		return Err[[]domain.Product](err)
	}
	return OK(out)
}

// Get returns one product by id, cached per product.
func (a *Products) Get(ctx context.Context, productID string) Result[*domain.Product] {
	out, err := cache.Request(ctx, a.Cache, productKey(productID), func(ctx context.Context) (*domain.Product, error) {
		return a.Gateway.Get(ctx, productID)
	}, true)
	if err != nil {
		return Err[*domain.Product](err)
	}
	return OK(out)
}
