package session

import (
	"context"

	"github.com/sellexa/go-marketplace-backend/internal/domain"
	"github.com/sellexa/go-marketplace-backend/internal/store"
)

// SavesBinding attaches save-button state to a product: binding fetches the
// projection once, and toggling delegates to the store's guarded optimistic
// toggle.
type SavesBinding struct {
	saves     *store.SavesStore
	productID string
}

// BindSaves returns a binding for one product and kicks off the initial
// projection fetch.
func BindSaves(ctx context.Context, saves *store.SavesStore, productID string) *SavesBinding {
	b := &SavesBinding{saves: saves, productID: productID}
	// Best effort: a failed fetch leaves the zero projection and records
	// the error on the store.
	_ = b.saves.FetchSaveData(ctx, productID)
	return b
}

// Data returns the current projection.
func (b *SavesBinding) Data() domain.SaveData {
	return b.saves.SaveData(b.productID)
}

// Toggle flips the saved state, reporting whether it took effect.
func (b *SavesBinding) Toggle(ctx context.Context) bool {
	return b.saves.ToggleSave(ctx, b.productID)
}

// Busy reports whether a fetch or toggle is in flight for the product.
func (b *SavesBinding) Busy() bool {
	return b.saves.IsLoading(b.productID)
}

// Err returns the last error recorded for the product.
func (b *SavesBinding) Err() string {
	return b.saves.Err(b.productID)
}
