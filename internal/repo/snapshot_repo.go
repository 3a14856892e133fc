// Package repo — snapshot repository functions.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. The snapshot tables are a cache of
// backend state, so writes replace wholesale rather than merge, and reads
// tolerate missing rows.
//
// Error semantics:
//   - When a row is not found, read functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound) or an empty slice, as noted.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sellexa/go-marketplace-backend/internal/domain"
)

// sessionRowID is the primary key of the single persisted session row.
const sessionRowID = "current"

// SaveSession upserts the signed-in user.
func SaveSession(ctx context.Context, db *gorm.DB, u domain.User) error {
	row := domain.SessionRow{
		ID:        sessionRowID,
		UserID:    u.ID,
		Email:     u.Email,
		UpdatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

// LoadSession returns the persisted user, or ErrNotFound when no session
// row exists.
func LoadSession(ctx context.Context, db *gorm.DB) (*domain.User, error) {
	var row domain.SessionRow
	err := db.WithContext(ctx).Where("id = ?", sessionRowID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &domain.User{ID: row.UserID, Email: row.Email}, nil
}

// ClearSession deletes the persisted session row, if any.
func ClearSession(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).
		Where("id = ?", sessionRowID).
		Delete(&domain.SessionRow{}).Error
}

// ReplaceFeed swaps the cached product feed for the given products in one
// transaction. FetchedAt is stamped now for every row.
func ReplaceFeed(ctx context.Context, db *gorm.DB, products []domain.Product) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.CachedProduct{}).Error; err != nil {
			return err
		}
		if len(products) == 0 {
			return nil
		}
		rows := make([]domain.CachedProduct, 0, len(products))
		for _, p := range products {
			rows = append(rows, domain.CachedProduct{
				ID:         p.ID,
				VendorID:   p.VendorID,
				Title:      p.Title,
				PricePence: p.PricePence,
				Currency:   p.Currency,
				ImagePath:  p.ImagePath,
				Status:     p.Status,
				CreatedAt:  p.CreatedAt,
				FetchedAt:  now,
			})
		}
		return tx.Create(&rows).Error
	})
}

// LoadFeed returns the cached feed newest-first plus the snapshot's fetch
// time. An empty snapshot yields a nil slice and zero time, not an error.
func LoadFeed(ctx context.Context, db *gorm.DB) ([]domain.Product, time.Time, error) {
	var rows []domain.CachedProduct
	if err := db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, time.Time{}, err
	}
	if len(rows) == 0 {
		return nil, time.Time{}, nil
	}
	fetchedAt := rows[0].FetchedAt
	out := make([]domain.Product, 0, len(rows))
	for _, r := range rows {
		if r.FetchedAt.After(fetchedAt) {
			fetchedAt = r.FetchedAt
		}
		out = append(out, domain.Product{
			ID:         r.ID,
			VendorID:   r.VendorID,
			Title:      r.Title,
			PricePence: r.PricePence,
			Currency:   r.Currency,
			ImagePath:  r.ImagePath,
			Status:     r.Status,
			CreatedAt:  r.CreatedAt,
		})
	}
	return out, fetchedAt, nil
}

// UpsertSave writes one save projection row.
func UpsertSave(ctx context.Context, db *gorm.DB, s domain.SaveData) error {
	row := domain.CachedSave{
		ProductID: s.ProductID,
		SaveCount: s.SaveCount,
		IsSaved:   s.IsSaved,
		FetchedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

// LoadSaves returns every cached save projection.
func LoadSaves(ctx context.Context, db *gorm.DB) ([]domain.SaveData, error) {
	var rows []domain.CachedSave
	if err := db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.SaveData, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.SaveData{
			ProductID: r.ProductID,
			SaveCount: r.SaveCount,
			IsSaved:   r.IsSaved,
		})
	}
	return out, nil
}

// ReplaceNotifications swaps the cached notification list. Rows carrying the
// temp id prefix are skipped: they exist only in memory.
func ReplaceNotifications(ctx context.Context, db *gorm.DB, items []domain.Notification) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.CachedNotification{}).Error; err != nil {
			return err
		}
		rows := make([]domain.CachedNotification, 0, len(items))
		for _, n := range items {
			if len(n.ID) >= len(domain.TempIDPrefix) && n.ID[:len(domain.TempIDPrefix)] == domain.TempIDPrefix {
				continue
			}
			rows = append(rows, domain.CachedNotification{
				ID:        n.ID,
				UserID:    n.UserID,
				Kind:      n.Kind,
				Title:     n.Title,
				Body:      n.Body,
				IsRead:    n.IsRead,
				CreatedAt: n.CreatedAt,
				FetchedAt: now,
			})
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// LoadNotifications returns the cached notifications newest-first.
func LoadNotifications(ctx context.Context, db *gorm.DB) ([]domain.Notification, error) {
	var rows []domain.CachedNotification
	if err := db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Notification, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Notification{
			ID:        r.ID,
			UserID:    r.UserID,
			Kind:      r.Kind,
			Title:     r.Title,
			Body:      r.Body,
			IsRead:    r.IsRead,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

// SaveProfile upserts the viewer profile snapshot.
func SaveProfile(ctx context.Context, db *gorm.DB, p domain.Profile) error {
	row := domain.CachedProfile{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		IsVendor:    p.IsVendor,
		KYCStatus:   p.KYCStatus,
		FetchedAt:   time.Now().UTC(),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

// LoadProfile returns the cached profile for id plus its fetch time, or
// ErrNotFound.
func LoadProfile(ctx context.Context, db *gorm.DB, id string) (*domain.Profile, time.Time, error) {
	var row domain.CachedProfile
	err := db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, time.Time{}, ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	return &domain.Profile{
		ID:          row.ID,
		DisplayName: row.DisplayName,
		AvatarURL:   row.AvatarURL,
		IsVendor:    row.IsVendor,
		KYCStatus:   row.KYCStatus,
	}, row.FetchedAt, nil
}

// ClearSnapshots wipes every per-user snapshot table (saves, notifications,
// profile, session). The product feed is public and survives.
func ClearSnapshots(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.CachedSave{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&domain.CachedNotification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&domain.CachedProfile{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", sessionRowID).Delete(&domain.SessionRow{}).Error
	})
}
