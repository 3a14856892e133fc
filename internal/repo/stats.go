// Package repo — aggregate/statistics queries.
//
// This file provides small aggregate queries over the snapshot tables used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from stores or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sellexa/go-marketplace-backend/internal/domain"
)

// FeedStats returns aggregate metadata for the cached product feed: the
// total number of rows and the greatest FetchedAt timestamp among them.
// When the snapshot is empty, count is 0 and maxFetchedAt is nil.
func FeedStats(ctx context.Context, db *gorm.DB) (count int64, maxFetchedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.CachedProduct{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest fetched_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		FetchedAt time.Time
	}
	if err = q.Select("fetched_at").Order("fetched_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.FetchedAt, nil
}

// NotificationsStats returns aggregate metadata for a user's cached
// notifications: the total row count and the greatest CreatedAt timestamp.
// When the user has no cached rows, count is 0 and maxCreatedAt is nil.
func NotificationsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxCreatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.CachedNotification{}).Where("user_id = ?", userID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
