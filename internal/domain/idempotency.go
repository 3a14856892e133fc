// Package domain — idempotency records.
package domain

import "time"

// Idempotency represents a recorded result of a previously processed send,
// keyed by (user_id, thread_id, key). It enables safe retries for message
// POSTs by returning the originally produced message without re-executing
// side effects.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_thread_key,priority:1"`
	ThreadID  string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_thread_key,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_thread_key,priority:3"`
	MessageID string    `gorm:"type:TEXT NOT NULL"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
