// Package domain — local cache rows.
//
// These types are the GORM-mapped slices of store state that survive a
// process restart: the signed-in session, the product feed, save data,
// notifications, and the viewer profile. They are a cache, not a system of
// record — the backend rows are authoritative and every row here carries the
// FetchedAt timestamp of its last refresh. Conversation and message state is
// deliberately never persisted.
package domain

import "time"

// SessionRow persists the signed-in user across restarts. Exactly one row
// (ID "current") exists at a time; no tokens or secrets are stored.
type SessionRow struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    string    `gorm:"type:TEXT NOT NULL"`
	Email     string    `gorm:"type:TEXT NOT NULL"`
	UpdatedAt time.Time `gorm:"type:DATETIME NOT NULL"`
}

// TableName implements the GORM tabler interface.
func (SessionRow) TableName() string { return "session" }

// CachedProduct is one feed product as of its last fetch.
type CachedProduct struct {
	ID         string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	VendorID   string    `gorm:"type:TEXT NOT NULL;index"`
	Title      string    `gorm:"type:TEXT NOT NULL"`
	PricePence int64     `gorm:"type:INTEGER NOT NULL"`
	Currency   string    `gorm:"type:TEXT NOT NULL"`
	ImagePath  *string   `gorm:"type:TEXT"`
	Status     string    `gorm:"type:TEXT NOT NULL"`
	CreatedAt  time.Time `gorm:"type:DATETIME NOT NULL"`
	FetchedAt  time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (CachedProduct) TableName() string { return "cached_products" }

// CachedSave is the persisted save projection for one product.
type CachedSave struct {
	ProductID string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	SaveCount int       `gorm:"type:INTEGER NOT NULL"`
	IsSaved   bool      `gorm:"type:BOOLEAN NOT NULL"`
	FetchedAt time.Time `gorm:"type:DATETIME NOT NULL"`
}

// TableName implements the GORM tabler interface.
func (CachedSave) TableName() string { return "cached_saves" }

// CachedNotification is one notification row as of its last fetch. Rows with
// a TempIDPrefix id are never persisted.
type CachedNotification struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    string    `gorm:"type:TEXT NOT NULL;index"`
	Kind      string    `gorm:"type:TEXT NOT NULL"`
	Title     string    `gorm:"type:TEXT NOT NULL"`
	Body      *string   `gorm:"type:TEXT"`
	IsRead    bool      `gorm:"type:BOOLEAN NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL"`
	FetchedAt time.Time `gorm:"type:DATETIME NOT NULL"`
}

// TableName implements the GORM tabler interface.
func (CachedNotification) TableName() string { return "cached_notifications" }

// CachedProfile is the persisted viewer profile slice.
type CachedProfile struct {
	ID          string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	DisplayName *string   `gorm:"type:TEXT"`
	AvatarURL   *string   `gorm:"type:TEXT"`
	IsVendor    bool      `gorm:"type:BOOLEAN NOT NULL"`
	KYCStatus   string    `gorm:"type:TEXT NOT NULL"`
	FetchedAt   time.Time `gorm:"type:DATETIME NOT NULL"`
}

// TableName implements the GORM tabler interface.
func (CachedProfile) TableName() string { return "cached_profiles" }
