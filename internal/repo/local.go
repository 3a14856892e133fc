package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sellexa/go-marketplace-backend/internal/domain"
)

// Local bundles the snapshot repository functions behind the persister
// methods the stores consume. Load methods translate ErrNotFound into nil
// results so the callers' hydration stays best-effort.
type Local struct {
	DB *gorm.DB
}

// NewLocal returns a Local over db.
func NewLocal(db *gorm.DB) *Local { return &Local{DB: db} }

func (l *Local) SaveProfile(ctx context.Context, p domain.Profile) error {
	return SaveProfile(ctx, l.DB, p)
}

func (l *Local) LoadProfile(ctx context.Context, id string) (*domain.Profile, time.Time, error) {
	p, at, err := LoadProfile(ctx, l.DB, id)
	if errors.Is(err, ErrNotFound) {
		return nil, time.Time{}, nil
	}
	return p, at, err
}

func (l *Local) ReplaceFeed(ctx context.Context, products []domain.Product) error {
	return ReplaceFeed(ctx, l.DB, products)
}

func (l *Local) LoadFeed(ctx context.Context) ([]domain.Product, time.Time, error) {
	return LoadFeed(ctx, l.DB)
}

func (l *Local) UpsertSave(ctx context.Context, s domain.SaveData) error {
	return UpsertSave(ctx, l.DB, s)
}

func (l *Local) LoadSaves(ctx context.Context) ([]domain.SaveData, error) {
	return LoadSaves(ctx, l.DB)
}

func (l *Local) ReplaceNotifications(ctx context.Context, rows []domain.Notification) error {
	return ReplaceNotifications(ctx, l.DB, rows)
}

func (l *Local) LoadNotifications(ctx context.Context) ([]domain.Notification, error) {
	return LoadNotifications(ctx, l.DB)
}

func (l *Local) SaveSession(ctx context.Context, u domain.User) error {
	return SaveSession(ctx, l.DB, u)
}

func (l *Local) LoadSession(ctx context.Context) (*domain.User, error) {
	u, err := LoadSession(ctx, l.DB)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return u, err
}

func (l *Local) ClearUserData(ctx context.Context) error {
	return ClearSnapshots(ctx, l.DB)
}
