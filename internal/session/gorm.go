package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdg-garage/event-registration-api/internal/models"
	"gorm.io/gorm"
)

// GormStore persists sessions in the sessions table so they survive restarts.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

func (g *GormStore) Create(ctx context.Context, s *models.Session) error {
	s.ID = newID()
	s.ExpiresAt = s.ExpiresAt.UTC()
	if err := g.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (g *GormStore) Get(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if s.Expired(g.now()) {
		if err := g.Delete(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return &s, nil
}

func (g *GormStore) Delete(ctx context.Context, id string) error {
	if err := g.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpired removes every expired session and returns how many were removed.
func (g *GormStore) PurgeExpired(ctx context.Context) (int64, error) {
	res := g.db.WithContext(ctx).Where("expires_at <= ?", g.now().UTC()).Delete(&models.Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}
