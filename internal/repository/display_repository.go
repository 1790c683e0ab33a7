package repository

import (
	"context"
	"time"

	"github.com/shinyyama/artoo-backend/internal/model"
	"gorm.io/gorm"
)

type DisplayRepository interface {
	Create(ctx context.Context, d *model.Display) error
	ListAcceptingAt(ctx context.Context, at time.Time) ([]model.Display, error)
	FindContent(ctx context.Context, userUID string, displayID uint64) (*model.DisplayContent, error)
	CreateContent(ctx context.Context, dc *model.DisplayContent) error
}

type displayRepository struct {
	db *gorm.DB
}

func NewDisplayRepository(db *gorm.DB) DisplayRepository {
	return &displayRepository{db: db}
}

func (r *displayRepository) Create(ctx context.Context, d *model.Display) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(d).Error
}

// ListAcceptingAt returns displays whose application window contains at.
func (r *displayRepository) ListAcceptingAt(ctx context.Context, at time.Time) ([]model.Display, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Display
	if err := r.db.WithContext(ctx).
		Where("apply_start_at <= ? AND apply_end_at >= ?", at, at).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *displayRepository) FindContent(ctx context.Context, userUID string, displayID uint64) (*model.DisplayContent, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var dc model.DisplayContent
	if err := r.db.WithContext(ctx).
		Where("user_uid = ? AND display_id = ?", userUID, displayID).
		First(&dc).Error; err != nil {
		return nil, translate(err)
	}
	return &dc, nil
}

func (r *displayRepository) CreateContent(ctx context.Context, dc *model.DisplayContent) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(dc).Error
}
