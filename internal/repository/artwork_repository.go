package repository

import (
	"context"
	"errors"

	"github.com/shinyyama/artoo-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ArtworkRepository interface {
	Create(ctx context.Context, a *model.Artwork) error
	FindByID(ctx context.Context, id uint64) (*model.Artwork, error)
	FindByIDForUpdate(ctx context.Context, id uint64) (*model.Artwork, error)
	UpdatePurchaseState(ctx context.Context, id uint64, state model.Availability) error
	AddLikeCount(ctx context.Context, id uint64, delta int64) error
	AddPicture(ctx context.Context, pic *model.ArtworkPicture) error
	FindPicture(ctx context.Context, artworkID uint64) (*model.ArtworkPicture, error)
}

type artworkRepository struct {
	db *gorm.DB
}

func NewArtworkRepository(db *gorm.DB) ArtworkRepository {
	return &artworkRepository{db: db}
}

func (r *artworkRepository) Create(ctx context.Context, a *model.Artwork) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *artworkRepository) FindByID(ctx context.Context, id uint64) (*model.Artwork, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var a model.Artwork
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
// Outside a transaction the lock is released as soon as the query returns.
func (r *artworkRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*model.Artwork, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var a model.Artwork
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&a, id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *artworkRepository) UpdatePurchaseState(ctx context.Context, id uint64, state model.Availability) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.Artwork{}).
		Where("id = ?", id).
		Update("purchase_state", state).Error
}

// AddLikeCount adjusts the counter in the database so concurrent toggles on the
// same artwork never read a stale base value. The count never drops below zero.
func (r *artworkRepository) AddLikeCount(ctx context.Context, id uint64, delta int64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	q := r.db.WithContext(ctx).Model(&model.Artwork{}).Where("id = ?", id)
	if delta < 0 {
		q = q.Where("like_count >= ?", -delta)
	}
	res := q.Update("like_count", gorm.Expr("like_count + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *artworkRepository) AddPicture(ctx context.Context, pic *model.ArtworkPicture) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(pic).Error
}

// FindPicture returns the cover picture, or nil when the artwork has none.
func (r *artworkRepository) FindPicture(ctx context.Context, artworkID uint64) (*model.ArtworkPicture, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var pic model.ArtworkPicture
	if err := r.db.WithContext(ctx).
		Where("artwork_id = ?", artworkID).
		Order("id ASC").
		First(&pic).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pic, nil
}
