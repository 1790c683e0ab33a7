package repository

import (
	"context"

	"github.com/shinyyama/artoo-backend/internal/model"
	"gorm.io/gorm"
)

type LikeRepository interface {
	Find(ctx context.Context, userUID string, artworkID uint64) (*model.ArtworkLike, error)
	Create(ctx context.Context, like *model.ArtworkLike) error
	Delete(ctx context.Context, userUID string, artworkID uint64) error
	ListByArtwork(ctx context.Context, artworkID uint64) ([]model.ArtworkLike, error)
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Find(ctx context.Context, userUID string, artworkID uint64) (*model.ArtworkLike, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var like model.ArtworkLike
	if err := r.db.WithContext(ctx).
		Where("user_uid = ? AND artwork_id = ?", userUID, artworkID).
		First(&like).Error; err != nil {
		return nil, translate(err)
	}
	return &like, nil
}

func (r *likeRepository) Create(ctx context.Context, like *model.ArtworkLike) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return translate(r.db.WithContext(ctx).Create(like).Error)
}

func (r *likeRepository) Delete(ctx context.Context, userUID string, artworkID uint64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Where("user_uid = ? AND artwork_id = ?", userUID, artworkID).
		Delete(&model.ArtworkLike{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *likeRepository) ListByArtwork(ctx context.Context, artworkID uint64) ([]model.ArtworkLike, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.ArtworkLike
	if err := r.db.WithContext(ctx).
		Where("artwork_id = ?", artworkID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
