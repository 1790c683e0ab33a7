package repository

import (
	"context"

	"github.com/shinyyama/artoo-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseRepository interface {
	Create(ctx context.Context, p *model.Purchase) error
	FindByID(ctx context.Context, id uint64) (*model.Purchase, error)
	FindByIDForUpdate(ctx context.Context, id uint64) (*model.Purchase, error)
	ListByBuyer(ctx context.Context, buyerUID string) ([]model.Purchase, error)
	ListBySeller(ctx context.Context, sellerUID string) ([]model.Purchase, error)
	ListByStates(ctx context.Context, states []int) ([]model.Purchase, error)
	UpdateState(ctx context.Context, id uint64, state int) error
	UpdateComment(ctx context.Context, id uint64, comment string) error
	Delete(ctx context.Context, id uint64) error
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(ctx context.Context, p *model.Purchase) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *purchaseRepository) FindByID(ctx context.Context, id uint64) (*model.Purchase, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var p model.Purchase
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// FindByIDForUpdate reads the row with an exclusive lock. Every state change
// goes through it so two transitions on one purchase never interleave.
func (r *purchaseRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*model.Purchase, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var p model.Purchase
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *purchaseRepository) ListByBuyer(ctx context.Context, buyerUID string) ([]model.Purchase, error) {
	return r.list(ctx, "buyer_uid = ?", buyerUID)
}

func (r *purchaseRepository) ListBySeller(ctx context.Context, sellerUID string) ([]model.Purchase, error) {
	return r.list(ctx, "seller_uid = ?", sellerUID)
}

func (r *purchaseRepository) ListByStates(ctx context.Context, states []int) ([]model.Purchase, error) {
	return r.list(ctx, "state IN ?", states)
}

func (r *purchaseRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.Purchase, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Purchase
	if err := r.db.WithContext(ctx).
		Where(query, args...).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *purchaseRepository) UpdateState(ctx context.Context, id uint64, state int) error {
	return r.updateColumn(ctx, id, "state", state)
}

func (r *purchaseRepository) UpdateComment(ctx context.Context, id uint64, comment string) error {
	return r.updateColumn(ctx, id, "comment", comment)
}

func (r *purchaseRepository) updateColumn(ctx context.Context, id uint64, column string, value interface{}) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.Purchase{}).
		Where("id = ?", id).
		Update(column, value).Error
}

func (r *purchaseRepository) Delete(ctx context.Context, id uint64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	res := r.db.WithContext(ctx).Delete(&model.Purchase{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
