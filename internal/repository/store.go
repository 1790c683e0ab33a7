package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrDBNotReady = errors.New("database not initialized")

// ErrNotFound is returned by every repository when a row does not exist.
// The gorm implementations translate gorm.ErrRecordNotFound into it.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate reports a unique index violation.
var ErrDuplicate = errors.New("duplicate record")

// Store groups the repositories and runs them inside one transaction when a
// change must touch several tables at once.
type Store interface {
	Purchases() PurchaseRepository
	Artworks() ArtworkRepository
	Users() UserRepository
	Likes() LikeRepository
	Displays() DisplayRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Purchases() PurchaseRepository { return NewPurchaseRepository(s.db) }
func (s *gormStore) Artworks() ArtworkRepository   { return NewArtworkRepository(s.db) }
func (s *gormStore) Users() UserRepository         { return NewUserRepository(s.db) }
func (s *gormStore) Likes() LikeRepository         { return NewLikeRepository(s.db) }
func (s *gormStore) Displays() DisplayRepository   { return NewDisplayRepository(s.db) }

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.db == nil {
		return ErrDBNotReady
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}
