package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/shinyyama/artoo-backend/internal/model"
	"github.com/shinyyama/artoo-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := &model.Artwork{OwnerUID: "artist", Name: "Blue"}
	require.NoError(t, s.Artworks().Create(ctx, a))

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Artworks().UpdatePurchaseState(ctx, a.ID, model.AvailabilitySold); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Artworks().FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AvailabilityAvailable, got.PurchaseState)
}

func TestTransactionCommits(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := &model.Artwork{OwnerUID: "artist", Name: "Blue"}
	require.NoError(t, s.Artworks().Create(ctx, a))

	err := s.Transaction(ctx, func(tx repository.Store) error {
		return tx.Artworks().UpdatePurchaseState(ctx, a.ID, model.AvailabilityReservedShipped)
	})
	require.NoError(t, err)

	got, err := s.Artworks().FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AvailabilityReservedShipped, got.PurchaseState)
}

func TestHookFailsSelectedOperation(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("store down")
	s.SetHook(func(op string, id uint64) error {
		if op == "Users.FindByUID" {
			return boom
		}
		return nil
	})
	_, err := s.Users().FindByUID(ctx, "x")
	assert.ErrorIs(t, err, boom)
}

func TestLikesAreUnique(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Likes().Create(ctx, &model.ArtworkLike{UserUID: "u", ArtworkID: 1}))
	err := s.Likes().Create(ctx, &model.ArtworkLike{UserUID: "u", ArtworkID: 1})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}
