package service

import (
	"context"
	"testing"
	"time"

	"github.com/shinyyama/artoo-backend/internal/model"
	"github.com/shinyyama/artoo-backend/internal/repository/memstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	escrowUID = "escrow"
	artistUID = "artist-1"
	buyerUID  = "buyer-1"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store     *memstore.Store
	purchases PurchaseService
	notices   NoticeService
	likes     LikeService
	artworks  ArtworkService
	displays  DisplayService
	users     UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	now := func() time.Time { return fixedNow }
	likes := NewLikeService(store)
	f := &fixture{
		store:     store,
		purchases: NewPurchaseService(store, now, zap.NewNop()),
		notices:   NewNoticeService(store, escrowUID, zap.NewNop()),
		likes:     likes,
		artworks:  NewArtworkService(store, likes),
		displays:  NewDisplayService(store, now),
		users:     NewUserService(store),
	}
	ctx := context.Background()
	for _, u := range []model.User{
		{UID: escrowUID, Name: "Artoo", Phone: "010-0000-0000", Address: "Seoul", Bank: "Shinhan", Account: "110-123-456789"},
		{UID: artistUID, Name: "Kim Artist", School: "Hongik"},
		{UID: buyerUID, Name: "Lee Buyer"},
	} {
		u := u
		require.NoError(t, store.Users().Upsert(ctx, &u))
	}
	return f
}

func (f *fixture) artwork(t *testing.T, price int64, size int) *model.Artwork {
	t.Helper()
	a := &model.Artwork{
		OwnerUID: artistUID,
		Name:     "Untitled",
		Price:    decimal.NewFromInt(price),
		Size:     size,
	}
	require.NoError(t, f.store.Artworks().Create(context.Background(), a))
	require.NoError(t, f.store.Artworks().AddPicture(context.Background(), &model.ArtworkPicture{ArtworkID: a.ID, URL: "https://example.com/cover.jpg"}))
	return a
}

func (f *fixture) buy(t *testing.T, artworkID uint64, channel string) *model.Purchase {
	t.Helper()
	res, err := f.purchases.Create(context.Background(), CreatePurchaseInput{
		ArtworkID:        artworkID,
		BuyerUID:         buyerUID,
		Channel:          channel,
		RecipientName:    "Lee Buyer",
		RecipientAddress: "Busan",
	})
	require.NoError(t, err)
	require.True(t, res.Created)
	return res.Purchase
}

func (f *fixture) availability(t *testing.T, artworkID uint64) model.Availability {
	t.Helper()
	a, err := f.store.Artworks().FindByID(context.Background(), artworkID)
	require.NoError(t, err)
	return a.PurchaseState
}

func (f *fixture) state(t *testing.T, purchaseID uint64) int {
	t.Helper()
	p, err := f.store.Purchases().FindByID(context.Background(), purchaseID)
	require.NoError(t, err)
	return p.State
}
