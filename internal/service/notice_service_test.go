package service

import (
	"context"
	"testing"

	"github.com/shinyyama/artoo-backend/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuysEmpty(t *testing.T) {
	f := newFixture(t)
	buys, err := f.notices.Buys(context.Background(), buyerUID)
	require.NoError(t, err)
	assert.NotNil(t, buys)
	assert.Empty(t, buys)

	sells, err := f.notices.Sells(context.Background(), artistUID)
	require.NoError(t, err)
	assert.NotNil(t, sells)
	assert.Empty(t, sells)
}

func TestBuysUnpaidShowsPaymentDetails(t *testing.T) {
	f := newFixture(t)
	art := f.artwork(t, 100000, 5000)
	f.buy(t, art.ID, "shipped")

	buys, err := f.notices.Buys(context.Background(), buyerUID)
	require.NoError(t, err)
	require.Len(t, buys, 1)
	n := buys[0]
	assert.Equal(t, "Untitled", n.ArtworkName)
	assert.Equal(t, "https://example.com/cover.jpg", n.PictureURL)
	assert.Equal(t, "Kim Artist", n.ArtistName)
	assert.Equal(t, EscrowContact{Name: "Artoo", Phone: "010-0000-0000", Address: "Seoul"}, n.Escrow)
	assert.Equal(t, 0, n.IsPaid)
	require.NotNil(t, n.IsDelivery)
	assert.Equal(t, 1, *n.IsDelivery)
	assert.Equal(t, "Shinhan", n.Bank)
	assert.Equal(t, "110-123-456789", n.Account)
	require.NotNil(t, n.AmountDue)
	assert.True(t, decimal.NewFromInt(104000).Equal(*n.AmountDue))
	assert.Nil(t, n.HasComment)
	assert.False(t, n.IsRefunded)
}

func TestBuysPaidHidesPaymentDetails(t *testing.T) {
	f := newFixture(t)
	art := f.artwork(t, 100000, 5000)
	p := f.buy(t, art.ID, "direct")
	_, err := f.purchases.ConfirmPayment(context.Background(), p.ID)
	require.NoError(t, err)

	buys, err := f.notices.Buys(context.Background(), buyerUID)
	require.NoError(t, err)
	require.Len(t, buys, 1)
	n := buys[0]
	assert.Equal(t, 1, n.IsPaid)
	require.NotNil(t, n.IsDelivery)
	assert.Equal(t, 0, *n.IsDelivery)
	assert.Empty(t, n.Bank)
	assert.Nil(t, n.AmountDue)
	require.NotNil(t, n.HasComment)
	assert.False(t, *n.HasComment)
}

func TestBuysRefunded(t *testing.T) {
	f := newFixture(t)
	art := f.artwork(t, 100000, 5000)
	p := f.buy(t, art.ID, "shipped")
	_, err := f.purchases.ConfirmPayment(context.Background(), p.ID)
	require.NoError(t, err)
	_, err = f.purchases.RequestRefund(context.Background(), p.ID)
	require.NoError(t, err)

	buys, err := f.notices.Buys(context.Background(), buyerUID)
	require.NoError(t, err)
	require.Len(t, buys, 1)
	assert.True(t, buys[0].IsRefunded)
	assert.Nil(t, buys[0].IsDelivery)
	assert.Equal(t, 0, buys[0].IsPaid)
}

func TestBuysOmitsUnknownStates(t *testing.T) {
	f := newFixture(t)
	art := f.artwork(t, 100000, 5000)
	require.NoError(t, f.store.Purchases().Create(context.Background(), &model.Purchase{
		ArtworkID: art.ID,
		BuyerUID:  buyerUID,
		SellerUID: artistUID,
		State:     1,
		CreatedAt: fixedNow,
	}))
	f.buy(t, f.artwork(t, 50000, 1000).ID, "direct")

	buys, err := f.notices.Buys(context.Background(), buyerUID)
	require.NoError(t, err)
	require.Len(t, buys, 1)
	assert.Equal(t, 10, buys[0].State)
}

func TestSells(t *testing.T) {
	f := newFixture(t)
	unpaid := f.artwork(t, 100000, 5000)
	f.buy(t, unpaid.ID, "shipped")
	paid := f.artwork(t, 100000, 5000)
	p := f.buy(t, paid.ID, "shipped")
	_, err := f.purchases.ConfirmPayment(context.Background(), p.ID)
	require.NoError(t, err)

	sells, err := f.notices.Sells(context.Background(), artistUID)
	require.NoError(t, err)
	require.Len(t, sells, 2)
	byState := map[int]SellNotice{}
	for _, n := range sells {
		assert.Equal(t, "Kim Artist", n.ArtistName)
		assert.Equal(t, "Artoo", n.Escrow.Name)
		byState[n.State] = n
	}
	assert.Nil(t, byState[20].IsDelivery)
	require.NotNil(t, byState[21].IsDelivery)
	assert.Equal(t, 1, *byState[21].IsDelivery)

	none, err := f.notices.Buys(context.Background(), artistUID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
