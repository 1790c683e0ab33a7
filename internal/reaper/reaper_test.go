package reaper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shinyyama/artoo-backend/internal/model"
	"github.com/shinyyama/artoo-backend/internal/repository"
	"github.com/shinyyama/artoo-backend/internal/repository/memstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var now = time.Date(2026, 5, 1, 23, 59, 59, 0, time.UTC)

func seed(t *testing.T, store *memstore.Store, state model.PurchaseState, age time.Duration) (*model.Artwork, *model.Purchase) {
	t.Helper()
	ctx := context.Background()
	a := &model.Artwork{OwnerUID: "artist", Name: "piece", Price: decimal.NewFromInt(50000), Size: 1000, PurchaseState: state.Availability()}
	require.NoError(t, store.Artworks().Create(ctx, a))
	p := &model.Purchase{
		ArtworkID: a.ID,
		BuyerUID:  "buyer",
		SellerUID: "artist",
		State:     state.Code(),
		Price:     a.Price,
		CreatedAt: now.Add(-age),
	}
	require.NoError(t, store.Purchases().Create(ctx, p))
	return a, p
}

func newReaper(store repository.Store, opts ...Option) *Reaper {
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	return New(store, 48*time.Hour, zap.NewNop(), opts...)
}

func TestSweepCancelsExpired(t *testing.T) {
	store := memstore.New()
	old, oldP := seed(t, store, model.StateShippedAwaitingPayment, 72*time.Hour)
	fresh, freshP := seed(t, store, model.StateDirectAwaitingPayment, 24*time.Hour)

	rep := newReaper(store).Sweep(context.Background())
	assert.Equal(t, Report{Scanned: 2, Cancelled: 1}, rep)

	ctx := context.Background()
	_, err := store.Purchases().FindByID(ctx, oldP.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	a, err := store.Artworks().FindByID(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AvailabilityAvailable, a.PurchaseState)

	_, err = store.Purchases().FindByID(ctx, freshP.ID)
	assert.NoError(t, err)
	a, err = store.Artworks().FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AvailabilityReservedDirect, a.PurchaseState)
}

func TestSweepDeadlineIsExclusive(t *testing.T) {
	store := memstore.New()
	_, p := seed(t, store, model.StateDirectAwaitingPayment, 48*time.Hour)

	rep := newReaper(store).Sweep(context.Background())
	assert.Zero(t, rep.Cancelled)
	_, err := store.Purchases().FindByID(context.Background(), p.ID)
	assert.NoError(t, err)
}

func TestSweepIgnoresPaid(t *testing.T) {
	store := memstore.New()
	_, p := seed(t, store, model.StateShippedPaid, 30*24*time.Hour)

	rep := newReaper(store).Sweep(context.Background())
	assert.Equal(t, Report{}, rep)
	_, err := store.Purchases().FindByID(context.Background(), p.ID)
	assert.NoError(t, err)
}

func TestSweepIsolatesRowFailures(t *testing.T) {
	store := memstore.New()
	bad, badP := seed(t, store, model.StateDirectAwaitingPayment, 72*time.Hour)
	_, goodP := seed(t, store, model.StateShippedAwaitingPayment, 96*time.Hour)
	store.SetHook(func(op string, id uint64) error {
		if op == "Purchases.Delete" && id == badP.ID {
			return errors.New("row locked")
		}
		return nil
	})

	rep := newReaper(store).Sweep(context.Background())
	assert.Equal(t, Report{Scanned: 2, Cancelled: 1, Failed: 1}, rep)

	store.SetHook(nil)
	ctx := context.Background()
	_, err := store.Purchases().FindByID(ctx, goodP.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// the failed row rolled back as a unit
	_, err = store.Purchases().FindByID(ctx, badP.ID)
	assert.NoError(t, err)
	a, err := store.Artworks().FindByID(ctx, bad.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AvailabilityReservedDirect, a.PurchaseState)
}

func TestSweepSkipsWhileRunning(t *testing.T) {
	store := memstore.New()
	seed(t, store, model.StateDirectAwaitingPayment, 72*time.Hour)

	entered := make(chan struct{})
	unblock := make(chan struct{})
	store.SetHook(func(op string, id uint64) error {
		if op == "Purchases.ListByStates" {
			close(entered)
			<-unblock
		}
		return nil
	})

	r := newReaper(store)
	done := make(chan Report)
	go func() { done <- r.Sweep(context.Background()) }()
	<-entered

	assert.Equal(t, Report{Skipped: true}, r.Sweep(context.Background()))

	close(unblock)
	first := <-done
	assert.Equal(t, 1, first.Cancelled)
}

type stubLocker struct {
	ok       bool
	err      error
	released bool
}

func (l *stubLocker) Acquire(ctx context.Context) (func(), bool, error) {
	if l.err != nil || !l.ok {
		return nil, false, l.err
	}
	return func() { l.released = true }, true, nil
}

func TestSweepHonoursLocker(t *testing.T) {
	store := memstore.New()
	_, p := seed(t, store, model.StateDirectAwaitingPayment, 72*time.Hour)

	held := &stubLocker{ok: false}
	assert.True(t, newReaper(store, WithLocker(held)).Sweep(context.Background()).Skipped)

	broken := &stubLocker{err: errors.New("redis down")}
	assert.True(t, newReaper(store, WithLocker(broken)).Sweep(context.Background()).Skipped)

	_, err := store.Purchases().FindByID(context.Background(), p.ID)
	require.NoError(t, err)

	free := &stubLocker{ok: true}
	rep := newReaper(store, WithLocker(free)).Sweep(context.Background())
	assert.Equal(t, 1, rep.Cancelled)
	assert.True(t, free.released)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	r := newReaper(memstore.New())
	assert.Error(t, r.Start("not a schedule", "UTC"))
	assert.Error(t, r.Start("59 59 23 * * *", "Mars/Olympus"))

	require.NoError(t, r.Start("59 59 23 * * *", "UTC"))
	assert.ErrorIs(t, r.Start("59 59 23 * * *", "UTC"), ErrAlreadyStarted)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Stop(ctx)
}

func TestCancelRereadsPurchaseUnderLock(t *testing.T) {
	store := memstore.New()
	_, p := seed(t, store, model.StateShippedAwaitingPayment, 72*time.Hour)

	var locked []uint64
	store.SetHook(func(op string, id uint64) error {
		if op == "Purchases.FindByIDForUpdate" {
			locked = append(locked, id)
		}
		return nil
	})
	rep := newReaper(store).Sweep(context.Background())
	assert.Equal(t, 1, rep.Cancelled)
	assert.Equal(t, []uint64{p.ID}, locked)
}
