// Package reaper cancels purchases that stayed unpaid past their deadline.
package reaper

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shinyyama/artoo-backend/internal/metrics"
	"github.com/shinyyama/artoo-backend/internal/model"
	"github.com/shinyyama/artoo-backend/internal/repository"
	"go.uber.org/zap"
)

const LockKey = "reaper:unpaid"

var ErrAlreadyStarted = errors.New("reaper already started")

// Report summarises one sweep. It is logged and exported, never returned to a
// request.
type Report struct {
	Scanned   int
	Cancelled int
	Failed    int
	Skipped   bool
}

type Reaper struct {
	store   repository.Store
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
	locker  Locker
	timeout time.Duration

	running atomic.Bool
	cron    *cron.Cron
}

type Option func(*Reaper)

// WithLocker adds a cross-replica lock on top of the in-process guard.
func WithLocker(l Locker) Option {
	return func(r *Reaper) { r.locker = l }
}

func WithClock(now func() time.Time) Option {
	return func(r *Reaper) { r.now = now }
}

// WithTimeout bounds each scheduled sweep.
func WithTimeout(d time.Duration) Option {
	return func(r *Reaper) { r.timeout = d }
}

func New(store repository.Store, ttl time.Duration, logger *zap.Logger, opts ...Option) *Reaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reaper{
		store:   store,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger.Named("reaper"),
		timeout: 10 * time.Minute,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Sweep cancels every unpaid purchase whose deadline has passed. A sweep that
// starts while another is running returns a skipped report immediately.
func (r *Reaper) Sweep(ctx context.Context) Report {
	if !r.running.CompareAndSwap(false, true) {
		metrics.RecordSkippedSweep()
		r.logger.Info("sweep already running, skipping")
		return Report{Skipped: true}
	}
	defer r.running.Store(false)

	if r.locker != nil {
		release, ok, err := r.locker.Acquire(ctx)
		if err != nil {
			r.logger.Warn("sweep lock unavailable, skipping", zap.Error(err))
			metrics.RecordSkippedSweep()
			return Report{Skipped: true}
		}
		if !ok {
			r.logger.Info("sweep lock held elsewhere, skipping")
			metrics.RecordSkippedSweep()
			return Report{Skipped: true}
		}
		defer release()
	}

	start := time.Now()
	rep := r.sweep(ctx)
	metrics.RecordSweep(rep.Cancelled, rep.Failed, time.Since(start))
	r.logger.Info("sweep finished",
		zap.Int("scanned", rep.Scanned),
		zap.Int("cancelled", rep.Cancelled),
		zap.Int("failed", rep.Failed),
		zap.Duration("took", time.Since(start)))
	return rep
}

func (r *Reaper) sweep(ctx context.Context) Report {
	var rep Report
	list, err := r.store.Purchases().ListByStates(ctx, model.UnpaidStateCodes())
	if err != nil {
		r.logger.Error("list unpaid purchases", zap.Error(err))
		rep.Failed++
		return rep
	}
	now := r.now()
	for _, p := range list {
		rep.Scanned++
		if !now.After(p.CreatedAt.Add(r.ttl)) {
			continue
		}
		if err := ctx.Err(); err != nil {
			r.logger.Warn("sweep interrupted", zap.Error(err))
			return rep
		}
		if err := r.cancel(ctx, p); err != nil {
			rep.Failed++
			r.logger.Error("cancel unpaid purchase",
				zap.Uint64("purchase_id", p.ID),
				zap.Uint64("artwork_id", p.ArtworkID),
				zap.Error(err))
			continue
		}
		rep.Cancelled++
		r.logger.Debug("cancelled unpaid purchase", zap.Uint64("purchase_id", p.ID))
	}
	return rep
}

// cancel releases the artwork and drops the purchase together. The row is
// re-read under a lock inside the transaction, so a payment confirmed after
// the listing is never undone.
func (r *Reaper) cancel(ctx context.Context, listed model.Purchase) error {
	return r.store.Transaction(ctx, func(tx repository.Store) error {
		p, err := tx.Purchases().FindByIDForUpdate(ctx, listed.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		st, err := model.DecodePurchaseState(p.State)
		if err != nil {
			return err
		}
		if !st.IsAwaitingPayment() {
			return nil
		}
		if err := tx.Artworks().UpdatePurchaseState(ctx, p.ArtworkID, model.AvailabilityAvailable); err != nil {
			return err
		}
		return tx.Purchases().Delete(ctx, p.ID)
	})
}

// Start schedules Sweep with a six-field cron spec (seconds first) in the
// given time zone.
func (r *Reaper) Start(schedule, timezone string) error {
	if r.cron != nil {
		return ErrAlreadyStarted
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}
	log := cronLogger{r.logger}
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(loc),
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)
	if _, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		r.Sweep(ctx)
	}); err != nil {
		return err
	}
	c.Start()
	r.cron = c
	r.logger.Info("reaper scheduled", zap.String("schedule", schedule), zap.String("timezone", timezone), zap.Duration("ttl", r.ttl))
	return nil
}

// Stop waits for a running sweep to finish or ctx to expire.
func (r *Reaper) Stop(ctx context.Context) {
	if r.cron == nil {
		return
	}
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
	}
}

type cronLogger struct {
	l *zap.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Sugar().With(zap.Error(err)).Errorw(msg, keysAndValues...)
}
