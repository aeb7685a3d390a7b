// README: Status sweeper: periodically promotes or cancels orders from the wall clock alone.
package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"dronebook/internal/models"
	"dronebook/internal/modules/order"
	"dronebook/internal/storage"
	"dronebook/internal/types"
)

const (
	DefaultInterval = 5 * time.Minute
	DefaultLockTTL  = time.Minute
	lockKey         = "dronebook:sweeper"
)

// Locker serializes passes across replicas.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type Config struct {
	Interval time.Duration
	// Location is the civil time zone order windows are written in.
	Location *time.Location
	LockTTL  time.Duration
}

// Result counts what one pass did.
type Result struct {
	At        time.Time
	Scanned   int
	Cancelled int
	Started   int
	Completed int
	Skipped   int
	// Error is set on the recorded result of a failed pass.
	Error string
}

func (r Result) Transitions() int {
	return r.Cancelled + r.Started + r.Completed
}

type Option func(*Sweeper)

func WithLocker(l Locker) Option {
	return func(s *Sweeper) { s.locker = l }
}

func WithLogger(log *logrus.Entry) Option {
	return func(s *Sweeper) { s.log = log }
}

type Sweeper struct {
	store  storage.Store
	clock  types.Clock
	cfg    Config
	locker Locker
	log    *logrus.Entry

	mu     sync.Mutex
	last   *Result
	cancel context.CancelFunc
	done   chan struct{}
}

func New(store storage.Store, clock types.Clock, cfg Config, opts ...Option) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	s := &Sweeper{store: store, clock: clock, cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logrus.NewEntry(logrus.StandardLogger())
	}
	s.log = s.log.WithField("component", "sweeper")
	return s
}

// Start runs a pass every interval until ctx is done or Stop is called.
// Calling Start on a running sweeper is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
}

// Stop cancels the loop and waits for an in-flight pass to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Sweeper) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.log.WithField("interval", s.cfg.Interval).Info("sweeper started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one guarded pass. Failures are logged and retried on the next tick.
func (s *Sweeper) tick(ctx context.Context) {
	if s.locker != nil {
		ok, err := s.locker.Acquire(ctx, lockKey, s.cfg.LockTTL)
		if err != nil {
			s.log.WithError(err).Warn("sweeper lock unavailable, skipping pass")
			return
		}
		if !ok {
			s.log.Debug("another replica holds the sweeper lock")
			return
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), lockKey); err != nil {
				s.log.WithError(err).Warn("release sweeper lock")
			}
		}()
	}

	res, err := s.Sweep(ctx)
	if err != nil {
		s.log.WithError(err).Error("sweep failed, rolled back")
		return
	}
	entry := s.log.WithFields(logrus.Fields{
		"scanned":   res.Scanned,
		"cancelled": res.Cancelled,
		"started":   res.Started,
		"completed": res.Completed,
		"skipped":   res.Skipped,
	})
	if res.Transitions() > 0 {
		entry.Info("sweep done")
	} else {
		entry.Debug("sweep done")
	}
}

// Sweep runs one pass in a single transaction and records its result.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	now := s.clock.Now()
	var res Result
	err := s.store.Atomic(ctx, func(tx storage.Tx) error {
		res = Result{At: now}
		orders, err := tx.ListOrders(ctx, storage.OrderFilter{Statuses: []models.OrderStatus{
			models.StatusNew,
			models.StatusInProcessing,
			models.StatusInProgress,
		}})
		if err != nil {
			return err
		}
		for _, o := range orders {
			res.Scanned++
			if err := s.advance(ctx, tx, o, now, &res); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		failed := Result{At: now, Error: err.Error()}
		s.record(failed)
		return failed, err
	}
	s.record(res)
	return res, nil
}

// advance applies the time rules to one order, in order, so a single pass can
// carry an order from in_processing through to completed.
func (s *Sweeper) advance(ctx context.Context, tx storage.Tx, o *models.Order, now time.Time, res *Result) error {
	start, end, err := o.Window(s.cfg.Location)
	if err != nil {
		s.log.WithError(err).WithField("order_id", o.ID).Warn("skipping order with malformed schedule")
		res.Skipped++
		return nil
	}

	if o.Status == models.StatusNew && !now.Before(start) {
		if err := order.Apply(ctx, tx, o, models.StatusCancelled, types.SystemActor, now); err != nil {
			return err
		}
		res.Cancelled++
		return nil
	}
	if o.Status == models.StatusInProcessing && !now.Before(start) {
		if err := order.Apply(ctx, tx, o, models.StatusInProgress, types.SystemActor, now); err != nil {
			return err
		}
		res.Started++
	}
	if o.Status == models.StatusInProgress && !now.Before(end) {
		if err := order.Apply(ctx, tx, o, models.StatusCompleted, types.SystemActor, now); err != nil {
			return err
		}
		res.Completed++
	}
	return nil
}

func (s *Sweeper) record(r Result) {
	s.mu.Lock()
	s.last = &r
	s.mu.Unlock()
}

// LastResult returns the most recent pass, if any has run.
func (s *Sweeper) LastResult() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Result{}, false
	}
	return *s.last, true
}
