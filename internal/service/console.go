package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bcnelson/apikey-console/internal/domain"
	"github.com/bcnelson/apikey-console/internal/logging"
	"github.com/bcnelson/apikey-console/internal/storage"
	"github.com/rs/zerolog"
)

// DefaultReconcileInterval is how often expired keys are swept.
const DefaultReconcileInterval = 5 * time.Minute

// ConsoleOptions configures a Console. Zero values select defaults.
type ConsoleOptions struct {
	Interval     time.Duration
	Location     *time.Location
	Now          func() time.Time
	KeyGenerator func() string
}

// Console owns the current view of the key table. Lifecycle commands and
// reconciliation passes both update it; readers get immutable snapshots.
type Console struct {
	store      storage.Storage
	now        func() time.Time
	manager    *KeyManager
	reconciler *Reconciler
	scheduler  *Scheduler
	logger     zerolog.Logger

	mu    sync.RWMutex
	state domain.State
}

// NewConsole wires a lifecycle manager, a reconciler and its scheduler
// around store.
func NewConsole(store storage.Storage, opts ConsoleOptions) *Console {
	if opts.Interval == 0 {
		opts.Interval = DefaultReconcileInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &Console{
		store:  store,
		now:    opts.Now,
		logger: logging.NewLogger("console"),
	}
	c.manager = NewKeyManager(store, opts.Now, opts.KeyGenerator)
	c.reconciler = NewReconciler(store, opts.Now, opts.Location, c.publish)
	c.scheduler = NewScheduler(opts.Interval, func(ctx context.Context) {
		_, _ = c.reconciler.RunPass(ctx)
	})
	return c
}

// Start loads the key table, runs the first expiry pass and starts the
// periodic sweep. A failing initial load is logged and leaves the snapshot
// empty; the next scheduled pass retries it.
func (c *Console) Start(ctx context.Context) error {
	if _, err := c.reconciler.RunPass(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("initial key load failed")
	}
	return c.scheduler.Start(ctx)
}

// Stop ends the periodic sweep.
func (c *Console) Stop() {
	c.scheduler.Stop()
}

// Running reports whether the periodic sweep is active.
func (c *Console) Running() bool {
	return c.scheduler.Running()
}

// Snapshot returns the current view of the key table.
func (c *Console) Snapshot() domain.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Dispatch runs a lifecycle command. The resulting event is applied to the
// latest state rather than the one the command started from, so a snapshot
// published by a concurrent reconciliation pass is not discarded.
func (c *Console) Dispatch(ctx context.Context, cmd domain.Command) (domain.Event, error) {
	_, ev, err := c.manager.Handle(ctx, c.Snapshot(), cmd)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.state = ev.Apply(c.state)
	c.mu.Unlock()
	return ev, nil
}

// Refresh replaces the snapshot with the store's current rows without
// touching any status.
func (c *Console) Refresh(ctx context.Context) error {
	rows, err := c.store.ListAPIKeys(ctx)
	if err != nil {
		return fmt.Errorf("listing api keys: %w", err)
	}
	c.publish(domain.NewState(rows, c.now()))
	return nil
}

// Reconcile forces an expiry pass now.
func (c *Console) Reconcile(ctx context.Context) (ReconcileReport, error) {
	return c.reconciler.RunPass(ctx)
}

// CheckKey reports whether key is free to use.
func (c *Console) CheckKey(ctx context.Context, key string) (bool, error) {
	return c.manager.ValidateKeyUniqueness(ctx, key)
}

// Ping checks the store.
func (c *Console) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

func (c *Console) publish(s domain.State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
