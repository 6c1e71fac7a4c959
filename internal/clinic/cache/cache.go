// Package cache holds the locally mirrored view of the clinic registry.
//
// The cache is the only mutable shared state in the engine. It never
// originates clinic data: every mutation writes through to the store first,
// then invalidates, and the snapshot is only ever replaced wholesale by a
// refresh. A monotonically increasing generation counter, bumped on every
// invalidation, decides which refresh result wins when they race.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	clinicmetrics "sijil/internal/clinic/metrics"
	clinicstore "sijil/internal/clinic/store"
	"sijil/internal/domain"
)

// Snapshot is the cache's held state: an ordered view of all clinics
// (newest-first), the generation of the refresh that produced it, and when it
// was fetched. Consumers must treat the clinic slice as read-only.
type Snapshot struct {
	Clinics     []domain.Clinic
	Generation  uint64
	RefreshedAt time.Time
}

// Update is delivered to listeners after every refresh attempt. When Err is
// non-nil the refresh failed and Snapshot is the last-good state, which is
// always preferred over an empty or partial one.
type Update struct {
	Snapshot Snapshot
	Err      error
}

// Listener receives cache updates. Listeners are invoked sequentially from
// the refreshing goroutine and should hand off anything slow.
type Listener func(Update)

const defaultRefreshTimeout = 10 * time.Second

// Cache mirrors the clinics table in memory with write-through CRUD and
// coalesced asynchronous refresh.
type Cache struct {
	store   clinicstore.Store
	logger  *slog.Logger
	metrics *clinicmetrics.Metrics

	baseCtx        context.Context
	refreshTimeout time.Duration

	mu         sync.Mutex
	snapshot   Snapshot
	gen        uint64 // target generation; bumped on every invalidation
	refreshing bool

	lmu       sync.Mutex
	nextToken int
	listeners map[int]Listener
}

// Option configures optional cache behavior.
type Option func(*Cache)

func WithMetrics(m *clinicmetrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithBaseContext bounds background refreshes to ctx; once ctx is cancelled
// no further asynchronous refreshes run. Wire the process lifecycle here.
func WithBaseContext(ctx context.Context) Option {
	return func(c *Cache) { c.baseCtx = ctx }
}

func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Cache) { c.refreshTimeout = d }
}

func New(store clinicstore.Store, logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{
		store:          store,
		logger:         logger,
		baseCtx:        context.Background(),
		refreshTimeout: defaultRefreshTimeout,
		listeners:      make(map[int]Listener),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// List returns the last-known snapshot. It may be stale; it is never partial.
func (c *Cache) List() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Generation returns the current invalidation counter. It runs ahead of the
// snapshot's generation while a refresh is outstanding.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// OnChange registers a listener for refresh results and returns its
// unsubscribe function.
func (c *Cache) OnChange(l Listener) (unsubscribe func()) {
	c.lmu.Lock()
	defer c.lmu.Unlock()
	token := c.nextToken
	c.nextToken++
	c.listeners[token] = l
	return func() {
		c.lmu.Lock()
		defer c.lmu.Unlock()
		delete(c.listeners, token)
	}
}

// Invalidate bumps the generation and schedules an asynchronous refresh.
// Invalidations arriving while a refresh is in flight coalesce: the worker
// makes at most one further pass, regardless of how many arrived. Returns the
// target generation; a snapshot at or past it reflects this invalidation.
func (c *Cache) Invalidate() uint64 {
	c.mu.Lock()
	c.gen++
	target := c.gen
	if c.refreshing {
		c.mu.Unlock()
		c.metrics.IncrementCoalesced()
		return target
	}
	c.refreshing = true
	c.mu.Unlock()

	go c.refreshLoop()
	return target
}

// Refresh synchronously replaces the snapshot from the store. Used by the
// manual sync path. On store failure the previous snapshot is kept and the
// error is returned and surfaced to listeners.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	target := c.gen
	c.mu.Unlock()

	return c.refreshOnce(ctx, target)
}

// Create writes a clinic through to the store, then invalidates. The cache is
// left untouched when the store rejects the write.
func (c *Cache) Create(ctx context.Context, clinic *domain.Clinic) error {
	if err := c.store.Create(ctx, clinic); err != nil {
		return fmt.Errorf("create clinic: %w", err)
	}
	c.Invalidate()
	return nil
}

// Update applies a partial update through to the store, then invalidates.
func (c *Cache) Update(ctx context.Context, id domain.ClinicID, patch domain.ClinicPatch) error {
	if err := c.store.Update(ctx, id, patch); err != nil {
		return fmt.Errorf("update clinic: %w", err)
	}
	c.Invalidate()
	return nil
}

// Delete removes a clinic through the store, then invalidates.
func (c *Cache) Delete(ctx context.Context, id domain.ClinicID) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete clinic: %w", err)
	}
	c.Invalidate()
	return nil
}

// refreshLoop drains the invalidation counter: one store fetch per pass, and
// another pass only if the generation moved while fetching. This bounds store
// load under event bursts to one in-flight refresh plus one queued.
func (c *Cache) refreshLoop() {
	for {
		c.mu.Lock()
		target := c.gen
		c.mu.Unlock()

		ctx, cancel := context.WithTimeout(c.baseCtx, c.refreshTimeout)
		err := c.refreshOnce(ctx, target)
		cancel()
		if err != nil {
			c.logger.Warn("cache refresh failed",
				"generation", target,
				"error", err,
			)
		}

		c.mu.Lock()
		if c.gen == target || c.baseCtx.Err() != nil {
			c.refreshing = false
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
	}
}

// refreshOnce fetches the full clinic list and installs it as the snapshot,
// unless a refresh for a later generation already did (last writer by
// generation, not last to complete).
func (c *Cache) refreshOnce(ctx context.Context, target uint64) error {
	start := time.Now()
	clinics, err := c.store.List(ctx)
	c.metrics.ObserveRefresh(time.Since(start))
	if err != nil {
		c.metrics.IncrementRefresh("error")
		c.notify(Update{Snapshot: c.List(), Err: fmt.Errorf("refresh clinics: %w", err)})
		return fmt.Errorf("refresh clinics: %w", err)
	}

	c.mu.Lock()
	if target < c.snapshot.Generation {
		c.mu.Unlock()
		c.metrics.IncrementRefresh("superseded")
		return nil
	}
	c.snapshot = Snapshot{
		Clinics:     clinics,
		Generation:  target,
		RefreshedAt: time.Now(),
	}
	installed := c.snapshot
	c.mu.Unlock()

	c.metrics.IncrementRefresh("ok")
	c.metrics.SetSnapshot(len(installed.Clinics), installed.Generation)
	c.notify(Update{Snapshot: installed})
	return nil
}

func (c *Cache) notify(u Update) {
	c.lmu.Lock()
	ls := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		ls = append(ls, l)
	}
	c.lmu.Unlock()
	for _, l := range ls {
		l(u)
	}
}
