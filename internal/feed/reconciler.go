package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"sijil/internal/clinic/cache"
	feedmetrics "sijil/internal/feed/metrics"
	"sijil/internal/notify"
)

// State is the reconciler's connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateSubscribed   State = "subscribed"
)

// Invalidator is what the reconciler needs from the clinic cache.
type Invalidator interface {
	Invalidate() uint64
	OnChange(cache.Listener) (unsubscribe func())
}

// dedupeWindow bounds the remembered event ids. Feeds redeliver on
// reconnect; anything older than the window refreshes twice, which is
// harmless.
const dedupeWindow = 512

type pendingNotice struct {
	generation uint64
	kind       Kind
}

// Reconciler subscribes to the store's change feed and keeps the clinic
// cache consistent with remote mutations, raising user-facing notifications
// for inserts and updates.
//
// Two states: disconnected and subscribed. A broken subscription drops the
// reconciler back to disconnected and reports on Err; there is no internal
// reconnect loop, the owner decides when to re-subscribe.
type Reconciler struct {
	feed     Feed
	cache    Invalidator
	notifier notify.Notifier
	logger   *slog.Logger
	metrics  *feedmetrics.Metrics
	tables   map[string]bool

	mu         sync.Mutex
	state      State
	sub        Subscription
	stopListen func()
	cancel     context.CancelFunc
	seen       map[string]bool
	seenOrder  []string
	pending    []pendingNotice
	notices    map[Kind]notify.Notification
	errCh      chan error
}

// ReconcilerOption configures optional reconciler dependencies.
type ReconcilerOption func(*Reconciler)

func WithMetrics(m *feedmetrics.Metrics) ReconcilerOption {
	return func(r *Reconciler) { r.metrics = m }
}

// NewReconciler watches the given tables (the clinics table in production).
func NewReconciler(f Feed, c Invalidator, n notify.Notifier, logger *slog.Logger, tables []string, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		feed:     f,
		cache:    c,
		notifier: n,
		logger:   logger,
		tables:   make(map[string]bool, len(tables)),
		state:    StateDisconnected,
		seen:     make(map[string]bool, dedupeWindow),
		errCh:    make(chan error, 1),
		notices: map[Kind]notify.Notification{
			KindInsert: {Title: "New clinic", Body: "A clinic was added to the registry", Severity: notify.SeverityInfo},
			KindUpdate: {Title: "Clinic updated", Body: "A clinic record was updated", Severity: notify.SeverityInfo},
		},
	}
	for _, t := range tables {
		r.tables[t] = true
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// State reports the current connection state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err delivers subscription failures to the owner. Buffered with one slot;
// the owner re-subscribes explicitly.
func (r *Reconciler) Err() <-chan error {
	return r.errCh
}

// Subscribe opens one logical subscription per watched table and starts
// consuming. Returns an error when already subscribed or when the feed
// cannot be opened, in which case the state stays disconnected.
func (r *Reconciler) Subscribe(ctx context.Context) error {
	r.mu.Lock()
	if r.state == StateSubscribed {
		r.mu.Unlock()
		return fmt.Errorf("reconciler already subscribed")
	}
	r.mu.Unlock()

	subs := make([]Subscription, 0, len(r.tables))
	for table := range r.tables {
		sub, err := r.feed.Subscribe(ctx, table)
		if err != nil {
			for _, s := range subs {
				_ = s.Close()
			}
			return fmt.Errorf("subscribe %s feed: %w", table, err)
		}
		subs = append(subs, sub)
	}
	merged := mergeSubscriptions(subs)

	runCtx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	r.sub = merged
	r.cancel = cancel
	r.stopListen = r.cache.OnChange(r.onCacheUpdate(runCtx))
	r.state = StateSubscribed
	r.mu.Unlock()

	r.logger.Info("change feed subscribed", "tables", len(r.tables))
	go r.run(runCtx, merged)
	return nil
}

// Close tears the subscription down without reporting an error.
func (r *Reconciler) Close() {
	r.teardown(nil)
}

func (r *Reconciler) run(ctx context.Context, sub Subscription) {
	for {
		select {
		case <-ctx.Done():
			r.teardown(nil)
			return
		case err := <-sub.Err():
			r.logger.Error("change feed broken", "error", err)
			r.teardown(err)
			return
		case ev, ok := <-sub.Events():
			if !ok {
				r.teardown(fmt.Errorf("change feed closed"))
				return
			}
			r.handleEvent(ev)
		}
	}
}

func (r *Reconciler) handleEvent(ev Event) {
	if !r.tables[ev.Table] {
		return
	}
	if r.isDuplicate(ev.ID) {
		r.metrics.IncrementDuplicate()
		return
	}
	r.metrics.IncrementEvent(ev.Table, string(ev.Kind))
	r.logger.Debug("change event",
		"table", ev.Table,
		"kind", ev.Kind,
		"event_id", ev.ID,
	)

	// Notifications wait for the refresh that covers this invalidation, so
	// they never refer to data the snapshot does not yet show. The notice is
	// registered under the same lock the update listener takes, so a refresh
	// can never complete in between.
	if ev.Kind == KindInsert || ev.Kind == KindUpdate {
		r.mu.Lock()
		generation := r.cache.Invalidate()
		r.pending = append(r.pending, pendingNotice{generation: generation, kind: ev.Kind})
		r.mu.Unlock()
		return
	}
	r.cache.Invalidate()
}

func (r *Reconciler) isDuplicate(id string) bool {
	if id == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[id] {
		return true
	}
	r.seen[id] = true
	r.seenOrder = append(r.seenOrder, id)
	if len(r.seenOrder) > dedupeWindow {
		oldest := r.seenOrder[0]
		r.seenOrder = r.seenOrder[1:]
		delete(r.seen, oldest)
	}
	return false
}

func (r *Reconciler) onCacheUpdate(ctx context.Context) cache.Listener {
	return func(u cache.Update) {
		if u.Err != nil {
			// Transient: last-good snapshot stays in place, pending notices
			// wait for the next successful refresh.
			r.notifier.Notify(ctx, notify.Notification{
				Title:    "Sync delayed",
				Body:     "The registry could not be refreshed; showing the last known state",
				Severity: notify.SeverityWarning,
			})
			return
		}

		r.mu.Lock()
		var due []pendingNotice
		kept := r.pending[:0]
		for _, n := range r.pending {
			if n.generation <= u.Snapshot.Generation {
				due = append(due, n)
			} else {
				kept = append(kept, n)
			}
		}
		r.pending = kept
		r.mu.Unlock()

		for _, n := range due {
			r.metrics.IncrementNotification(string(n.kind))
			r.notifier.Notify(ctx, r.notices[n.kind])
		}
	}
}

func (r *Reconciler) teardown(cause error) {
	r.mu.Lock()
	if r.state == StateDisconnected {
		r.mu.Unlock()
		return
	}
	r.state = StateDisconnected
	sub := r.sub
	stop := r.stopListen
	cancel := r.cancel
	r.sub = nil
	r.stopListen = nil
	r.cancel = nil
	r.pending = nil
	r.mu.Unlock()

	if stop != nil {
		stop()
	}
	if sub != nil {
		_ = sub.Close()
	}
	if cancel != nil {
		cancel()
	}
	if cause != nil {
		r.metrics.IncrementDisconnect()
		select {
		case r.errCh <- cause:
		default:
		}
	}
}

// mergeSubscriptions fans several table subscriptions into one stream. The
// first broken subscription breaks the merged one.
func mergeSubscriptions(subs []Subscription) Subscription {
	if len(subs) == 1 {
		return subs[0]
	}
	m := &mergedSub{
		subs:   subs,
		events: make(chan Event),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}
	for _, s := range subs {
		go m.pump(s)
	}
	return m
}

type mergedSub struct {
	subs      []Subscription
	events    chan Event
	errs      chan error
	done      chan struct{}
	closeOnce sync.Once
}

func (m *mergedSub) pump(s Subscription) {
	for {
		select {
		case <-m.done:
			return
		case ev, ok := <-s.Events():
			if !ok {
				return
			}
			select {
			case m.events <- ev:
			case <-m.done:
				return
			}
		case err := <-s.Err():
			select {
			case m.errs <- err:
			default:
			}
			return
		}
	}
}

func (m *mergedSub) Events() <-chan Event { return m.events }
func (m *mergedSub) Err() <-chan error    { return m.errs }

func (m *mergedSub) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
		for _, s := range m.subs {
			_ = s.Close()
		}
	})
	return nil
}
