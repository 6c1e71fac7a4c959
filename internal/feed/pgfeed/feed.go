// Package pgfeed delivers change events over postgres LISTEN/NOTIFY. The
// notify trigger installed by db/schema.sql emits the shared JSON envelope on
// one channel per table.
package pgfeed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lib/pq"

	"sijil/internal/feed"
)

const (
	channelPrefix = "sijil_changes_"

	minReconnect = time.Second
	maxReconnect = 30 * time.Second
)

// Feed opens LISTEN subscriptions on the store's own connection string, so
// change delivery needs no extra infrastructure beyond postgres itself.
type Feed struct {
	dsn    string
	logger *slog.Logger
}

func New(dsn string, logger *slog.Logger) *Feed {
	return &Feed{dsn: dsn, logger: logger}
}

func (f *Feed) Subscribe(ctx context.Context, table string) (feed.Subscription, error) {
	s := &subscription{
		table:  table,
		logger: f.logger,
		events: make(chan feed.Event),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}

	listener := pq.NewListener(f.dsn, minReconnect, maxReconnect, s.onListenerEvent)
	if err := listener.Listen(channelPrefix + table); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("listen %s%s: %w", channelPrefix, table, err)
	}
	s.listener = listener

	go s.run(ctx)
	return s, nil
}

type subscription struct {
	table     string
	logger    *slog.Logger
	listener  *pq.Listener
	events    chan feed.Event
	errs      chan error
	done      chan struct{}
	closeOnce sync.Once
}

func (s *subscription) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.fail(ctx.Err())
			return
		case <-s.done:
			return
		case n, ok := <-s.listener.Notify:
			if !ok {
				s.fail(fmt.Errorf("postgres listener closed"))
				return
			}
			if n == nil {
				// Reconnect marker from the driver; events sent while the
				// connection was down are lost, the next event triggers a
				// full refresh anyway.
				continue
			}
			ev, err := feed.ParseEvent([]byte(n.Extra))
			if err != nil {
				s.logger.Warn("bad change payload", "channel", n.Channel, "error", err)
				continue
			}
			if ev.Table != s.table {
				continue
			}
			select {
			case s.events <- ev:
			case <-s.done:
				return
			case <-ctx.Done():
				s.fail(ctx.Err())
				return
			}
		}
	}
}

func (s *subscription) onListenerEvent(ev pq.ListenerEventType, err error) {
	if ev == pq.ListenerEventConnectionAttemptFailed {
		s.fail(fmt.Errorf("postgres listener reconnect failed: %w", err))
	}
}

func (s *subscription) fail(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

func (s *subscription) Events() <-chan feed.Event { return s.events }
func (s *subscription) Err() <-chan error         { return s.errs }

func (s *subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.listener.Close()
	})
	return err
}
