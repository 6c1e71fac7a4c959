// Package redisfeed delivers change events over redis pub/sub. Producers
// publish the shared JSON envelope on one channel per table
// (sijil:changes:<table>).
package redisfeed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"sijil/internal/feed"
)

const channelPrefix = "sijil:changes:"

// Feed subscribes to per-table pub/sub channels on an existing redis client.
type Feed struct {
	client *redis.Client
	logger *slog.Logger
}

func New(client *redis.Client, logger *slog.Logger) *Feed {
	return &Feed{client: client, logger: logger}
}

func (f *Feed) Subscribe(ctx context.Context, table string) (feed.Subscription, error) {
	pubsub := f.client.Subscribe(ctx, channelPrefix+table)
	// Confirm the subscription before handing it out; a dead redis should
	// fail Subscribe, not surface later as a silent stream.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s%s: %w", channelPrefix, table, err)
	}

	s := &subscription{
		table:  table,
		logger: f.logger,
		pubsub: pubsub,
		events: make(chan feed.Event),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}
	go s.run(ctx)
	return s, nil
}

type subscription struct {
	table     string
	logger    *slog.Logger
	pubsub    *redis.PubSub
	events    chan feed.Event
	errs      chan error
	done      chan struct{}
	closeOnce sync.Once
}

func (s *subscription) run(ctx context.Context) {
	for {
		msg, err := s.pubsub.ReceiveMessage(ctx)
		if err != nil {
			select {
			case <-s.done:
			default:
				s.fail(fmt.Errorf("receive change message: %w", err))
			}
			return
		}
		ev, perr := feed.ParseEvent([]byte(msg.Payload))
		if perr != nil {
			s.logger.Warn("bad change payload", "channel", msg.Channel, "error", perr)
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
		err = s.pubsub.Close()
	})
	return err
}
