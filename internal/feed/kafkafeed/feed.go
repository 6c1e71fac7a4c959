// Package kafkafeed consumes change events from a kafka topic carrying the
// shared JSON envelope. Used when the store's own notification channel is
// fronted by a broker (CDC pipelines publishing row changes).
package kafkafeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"sijil/internal/feed"
)

// Config for the kafka change feed.
type Config struct {
	Brokers []string
	Topic   string
	// Group is the consumer group prefix; each table subscription joins
	// <group>-<table> so tables progress independently.
	Group string
}

// Feed opens one kafka consumer per table subscription.
type Feed struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Feed {
	return &Feed{cfg: cfg, logger: logger}
}

func (f *Feed) Subscribe(ctx context.Context, table string) (feed.Subscription, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(f.cfg.Brokers...),
		kgo.ConsumeTopics(f.cfg.Topic),
		kgo.ConsumerGroup(fmt.Sprintf("%s-%s", f.cfg.Group, table)),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, f.cfg.Topic); err != nil {
		client.Close()
		return nil, err
	}

	s := &subscription{
		table:  table,
		logger: f.logger,
		client: client,
		events: make(chan feed.Event),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}
	go s.run(ctx)
	return s, nil
}

// ensureTopic creates the change topic when it does not exist yet, so a fresh
// environment does not need out-of-band topic management.
func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, 1, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, resp.Err)
	}
	return nil
}

type subscription struct {
	table     string
	logger    *slog.Logger
	client    *kgo.Client
	events    chan feed.Event
	errs      chan error
	done      chan struct{}
	closeOnce sync.Once
}

func (s *subscription) run(ctx context.Context) {
	for {
		fetches := s.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return
		}
		if err := ctx.Err(); err != nil {
			s.fail(err)
			return
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			s.fail(fmt.Errorf("poll changes: %w", errs[0].Err))
			return
		}
		fetches.EachRecord(func(rec *kgo.Record) {
			ev, err := feed.ParseEvent(rec.Value)
			if err != nil {
				s.logger.Warn("bad change payload",
					"topic", rec.Topic,
					"offset", rec.Offset,
					"error", err,
				)
				return
			}
			if ev.Table != s.table {
				return
			}
			select {
			case s.events <- ev:
			case <-s.done:
			}
		})
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
	s.closeOnce.Do(func() {
		close(s.done)
		s.client.Close()
	})
	return nil
}
