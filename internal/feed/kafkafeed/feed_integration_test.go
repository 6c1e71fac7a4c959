//go:build integration

package kafkafeed_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"sijil/internal/feed"
	"sijil/internal/feed/kafkafeed"
	"sijil/pkg/testutil/containers"
)

func TestKafkaFeedDeliversProducedEnvelopes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	rp := containers.NewRedpandaContainer(t)
	defer rp.Terminate(ctx)

	const topic = "sijil.changes"
	f := kafkafeed.New(kafkafeed.Config{
		Brokers: []string{rp.Broker},
		Topic:   topic,
		Group:   "sijil-test",
	}, slog.New(slog.DiscardHandler))

	sub, err := f.Subscribe(ctx, "clinics")
	require.NoError(t, err)
	defer sub.Close()

	producer, err := kgo.NewClient(kgo.SeedBrokers(rp.Broker), kgo.DefaultProduceTopic(topic))
	require.NoError(t, err)
	defer producer.Close()

	// The consumer starts at the end of the topic; keep producing fresh
	// envelopes until the group has joined and one comes through.
	deadline := time.After(60 * time.Second)
	var got feed.Event
	seq := 0
	for got.ID == "" {
		seq++
		payload, merr := json.Marshal(feed.Event{
			ID:         fmt.Sprintf("evt-%d", seq),
			Table:      "clinics",
			Kind:       feed.KindUpdate,
			OccurredAt: time.Now().UTC(),
		})
		require.NoError(t, merr)
		producer.Produce(ctx, &kgo.Record{Value: payload}, nil)

		select {
		case got = <-sub.Events():
		case err := <-sub.Err():
			t.Fatalf("feed broke: %v", err)
		case <-deadline:
			t.Fatal("no envelope consumed from the broker")
		case <-time.After(500 * time.Millisecond):
		}
	}
	require.Equal(t, "clinics", got.Table)
	require.Equal(t, feed.KindUpdate, got.Kind)
}
