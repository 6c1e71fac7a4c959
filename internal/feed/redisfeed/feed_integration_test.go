//go:build integration

package redisfeed_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sijil/internal/feed"
	"sijil/internal/feed/redisfeed"
	"sijil/pkg/testutil/containers"
)

func TestRedisFeedDeliversPublishedEnvelopes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	defer rc.Terminate(ctx)

	f := redisfeed.New(rc.Client, slog.New(slog.DiscardHandler))
	sub, err := f.Subscribe(ctx, "clinics")
	require.NoError(t, err)
	defer sub.Close()

	payload, err := json.Marshal(feed.Event{
		ID:         "evt-1",
		Table:      "clinics",
		Kind:       feed.KindInsert,
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, rc.Client.Publish(ctx, "sijil:changes:clinics", payload).Err())

	select {
	case ev := <-sub.Events():
		require.Equal(t, "evt-1", ev.ID)
		require.Equal(t, feed.KindInsert, ev.Kind)
	case err := <-sub.Err():
		t.Fatalf("feed broke: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("published envelope never arrived")
	}

	// Garbage payloads are skipped, not fatal.
	require.NoError(t, rc.Client.Publish(ctx, "sijil:changes:clinics", "not json").Err())
	require.NoError(t, rc.Client.Publish(ctx, "sijil:changes:clinics", mustEnvelope(t, "evt-2")).Err())

	select {
	case ev := <-sub.Events():
		require.Equal(t, "evt-2", ev.ID)
	case <-time.After(10 * time.Second):
		t.Fatal("feed stalled after bad payload")
	}
}

func mustEnvelope(t *testing.T, id string) []byte {
	t.Helper()
	payload, err := json.Marshal(feed.Event{ID: id, Table: "clinics", Kind: feed.KindUpdate})
	require.NoError(t, err)
	return payload
}
