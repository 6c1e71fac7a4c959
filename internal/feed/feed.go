// Package feed defines the change-event stream consumed from the remote
// store, and the reconciler that keeps the clinic cache consistent with it.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Kind classifies a change event.
type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
	KindOther  Kind = "other"
)

// ParseKind folds unknown kinds to KindOther; the reconciler still refreshes
// on them, it just raises no notification.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindInsert, KindUpdate, KindDelete:
		return Kind(s)
	}
	return KindOther
}

// Event is one row-change notification. Ephemeral: consumed once, never
// persisted by this engine.
type Event struct {
	ID         string    `json:"id"`
	Table      string    `json:"table"`
	Kind       Kind      `json:"kind"`
	RowIDs     []string  `json:"row_ids,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ParseEvent decodes the JSON envelope shared by all feed drivers. Events may
// arrive duplicated or out of order; the reconciler handles both.
func ParseEvent(payload []byte) (Event, error) {
	var raw struct {
		ID         string    `json:"id"`
		Table      string    `json:"table"`
		Kind       string    `json:"kind"`
		RowIDs     []string  `json:"row_ids"`
		OccurredAt time.Time `json:"occurred_at"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Event{}, fmt.Errorf("decode change event: %w", err)
	}
	if raw.Table == "" {
		return Event{}, fmt.Errorf("decode change event: missing table")
	}
	return Event{
		ID:         raw.ID,
		Table:      raw.Table,
		Kind:       ParseKind(raw.Kind),
		RowIDs:     raw.RowIDs,
		OccurredAt: raw.OccurredAt,
	}, nil
}

// Subscription is one live event stream. Exactly one terminal error is
// delivered on Err when the stream breaks; Close tears the stream down and is
// safe to call more than once.
type Subscription interface {
	Events() <-chan Event
	Err() <-chan error
	Close() error
}

// Feed opens change-event subscriptions per table. Implementations exist for
// postgres LISTEN/NOTIFY, redis pub/sub, and kafka.
type Feed interface {
	Subscribe(ctx context.Context, table string) (Subscription, error)
}
