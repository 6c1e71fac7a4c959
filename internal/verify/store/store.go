package store

import (
	"context"

	"sijil/internal/domain"
)

// Store is the append-only contract for the verification_attempts table.
// Attempts are audit records: nothing in this engine updates or deletes them.
type Store interface {
	Append(ctx context.Context, attempt domain.VerificationAttempt) error
	// ListRecent returns the most recent attempts, newest-first, capped at
	// limit. Used by the ops endpoint, never by the verification path.
	ListRecent(ctx context.Context, limit int) ([]domain.VerificationAttempt, error)
	// CountByOutcome returns attempt totals keyed by outcome.
	CountByOutcome(ctx context.Context) (map[domain.VerificationOutcome]int, error)
}
