package store

import (
	"context"
	"sync"
	"time"

	"sijil/internal/domain"
)

// InMemoryStore keeps attempts in an append-ordered slice. Test and local
// development sink.
type InMemoryStore struct {
	mu       sync.RWMutex
	attempts []domain.VerificationAttempt
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, attempt domain.VerificationAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt.ID.IsNil() {
		attempt.ID = domain.NewAttemptID()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now()
	}
	s.attempts = append(s.attempts, attempt)
	return nil
}

func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]domain.VerificationAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.attempts)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]domain.VerificationAttempt, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.attempts[i])
	}
	return out, nil
}

func (s *InMemoryStore) CountByOutcome(_ context.Context) (map[domain.VerificationOutcome]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[domain.VerificationOutcome]int)
	for _, a := range s.attempts {
		counts[a.Outcome]++
	}
	return counts, nil
}

// Len reports the number of stored attempts. Test helper.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attempts)
}
