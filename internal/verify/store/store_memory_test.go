package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sijil/internal/domain"
)

func TestInMemoryStoreAppendAssignsIdentity(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, domain.VerificationAttempt{
		LicenseNumber: "AB-1",
		Method:        domain.MethodQRScan,
		Outcome:       domain.OutcomeSuccess,
	}))

	got, err := s.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].ID.IsNil())
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestInMemoryStoreListRecentNewestFirst(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	for _, license := range []string{"A-1", "A-2", "A-3"} {
		require.NoError(t, s.Append(ctx, domain.VerificationAttempt{
			LicenseNumber: license,
			Method:        domain.MethodManualEntry,
			Outcome:       domain.OutcomeNotFound,
		}))
	}

	got, err := s.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A-3", got[0].LicenseNumber)
	assert.Equal(t, "A-2", got[1].LicenseNumber)

	all, err := s.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestInMemoryStoreCountByOutcome(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	for _, o := range []domain.VerificationOutcome{
		domain.OutcomeSuccess, domain.OutcomeFailed, domain.OutcomeSuccess,
	} {
		require.NoError(t, s.Append(ctx, domain.VerificationAttempt{
			LicenseNumber: "AB-1",
			Method:        domain.MethodQRScan,
			Outcome:       o,
		}))
	}

	counts, err := s.CountByOutcome(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[domain.OutcomeSuccess])
	assert.Equal(t, 1, counts[domain.OutcomeFailed])
	assert.Equal(t, 3, s.Len())
}
