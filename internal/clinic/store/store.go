package store

import (
	"context"

	"sijil/internal/domain"
)

// Store is the row-level contract for the clinics table. Implementations are
// write-through: no implementation caches, the cache layer sits above.
//
// Ordering contracts matter here because the layers above rely on them:
//   - List returns rows newest-first by creation time.
//   - FindByLicense returns matches ordered by creation time ascending, then
//     id ascending for identical timestamps, so duplicate license rows always
//     resolve to the same first match.
type Store interface {
	List(ctx context.Context) ([]domain.Clinic, error)
	FindByLicense(ctx context.Context, license string) ([]domain.Clinic, error)
	Create(ctx context.Context, clinic *domain.Clinic) error
	Update(ctx context.Context, id domain.ClinicID, patch domain.ClinicPatch) error
	Delete(ctx context.Context, id domain.ClinicID) error
}
