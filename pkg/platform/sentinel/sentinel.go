package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and feed implementations
// return these (optionally wrapped) so services can classify failures without
// depending on driver error types.
//
// These represent factual states about resources, not validation failures:
//   - ErrNotFound: row does not exist in the store
//   - ErrConflict: write rejected by a uniqueness or state constraint
//   - ErrUnavailable: store or feed temporarily unreachable; retry is the
//     caller's decision, never the store's
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
