package domain

import (
	"time"

	"github.com/google/uuid"
)

// AttemptID identifies a verification attempt record.
type AttemptID uuid.UUID

func NewAttemptID() AttemptID {
	return AttemptID(uuid.New())
}

func (id AttemptID) String() string {
	return uuid.UUID(id).String()
}

func (id AttemptID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// MarshalText keeps the canonical uuid string form on the wire.
func (id AttemptID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *AttemptID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = AttemptID(u)
	return nil
}

// CaptureMethod records how the license number reached the engine.
type CaptureMethod string

const (
	MethodQRScan      CaptureMethod = "qr_scan"
	MethodManualEntry CaptureMethod = "manual_entry"
	MethodImageUpload CaptureMethod = "image_upload"
)

func (m CaptureMethod) Valid() bool {
	switch m {
	case MethodQRScan, MethodManualEntry, MethodImageUpload:
		return true
	}
	return false
}

// VerificationOutcome classifies a single verification call.
//
// OutcomeFailed means the store could not be queried; it is a normal business
// outcome rendered to the caller, not an error.
type VerificationOutcome string

const (
	OutcomeSuccess  VerificationOutcome = "success"
	OutcomeFailed   VerificationOutcome = "failed"
	OutcomeNotFound VerificationOutcome = "not_found"
)

// VerificationAttempt is the append-only audit record of one verification
// call. Attempts are never mutated or deleted by this engine.
type VerificationAttempt struct {
	ID            AttemptID           `json:"id"`
	ClinicID      *ClinicID           `json:"clinic_id"` // nil when no match
	LicenseNumber string              `json:"license_number"`
	Method        CaptureMethod       `json:"verification_method"`
	Outcome       VerificationOutcome `json:"verification_status"`
	ClientAgent   string              `json:"client_agent"`
	CreatedAt     time.Time           `json:"created_at"`
}

// VerificationResult is what the engine hands back to the caller. It is
// deliberately UI-agnostic: rendering, dialog state and navigation belong to
// the caller.
type VerificationResult struct {
	Clinic        *Clinic             `json:"clinic"`
	Status        VerificationOutcome `json:"status"`
	LicenseNumber string              `json:"license_number"` // canonical form queried
}
