package domain

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

// ClinicID identifies a clinic record. It is assigned by the store and
// treated as opaque everywhere else.
type ClinicID uuid.UUID

func NewClinicID() ClinicID {
	return ClinicID(uuid.New())
}

func ParseClinicID(s string) (ClinicID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ClinicID{}, err
	}
	return ClinicID(id), nil
}

func (id ClinicID) String() string {
	return uuid.UUID(id).String()
}

func (id ClinicID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// MarshalText keeps the canonical uuid string form on the wire.
func (id ClinicID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *ClinicID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = ClinicID(u)
	return nil
}

// Compare orders clinic ids bytewise. Used as the final tie-break when a
// license number matches more than one row.
func (id ClinicID) Compare(other ClinicID) int {
	a, b := uuid.UUID(id), uuid.UUID(other)
	return bytes.Compare(a[:], b[:])
}

// LicenseStatus is the registry's view of a clinic license.
type LicenseStatus string

const (
	LicenseActive    LicenseStatus = "active"
	LicenseExpired   LicenseStatus = "expired"
	LicenseSuspended LicenseStatus = "suspended"
	LicensePending   LicenseStatus = "pending"
)

// Valid reports whether the status is one of the known license states.
func (s LicenseStatus) Valid() bool {
	switch s {
	case LicenseActive, LicenseExpired, LicenseSuspended, LicensePending:
		return true
	}
	return false
}

// Clinic is a registry row mirrored from the remote store.
//
// Invariants:
//   - LicenseNumber is stored in canonical form (see internal/normalize)
//   - LicenseNumber is unique among live rows; uniqueness is enforced by the
//     store, and readers tolerate duplicates by deterministic tie-break
//   - CreatedAt is immutable after creation
//
// The cache never originates clinic data; rows are created and mutated only
// through explicit store writes.
type Clinic struct {
	ID            ClinicID      `json:"id"`
	LicenseNumber string        `json:"license_number"`
	Name          string        `json:"name"`
	Governorate   string        `json:"governorate"`
	Status        LicenseStatus `json:"license_status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// ClinicPatch carries a partial update. Nil fields are left untouched.
type ClinicPatch struct {
	LicenseNumber *string        `json:"license_number,omitempty"`
	Name          *string        `json:"name,omitempty"`
	Governorate   *string        `json:"governorate,omitempty"`
	Status        *LicenseStatus `json:"license_status,omitempty"`
}

// Empty reports whether the patch carries no changes.
func (p ClinicPatch) Empty() bool {
	return p.LicenseNumber == nil && p.Name == nil && p.Governorate == nil && p.Status == nil
}
