package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sijil/internal/domain"
	"sijil/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) newClinic(license string, createdAt time.Time) *domain.Clinic {
	return &domain.Clinic{
		ID:            domain.NewClinicID(),
		LicenseNumber: license,
		Name:          "Clinic " + license,
		Governorate:   "Aleppo",
		Status:        domain.LicenseActive,
		CreatedAt:     createdAt,
	}
}

func (s *InMemoryStoreSuite) TestListNewestFirst() {
	base := time.Now()
	oldest := s.newClinic("AA-01", base.Add(-2*time.Hour))
	middle := s.newClinic("AA-02", base.Add(-time.Hour))
	newest := s.newClinic("AA-03", base)
	for _, c := range []*domain.Clinic{middle, oldest, newest} {
		s.Require().NoError(s.store.Create(s.ctx, c))
	}

	got, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal(newest.ID, got[0].ID)
	s.Equal(middle.ID, got[1].ID)
	s.Equal(oldest.ID, got[2].ID)
}

// Duplicate license rows come back oldest-first so the engine's "take the
// first match" stays deterministic.
func (s *InMemoryStoreSuite) TestFindByLicenseDeterministicOrder() {
	base := time.Now()
	older := s.newClinic("DUP-1", base.Add(-time.Hour))
	newer := s.newClinic("DUP-1", base)
	s.Require().NoError(s.store.Create(s.ctx, newer))
	s.Require().NoError(s.store.Create(s.ctx, older))

	got, err := s.store.FindByLicense(s.ctx, "DUP-1")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(older.ID, got[0].ID)

	none, err := s.store.FindByLicense(s.ctx, "NOPE-0")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *InMemoryStoreSuite) TestCreateAssignsIdentity() {
	c := &domain.Clinic{LicenseNumber: "AB-12", Name: "Fresh"}
	s.Require().NoError(s.store.Create(s.ctx, c))
	s.False(c.ID.IsNil())
	s.False(c.CreatedAt.IsZero())
}

func (s *InMemoryStoreSuite) TestUpdate() {
	c := s.newClinic("AB-12", time.Now())
	s.Require().NoError(s.store.Create(s.ctx, c))

	name := "Renamed"
	status := domain.LicenseSuspended
	s.Require().NoError(s.store.Update(s.ctx, c.ID, domain.ClinicPatch{Name: &name, Status: &status}))

	got, err := s.store.FindByLicense(s.ctx, "AB-12")
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("Renamed", got[0].Name)
	s.Equal(domain.LicenseSuspended, got[0].Status)

	err = s.store.Update(s.ctx, domain.NewClinicID(), domain.ClinicPatch{Name: &name})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestDelete() {
	c := s.newClinic("AB-12", time.Now())
	s.Require().NoError(s.store.Create(s.ctx, c))
	s.Require().NoError(s.store.Delete(s.ctx, c.ID))

	got, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(got)

	s.Require().ErrorIs(s.store.Delete(s.ctx, c.ID), sentinel.ErrNotFound)
}
