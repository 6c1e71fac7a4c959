//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sijil/internal/clinic/store"
	"sijil/internal/domain"
	"sijil/pkg/platform/sentinel"
	"sijil/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.NewPostgresContainer(s.T())
	s.postgres.ApplySchema(s.T(), "../../../db/schema.sql")
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	s.postgres.Terminate(s.ctx)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(s.ctx, "verification_attempts", "clinics"))
}

func (s *PostgresStoreSuite) newClinic(license, name string, createdAt time.Time) *domain.Clinic {
	return &domain.Clinic{
		ID:            domain.NewClinicID(),
		LicenseNumber: license,
		Name:          name,
		Governorate:   "Muscat",
		Status:        domain.LicenseActive,
		CreatedAt:     createdAt,
	}
}

func (s *PostgresStoreSuite) TestCreateAndListNewestFirst() {
	base := time.Now().UTC().Truncate(time.Microsecond)
	older := s.newClinic("AB-1", "Older", base.Add(-time.Hour))
	newer := s.newClinic("AB-2", "Newer", base)
	s.Require().NoError(s.store.Create(s.ctx, older))
	s.Require().NoError(s.store.Create(s.ctx, newer))

	got, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("Newer", got[0].Name)
	s.Equal("Older", got[1].Name)
	s.Equal(domain.LicenseActive, got[0].Status)
}

func (s *PostgresStoreSuite) TestFindByLicense() {
	c := s.newClinic("MH-100", "Target", time.Now().UTC())
	s.Require().NoError(s.store.Create(s.ctx, c))
	s.Require().NoError(s.store.Create(s.ctx, s.newClinic("MH-200", "Other", time.Now().UTC())))

	got, err := s.store.FindByLicense(s.ctx, "MH-100")
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(c.ID, got[0].ID)

	none, err := s.store.FindByLicense(s.ctx, "MH-999")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *PostgresStoreSuite) TestDuplicateLicenseConflicts() {
	s.Require().NoError(s.store.Create(s.ctx, s.newClinic("AB-1", "First", time.Now().UTC())))

	err := s.store.Create(s.ctx, s.newClinic("AB-1", "Second", time.Now().UTC()))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestUpdatePatchesOnlyGivenFields() {
	c := s.newClinic("AB-1", "Before", time.Now().UTC())
	s.Require().NoError(s.store.Create(s.ctx, c))

	name := "After"
	status := domain.LicenseSuspended
	err := s.store.Update(s.ctx, c.ID, domain.ClinicPatch{Name: &name, Status: &status})
	s.Require().NoError(err)

	got, err := s.store.FindByLicense(s.ctx, "AB-1")
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("After", got[0].Name)
	s.Equal(domain.LicenseSuspended, got[0].Status)
	s.Equal("Muscat", got[0].Governorate, "untouched fields survive the patch")
}

func (s *PostgresStoreSuite) TestUpdateMissingClinic() {
	name := "X"
	err := s.store.Update(s.ctx, domain.NewClinicID(), domain.ClinicPatch{Name: &name})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateToTakenLicenseConflicts() {
	s.Require().NoError(s.store.Create(s.ctx, s.newClinic("AB-1", "First", time.Now().UTC())))
	second := s.newClinic("AB-2", "Second", time.Now().UTC())
	s.Require().NoError(s.store.Create(s.ctx, second))

	taken := "AB-1"
	err := s.store.Update(s.ctx, second.ID, domain.ClinicPatch{LicenseNumber: &taken})
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestDelete() {
	c := s.newClinic("AB-1", "Doomed", time.Now().UTC())
	s.Require().NoError(s.store.Create(s.ctx, c))

	s.Require().NoError(s.store.Delete(s.ctx, c.ID))
	s.Require().ErrorIs(s.store.Delete(s.ctx, c.ID), sentinel.ErrNotFound)
}
