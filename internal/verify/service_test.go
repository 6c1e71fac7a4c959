package verify_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sijil/internal/domain"
	"sijil/internal/verify"
	"sijil/internal/verify/mocks"
	verifystore "sijil/internal/verify/store"
)

type ServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	clinics  *mocks.MockClinicFinder
	attempts *mocks.MockAttemptStore
	service  *verify.Service
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.clinics = mocks.NewMockClinicFinder(s.ctrl)
	s.attempts = mocks.NewMockAttemptStore(s.ctrl)
	s.service = verify.NewService(s.clinics, s.attempts, discardLogger())
	s.ctx = context.Background()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func activeClinic(license string) domain.Clinic {
	return domain.Clinic{
		ID:            domain.NewClinicID(),
		LicenseNumber: license,
		Name:          "Al Noor Clinic",
		Governorate:   "Damascus",
		Status:        domain.LicenseActive,
		CreatedAt:     time.Now(),
	}
}

func (s *ServiceSuite) TestVerifyMatch() {
	clinic := activeClinic("AB-12")
	s.clinics.EXPECT().FindByLicense(gomock.Any(), "AB-12").Return([]domain.Clinic{clinic}, nil)
	s.attempts.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a domain.VerificationAttempt) error {
			s.Equal(domain.OutcomeSuccess, a.Outcome)
			s.Equal("AB-12", a.LicenseNumber)
			s.Require().NotNil(a.ClinicID)
			s.Equal(clinic.ID, *a.ClinicID)
			s.Equal(domain.MethodManualEntry, a.Method)
			return nil
		})

	result := s.service.Verify(s.ctx, verify.Request{
		RawLicense: "AB-12",
		Method:     domain.MethodManualEntry,
	})

	s.Equal(domain.OutcomeSuccess, result.Status)
	s.Require().NotNil(result.Clinic)
	s.Equal(domain.LicenseActive, result.Clinic.Status)
	s.Equal("AB-12", result.LicenseNumber)
}

// The raw input is normalized before the lookup; the store only ever sees
// the canonical form.
func (s *ServiceSuite) TestVerifyNormalizesInput() {
	clinic := activeClinic("AB-12")
	s.clinics.EXPECT().FindByLicense(gomock.Any(), "AB-12").Return([]domain.Clinic{clinic}, nil)
	s.attempts.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

	result := s.service.Verify(s.ctx, verify.Request{
		RawLicense: " ab – 12 ",
		Method:     domain.MethodQRScan,
	})

	s.Equal(domain.OutcomeSuccess, result.Status)
	s.Equal("AB-12", result.LicenseNumber)
}

func (s *ServiceSuite) TestVerifyNotFound() {
	s.clinics.EXPECT().FindByLicense(gomock.Any(), "ZZ-99").Return(nil, nil)
	s.attempts.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a domain.VerificationAttempt) error {
			s.Equal(domain.OutcomeNotFound, a.Outcome)
			s.Nil(a.ClinicID)
			return nil
		})

	result := s.service.Verify(s.ctx, verify.Request{
		RawLicense: "ZZ-99",
		Method:     domain.MethodQRScan,
	})

	s.Equal(domain.OutcomeNotFound, result.Status)
	s.Nil(result.Clinic)
}

// A store read failure is a result, not an error: the caller renders it like
// any other outcome.
func (s *ServiceSuite) TestVerifyStoreFailure() {
	s.clinics.EXPECT().FindByLicense(gomock.Any(), "AB-12").Return(nil, errors.New("connection refused"))
	s.attempts.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a domain.VerificationAttempt) error {
			s.Equal(domain.OutcomeFailed, a.Outcome)
			s.Nil(a.ClinicID)
			return nil
		})

	result := s.service.Verify(s.ctx, verify.Request{
		RawLicense: "AB-12",
		Method:     domain.MethodImageUpload,
	})

	s.Equal(domain.OutcomeFailed, result.Status)
	s.Nil(result.Clinic)
}

// Duplicate license rows are an upstream anomaly the engine tolerates: the
// store's deterministic order makes the first row the stable winner.
func (s *ServiceSuite) TestVerifyDuplicateRowsTakesFirst() {
	older := activeClinic("AB-12")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := activeClinic("AB-12")
	s.clinics.EXPECT().FindByLicense(gomock.Any(), "AB-12").Return([]domain.Clinic{older, newer}, nil)
	s.attempts.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

	result := s.service.Verify(s.ctx, verify.Request{
		RawLicense: "AB-12",
		Method:     domain.MethodManualEntry,
	})

	s.Equal(domain.OutcomeSuccess, result.Status)
	s.Require().NotNil(result.Clinic)
	s.Equal(older.ID, result.Clinic.ID)
}

// Audit loss is preferred over blocking the visible flow: a failed append is
// swallowed and the result still returned.
func (s *ServiceSuite) TestVerifyAuditFailureSwallowed() {
	clinic := activeClinic("AB-12")
	s.clinics.EXPECT().FindByLicense(gomock.Any(), "AB-12").Return([]domain.Clinic{clinic}, nil)
	s.attempts.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("attempts table unavailable"))

	result := s.service.Verify(s.ctx, verify.Request{
		RawLicense: "AB-12",
		Method:     domain.MethodManualEntry,
	})

	s.Equal(domain.OutcomeSuccess, result.Status)
	s.Require().NotNil(result.Clinic)
}

// Every verify call appends exactly one attempt, whatever the outcome.
func TestVerifyAppendsExactlyOneAttempt(t *testing.T) {
	clinics := newStubFinder(map[string][]domain.Clinic{
		"AB-12": {activeClinic("AB-12")},
	})
	attempts := verifystore.NewInMemoryStore()
	service := verify.NewService(clinics, attempts, discardLogger())

	calls := []verify.Request{
		{RawLicense: "AB-12", Method: domain.MethodManualEntry},
		{RawLicense: "ZZ-99", Method: domain.MethodQRScan},
		{RawLicense: "boom", Method: domain.MethodImageUpload},
	}
	for _, req := range calls {
		service.Verify(context.Background(), req)
	}

	if got := attempts.Len(); got != len(calls) {
		t.Fatalf("expected %d attempts, got %d", len(calls), got)
	}
	counts, err := attempts.CountByOutcome(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if counts[domain.OutcomeSuccess] != 1 || counts[domain.OutcomeNotFound] != 1 || counts[domain.OutcomeFailed] != 1 {
		t.Fatalf("unexpected outcome counts: %v", counts)
	}
}

type stubFinder struct {
	byLicense map[string][]domain.Clinic
}

func newStubFinder(m map[string][]domain.Clinic) *stubFinder {
	return &stubFinder{byLicense: m}
}

func (f *stubFinder) FindByLicense(_ context.Context, license string) ([]domain.Clinic, error) {
	if license == "BOOM" {
		return nil, errors.New("store down")
	}
	return f.byLicense[license], nil
}
