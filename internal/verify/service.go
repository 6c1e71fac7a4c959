// Package verify implements the license verification engine: normalize the
// raw input, look it up in the registry, classify the outcome, and append an
// audit record of the attempt.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"sijil/internal/domain"
	"sijil/internal/normalize"
	verifymetrics "sijil/internal/verify/metrics"
)

// ClinicFinder is the read side the engine needs from the clinic store.
// Matches are expected in deterministic order (created_at, then id).
type ClinicFinder interface {
	FindByLicense(ctx context.Context, license string) ([]domain.Clinic, error)
}

// AttemptStore is the append-only audit sink for verification attempts.
type AttemptStore interface {
	Append(ctx context.Context, attempt domain.VerificationAttempt) error
}

// Request carries one verification call.
type Request struct {
	RawLicense  string
	Method      domain.CaptureMethod
	ClientAgent string
}

// Service is the verification engine. It owns no retry policy and no UI
// state; callers receive a self-contained result.
type Service struct {
	clinics  ClinicFinder
	attempts AttemptStore
	logger   *slog.Logger
	metrics  *verifymetrics.Metrics
	tracer   trace.Tracer
	now      func() time.Time
}

// Option configures optional service dependencies.
type Option func(*Service)

func WithMetrics(m *verifymetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the wall clock. Test hook.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(clinics ClinicFinder, attempts AttemptStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		clinics:  clinics,
		attempts: attempts,
		logger:   logger,
		tracer:   otel.Tracer("sijil/verify"),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Verify normalizes the raw license number, queries the registry and
// classifies the outcome. It never returns an error: a failed store read is a
// normal business outcome (OutcomeFailed) the caller renders like any other.
//
// Every call appends exactly one attempt record. The append is best effort:
// its failure is logged and counted, never propagated, because the caller
// already has its answer and audit loss beats blocking the visible flow.
func (s *Service) Verify(ctx context.Context, req Request) domain.VerificationResult {
	ctx, span := s.tracer.Start(ctx, "verify.Verify",
		trace.WithAttributes(attribute.String("capture.method", string(req.Method))))
	defer span.End()

	normalized := normalize.License(req.RawLicense)

	clinic, outcome := s.classify(ctx, normalized)
	span.SetAttributes(attribute.String("verify.outcome", string(outcome)))
	s.metrics.IncrementOutcome(string(req.Method), string(outcome))

	s.recordAttempt(ctx, clinic, outcome, normalized, req)

	s.logger.InfoContext(ctx, "license verified",
		"license_number", normalized,
		"method", req.Method,
		"outcome", outcome,
	)

	return domain.VerificationResult{
		Clinic:        clinic,
		Status:        outcome,
		LicenseNumber: normalized,
	}
}

func (s *Service) classify(ctx context.Context, normalized string) (*domain.Clinic, domain.VerificationOutcome) {
	start := s.now()
	matches, err := s.clinics.FindByLicense(ctx, normalized)
	s.metrics.ObserveLookup(s.now().Sub(start))

	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "license lookup failed",
			"license_number", normalized,
			"error", err,
		)
		return nil, domain.OutcomeFailed
	case len(matches) == 0:
		return nil, domain.OutcomeNotFound
	default:
		if len(matches) > 1 {
			// Upstream data-integrity anomaly. Tolerated: the store's
			// ordering makes the first match stable across calls.
			s.metrics.IncrementDuplicateMatch()
			s.logger.WarnContext(ctx, "duplicate license rows",
				"license_number", normalized,
				"matches", len(matches),
			)
		}
		first := matches[0]
		return &first, domain.OutcomeSuccess
	}
}

func (s *Service) recordAttempt(ctx context.Context, clinic *domain.Clinic, outcome domain.VerificationOutcome, normalized string, req Request) {
	attempt := domain.VerificationAttempt{
		ID:            domain.NewAttemptID(),
		LicenseNumber: normalized,
		Method:        req.Method,
		Outcome:       outcome,
		ClientAgent:   req.ClientAgent,
		CreatedAt:     s.now(),
	}
	if clinic != nil {
		id := clinic.ID
		attempt.ClinicID = &id
	}
	if err := s.attempts.Append(ctx, attempt); err != nil {
		s.metrics.IncrementAuditFailure()
		s.logger.ErrorContext(ctx, "verification attempt not recorded",
			"license_number", normalized,
			"error", fmt.Errorf("append attempt: %w", err),
		)
	}
}
