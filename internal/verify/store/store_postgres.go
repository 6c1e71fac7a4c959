package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sijil/internal/domain"
)

// PostgresStore persists verification attempts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, attempt domain.VerificationAttempt) error {
	if attempt.ID.IsNil() {
		attempt.ID = domain.NewAttemptID()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now()
	}
	var clinicID uuid.NullUUID
	if attempt.ClinicID != nil {
		clinicID = uuid.NullUUID{UUID: uuid.UUID(*attempt.ClinicID), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verification_attempts
			(id, clinic_id, license_number, verification_method, verification_status, client_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(attempt.ID),
		clinicID,
		attempt.LicenseNumber,
		string(attempt.Method),
		string(attempt.Outcome),
		attempt.ClientAgent,
		attempt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append verification attempt: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]domain.VerificationAttempt, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, clinic_id, license_number, verification_method, verification_status, client_agent, created_at
		FROM verification_attempts
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list verification attempts: %w", err)
	}
	defer rows.Close()

	var out []domain.VerificationAttempt
	for rows.Next() {
		var (
			a        domain.VerificationAttempt
			rawID    uuid.UUID
			clinicID uuid.NullUUID
			method   string
			outcome  string
		)
		if err := rows.Scan(&rawID, &clinicID, &a.LicenseNumber, &method, &outcome, &a.ClientAgent, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan verification attempt: %w", err)
		}
		a.ID = domain.AttemptID(rawID)
		if clinicID.Valid {
			cid := domain.ClinicID(clinicID.UUID)
			a.ClinicID = &cid
		}
		a.Method = domain.CaptureMethod(method)
		a.Outcome = domain.VerificationOutcome(outcome)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification attempts: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountByOutcome(ctx context.Context) (map[domain.VerificationOutcome]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT verification_status, COUNT(*)
		FROM verification_attempts
		GROUP BY verification_status`)
	if err != nil {
		return nil, fmt.Errorf("count verification attempts: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.VerificationOutcome]int)
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan attempt count: %w", err)
		}
		counts[domain.VerificationOutcome(outcome)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempt counts: %w", err)
	}
	return counts, nil
}
