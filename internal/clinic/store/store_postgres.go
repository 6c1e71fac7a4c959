package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"sijil/internal/domain"
	"sijil/pkg/platform/sentinel"
)

// PostgresStore persists clinic rows in PostgreSQL. Row ordering is pushed
// into SQL so every caller observes the same deterministic order.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const clinicColumns = "id, license_number, name, governorate, license_status, created_at"

func (s *PostgresStore) List(ctx context.Context) ([]domain.Clinic, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM clinics ORDER BY created_at DESC, id DESC", clinicColumns)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list clinics: %w", err)
	}
	defer rows.Close()
	return scanClinics(rows)
}

func (s *PostgresStore) FindByLicense(ctx context.Context, license string) ([]domain.Clinic, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM clinics WHERE license_number = $1 ORDER BY created_at ASC, id ASC",
		clinicColumns)
	rows, err := s.db.QueryContext(ctx, query, license)
	if err != nil {
		return nil, fmt.Errorf("find clinics by license: %w", err)
	}
	defer rows.Close()
	return scanClinics(rows)
}

func (s *PostgresStore) Create(ctx context.Context, clinic *domain.Clinic) error {
	if clinic == nil {
		return fmt.Errorf("clinic is required")
	}
	if clinic.ID.IsNil() {
		clinic.ID = domain.NewClinicID()
	}
	if clinic.CreatedAt.IsZero() {
		clinic.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clinics (id, license_number, name, governorate, license_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(clinic.ID),
		clinic.LicenseNumber,
		clinic.Name,
		clinic.Governorate,
		string(clinic.Status),
		clinic.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create clinic: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create clinic: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, id domain.ClinicID, patch domain.ClinicPatch) error {
	if patch.Empty() {
		return nil
	}

	set := make([]string, 0, 4)
	args := make([]any, 0, 5)
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.LicenseNumber != nil {
		add("license_number", *patch.LicenseNumber)
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Governorate != nil {
		add("governorate", *patch.Governorate)
	}
	if patch.Status != nil {
		add("license_status", string(*patch.Status))
	}
	args = append(args, uuid.UUID(id))

	query := fmt.Sprintf("UPDATE clinics SET %s WHERE id = $%d",
		strings.Join(set, ", "), len(args))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update clinic: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("update clinic: %w", err)
	}
	return requireRow(res, "update clinic")
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.ClinicID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM clinics WHERE id = $1", uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete clinic: %w", err)
	}
	return requireRow(res, "delete clinic")
}

func scanClinics(rows *sql.Rows) ([]domain.Clinic, error) {
	var out []domain.Clinic
	for rows.Next() {
		var (
			c      domain.Clinic
			rawID  uuid.UUID
			status string
		)
		if err := rows.Scan(&rawID, &c.LicenseNumber, &c.Name, &c.Governorate, &status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan clinic row: %w", err)
		}
		c.ID = domain.ClinicID(rawID)
		c.Status = domain.LicenseStatus(status)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clinic rows: %w", err)
	}
	return out, nil
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
