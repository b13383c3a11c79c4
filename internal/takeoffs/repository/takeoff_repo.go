package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/corebuild/corebuild-backend/internal/storage/postgres"
	"github.com/corebuild/corebuild-backend/internal/takeoffs/domain"
)

var takeoffColumns = []string{
	"id", "company_id", "project_id", "name", "plan_sheet", "measurements", "created_at", "updated_at",
}

type TakeoffRepository struct {
	db *sql.DB
}

func NewTakeoffRepository(db *sql.DB) *TakeoffRepository {
	return &TakeoffRepository{db: db}
}

func (r *TakeoffRepository) Create(ctx context.Context, t *domain.Takeoff) error {
	t.ID = uuid.New().String()

	measurements, err := encodeMeasurements(t.Measurements)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO takeoffs (id, company_id, project_id, name, plan_sheet, measurements)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at, updated_at`
	if err := r.db.QueryRowContext(ctx, q,
		t.ID, t.CompanyID, t.ProjectID, t.Name, t.PlanSheet, measurements,
	).Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		return fmt.Errorf("insert takeoff: %w", err)
	}
	return nil
}

func (r *TakeoffRepository) Get(ctx context.Context, companyID, id string) (*domain.Takeoff, error) {
	q, args, err := postgres.Builder.Select(takeoffColumns...).
		From("takeoffs").
		Where(sq.Eq{"company_id": companyID, "id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	t, err := scanTakeoff(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTakeoffNotFound
	}
	return t, err
}

func (r *TakeoffRepository) ListByProject(ctx context.Context, companyID, projectID string) ([]domain.Takeoff, error) {
	q, args, err := postgres.Builder.Select(takeoffColumns...).
		From("takeoffs").
		Where(sq.Eq{"company_id": companyID, "project_id": projectID}).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Takeoff{}
	for rows.Next() {
		t, err := scanTakeoff(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Replace overwrites the name, sheet and measurements of a takeoff.
func (r *TakeoffRepository) Replace(ctx context.Context, t *domain.Takeoff) error {
	measurements, err := encodeMeasurements(t.Measurements)
	if err != nil {
		return err
	}

	const q = `
UPDATE takeoffs SET name = $3, plan_sheet = $4, measurements = $5, updated_at = now()
WHERE company_id = $1 AND id = $2
RETURNING project_id, created_at, updated_at`
	err = r.db.QueryRowContext(ctx, q, t.CompanyID, t.ID, t.Name, t.PlanSheet, measurements).
		Scan(&t.ProjectID, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrTakeoffNotFound
	}
	return err
}

func (r *TakeoffRepository) Delete(ctx context.Context, companyID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM takeoffs WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrTakeoffNotFound
	}
	return nil
}

// Only the inputs are stored; adjusted quantities are derived on read.
func encodeMeasurements(ms []domain.Measurement) ([]byte, error) {
	type stored struct {
		Label        string  `json:"label"`
		Kind         string  `json:"kind"`
		Quantity     float64 `json:"quantity"`
		Unit         string  `json:"unit"`
		WastePercent float64 `json:"waste_percent"`
	}
	out := make([]stored, len(ms))
	for i, m := range ms {
		out[i] = stored{m.Label, m.Kind, m.Quantity, m.Unit, m.WastePercent}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode measurements: %w", err)
	}
	return b, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTakeoff(row rowScanner) (*domain.Takeoff, error) {
	var (
		t   domain.Takeoff
		raw []byte
	)
	if err := row.Scan(&t.ID, &t.CompanyID, &t.ProjectID, &t.Name, &t.PlanSheet, &raw,
		&t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &t.Measurements); err != nil {
		return nil, fmt.Errorf("decode measurements: %w", err)
	}
	if t.Measurements == nil {
		t.Measurements = []domain.Measurement{}
	}
	t.Derive()
	return &t, nil
}
