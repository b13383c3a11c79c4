package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/corebuild/corebuild-backend/internal/backup/domain"
	"github.com/corebuild/corebuild-backend/internal/storage/postgres"
)

var runColumns = []string{
	"id", "company_id", "status", "started_at", "finished_at", "size_bytes", "drive_file_id", "error",
}

// RunRepository stores backup run history.
type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) Start(ctx context.Context, companyID string, at time.Time) (*domain.Run, error) {
	run := &domain.Run{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Status:    domain.StatusRunning,
		StartedAt: at,
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO backup_runs (id, company_id, status, started_at) VALUES ($1, $2, $3, $4)`,
		run.ID, run.CompanyID, run.Status, run.StartedAt,
	); err != nil {
		return nil, fmt.Errorf("insert backup run: %w", err)
	}
	return run, nil
}

func (r *RunRepository) Finish(ctx context.Context, run *domain.Run) error {
	const q = `
UPDATE backup_runs
SET status = $2, finished_at = $3, size_bytes = $4, drive_file_id = $5, error = $6
WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, q,
		run.ID, run.Status, run.FinishedAt, run.SizeBytes, run.DriveFileID, run.Error,
	); err != nil {
		return fmt.Errorf("finish backup run: %w", err)
	}
	return nil
}

// List returns the company's most recent runs first.
func (r *RunRepository) List(ctx context.Context, companyID string, limit uint64) ([]domain.Run, error) {
	q, args, err := postgres.Builder.Select(runColumns...).
		From("backup_runs").
		Where(sq.Eq{"company_id": companyID}).
		OrderBy("started_at DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Run{}
	for rows.Next() {
		var (
			run      domain.Run
			finished sql.NullTime
		)
		if err := rows.Scan(&run.ID, &run.CompanyID, &run.Status, &run.StartedAt, &finished,
			&run.SizeBytes, &run.DriveFileID, &run.Error); err != nil {
			return nil, err
		}
		if finished.Valid {
			run.FinishedAt = &finished.Time
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
