package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/corebuild/corebuild-backend/internal/dailylogs/domain"
	"github.com/corebuild/corebuild-backend/internal/storage/postgres"
)

const projectDateConstraint = "daily_logs_project_date_key"

var logColumns = []string{
	"id", "company_id", "project_id", "log_date", "weather", "temperature_f", "crew_count",
	"hours_worked", "work_performed", "delays", "safety_notes", "coalesce(author_id::text, '')",
	"created_at", "updated_at",
}

type DailyLogRepository struct {
	db *sql.DB
}

func NewDailyLogRepository(db *sql.DB) *DailyLogRepository {
	return &DailyLogRepository{db: db}
}

func (r *DailyLogRepository) Create(ctx context.Context, l *domain.DailyLog) error {
	l.ID = uuid.New().String()

	const q = `
INSERT INTO daily_logs (id, company_id, project_id, log_date, weather, temperature_f, crew_count,
                        hours_worked, work_performed, delays, safety_notes, author_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, nullif($12, '')::uuid)
RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, q,
		l.ID, l.CompanyID, l.ProjectID, l.LogDate, l.Weather, l.TemperatureF, l.CrewCount,
		l.HoursWorked, l.WorkPerformed, l.Delays, l.SafetyNotes, l.AuthorID,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if postgres.IsUniqueViolation(err) && postgres.ConstraintName(err) == projectDateConstraint {
		return domain.ErrDuplicateDate
	}
	if err != nil {
		return fmt.Errorf("insert daily log: %w", err)
	}
	return nil
}

func (r *DailyLogRepository) Get(ctx context.Context, companyID, id string) (*domain.DailyLog, error) {
	q, args, err := postgres.Builder.Select(logColumns...).
		From("daily_logs").
		Where(sq.Eq{"company_id": companyID, "id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	l, err := scanLog(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDailyLogNotFound
	}
	return l, err
}

func (r *DailyLogRepository) ListByProject(ctx context.Context, companyID, projectID string, f domain.ListFilter) ([]domain.DailyLog, error) {
	where := sq.And{sq.Eq{"company_id": companyID, "project_id": projectID}}
	if f.From != nil {
		where = append(where, sq.GtOrEq{"log_date": *f.From})
	}
	if f.To != nil {
		where = append(where, sq.LtOrEq{"log_date": *f.To})
	}

	q, args, err := postgres.Builder.Select(logColumns...).
		From("daily_logs").
		Where(where).
		OrderBy("log_date DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.DailyLog{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *DailyLogRepository) Update(ctx context.Context, l *domain.DailyLog) error {
	const q = `
UPDATE daily_logs
SET weather = $3, temperature_f = $4, crew_count = $5, hours_worked = $6, work_performed = $7,
    delays = $8, safety_notes = $9, updated_at = now()
WHERE company_id = $1 AND id = $2
RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, q,
		l.CompanyID, l.ID, l.Weather, l.TemperatureF, l.CrewCount, l.HoursWorked,
		l.WorkPerformed, l.Delays, l.SafetyNotes,
	).Scan(&l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrDailyLogNotFound
	}
	return err
}

func (r *DailyLogRepository) Delete(ctx context.Context, companyID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM daily_logs WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrDailyLogNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLog(row rowScanner) (*domain.DailyLog, error) {
	var l domain.DailyLog
	var temp sql.NullInt32
	if err := row.Scan(&l.ID, &l.CompanyID, &l.ProjectID, &l.LogDate, &l.Weather, &temp, &l.CrewCount,
		&l.HoursWorked, &l.WorkPerformed, &l.Delays, &l.SafetyNotes, &l.AuthorID,
		&l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	if temp.Valid {
		t := int(temp.Int32)
		l.TemperatureF = &t
	}
	return &l, nil
}
