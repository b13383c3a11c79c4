package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/corebuild/corebuild-backend/internal/leads/domain"
	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
	projectdomain "github.com/corebuild/corebuild-backend/internal/projects/domain"
	projectrepo "github.com/corebuild/corebuild-backend/internal/projects/repository"
	"github.com/corebuild/corebuild-backend/internal/storage/postgres"
)

var leadColumns = []string{
	"id", "company_id", "name", "email", "phone", "source", "estimated_value_cents",
	"status", "notes", "project_id", "created_at", "updated_at",
}

type LeadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(ctx context.Context, l *domain.Lead) error {
	l.ID = uuid.New().String()

	const q = `
INSERT INTO leads (id, company_id, name, email, phone, source, estimated_value_cents, status, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, q,
		l.ID, l.CompanyID, l.Name, l.Email, l.Phone, l.Source, l.EstimatedValueCents, l.Status, l.Notes,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (r *LeadRepository) Get(ctx context.Context, companyID, id string) (*domain.Lead, error) {
	q, args, err := postgres.Builder.Select(leadColumns...).
		From("leads").
		Where(sq.Eq{"company_id": companyID, "id": id, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return nil, err
	}

	l, err := scanLead(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrLeadNotFound
	}
	return l, err
}

func (r *LeadRepository) List(ctx context.Context, companyID string, f domain.ListFilter) ([]domain.Lead, int, error) {
	where := sq.And{sq.Eq{"company_id": companyID, "deleted_at": nil}}
	if f.Status != "" {
		where = append(where, sq.Eq{"status": f.Status})
	}
	if f.Source != "" {
		where = append(where, sq.Eq{"source": f.Source})
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		where = append(where, sq.Or{sq.ILike{"name": like}, sq.ILike{"email": like}})
	}

	countQ, countArgs, err := postgres.Builder.Select("count(*)").From("leads").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q, args, err := postgres.Builder.Select(leadColumns...).
		From("leads").
		Where(where).
		OrderBy("created_at DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *l)
	}
	return out, total, rows.Err()
}

// Update writes the lead only while its stored status is still fromStatus.
func (r *LeadRepository) Update(ctx context.Context, l *domain.Lead, fromStatus string) error {
	return update(ctx, r.db, l, fromStatus)
}

func update(ctx context.Context, db postgres.DBTX, l *domain.Lead, fromStatus string) error {
	const q = `
UPDATE leads
SET name = $3, email = $4, phone = $5, source = $6, estimated_value_cents = $7,
    status = $8, notes = $9, project_id = $10, updated_at = now()
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL AND status = $11
RETURNING updated_at`
	err := db.QueryRowContext(ctx, q,
		l.CompanyID, l.ID, l.Name, l.Email, l.Phone, l.Source, l.EstimatedValueCents,
		l.Status, l.Notes, l.ProjectID, fromStatus,
	).Scan(&l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrStale
	}
	return err
}

func (r *LeadRepository) SoftDelete(ctx context.Context, companyID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE leads SET deleted_at = now(), updated_at = now() WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL`,
		companyID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrLeadNotFound
	}
	return nil
}

// Convert inserts the project and links the lead to it in one transaction.
// The lead row is locked first so two concurrent conversions cannot both win.
func (r *LeadRepository) Convert(ctx context.Context, l *domain.Lead, p *projectdomain.Project) error {
	return postgres.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var status string
		var linked sql.NullString
		err := tx.QueryRowContext(ctx,
			`SELECT status, project_id FROM leads WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL FOR UPDATE`,
			l.CompanyID, l.ID,
		).Scan(&status, &linked)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrLeadNotFound
		}
		if err != nil {
			return fmt.Errorf("lock lead: %w", err)
		}
		if linked.Valid {
			return domain.ErrAlreadyConverted
		}
		if !domain.Convertible(status) {
			return apperr.Transition("lead", status, domain.StatusWon)
		}

		if err := projectrepo.Insert(ctx, tx, p); err != nil {
			return err
		}

		l.Status = domain.StatusWon
		l.ProjectID = &p.ID
		return update(ctx, tx, l, status)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*domain.Lead, error) {
	var l domain.Lead
	var projectID sql.NullString
	if err := row.Scan(&l.ID, &l.CompanyID, &l.Name, &l.Email, &l.Phone, &l.Source,
		&l.EstimatedValueCents, &l.Status, &l.Notes, &projectID, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	if projectID.Valid {
		l.ProjectID = &projectID.String
	}
	return &l, nil
}
