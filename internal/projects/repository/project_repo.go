package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/corebuild/corebuild-backend/internal/platform"
	"github.com/corebuild/corebuild-backend/internal/projects/domain"
	"github.com/corebuild/corebuild-backend/internal/storage/postgres"
)

const publicIDConstraint = "projects_public_id_key"

var projectColumns = []string{
	"id", "company_id", "public_id", "name", "client_name", "client_email", "address", "status",
	"start_date", "end_date", "contract_amount_cents", "lead_id", "coalesce(created_by::text, '')",
	"created_at", "updated_at",
}

// ProjectRepository provides persistence operations for projects
type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	return Insert(ctx, r.db, p)
}

// Insert writes a new project through db, which may be a transaction. A fresh
// public id is drawn on collision. Inside a transaction each attempt runs under
// a savepoint so a collision does not abort the caller's work.
func Insert(ctx context.Context, db postgres.DBTX, p *domain.Project) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, inTx := db.(*sql.Tx)

	for i := 0; i < 5; i++ {
		publicID, err := platform.NewPublicID(domain.PublicIDPrefix)
		if err != nil {
			return err
		}

		if inTx {
			if _, err := db.ExecContext(ctx, `SAVEPOINT project_insert`); err != nil {
				return fmt.Errorf("savepoint: %w", err)
			}
		}

		const q = `
INSERT INTO projects (id, company_id, public_id, name, client_name, client_email, address, status,
                      start_date, end_date, contract_amount_cents, lead_id, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, nullif($13, '')::uuid)
RETURNING created_at, updated_at`
		err = db.QueryRowContext(ctx, q,
			p.ID, p.CompanyID, publicID, p.Name, p.ClientName, p.ClientEmail, p.Address, p.Status,
			p.StartDate, p.EndDate, p.ContractAmountCents, p.LeadID, p.CreatedBy,
		).Scan(&p.CreatedAt, &p.UpdatedAt)

		if err == nil {
			if inTx {
				if _, err := db.ExecContext(ctx, `RELEASE SAVEPOINT project_insert`); err != nil {
					return fmt.Errorf("release savepoint: %w", err)
				}
			}
			p.PublicID = publicID
			return nil
		}

		if postgres.IsUniqueViolation(err) && postgres.ConstraintName(err) == publicIDConstraint {
			if inTx {
				if _, rerr := db.ExecContext(ctx, `ROLLBACK TO SAVEPOINT project_insert`); rerr != nil {
					return fmt.Errorf("rollback to savepoint: %w", rerr)
				}
			}
			continue
		}
		return fmt.Errorf("insert project: %w", err)
	}

	return fmt.Errorf("failed to generate unique project id")
}

func (r *ProjectRepository) Get(ctx context.Context, companyID, id string) (*domain.Project, error) {
	q, args, err := postgres.Builder.Select(projectColumns...).
		From("projects").
		Where(sq.Eq{"company_id": companyID, "id": id, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return nil, err
	}

	p, err := scanProject(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	return p, err
}

// List returns non-deleted projects, newest first, plus the total matching count.
func (r *ProjectRepository) List(ctx context.Context, companyID string, f domain.ListFilter) ([]domain.Project, int, error) {
	where := sq.And{sq.Eq{"company_id": companyID, "deleted_at": nil}}
	if f.Status != "" {
		where = append(where, sq.Eq{"status": f.Status})
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		where = append(where, sq.Or{
			sq.ILike{"name": like},
			sq.ILike{"client_name": like},
			sq.ILike{"public_id": like},
		})
	}

	countQ, countArgs, err := postgres.Builder.Select("count(*)").From("projects").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q, args, err := postgres.Builder.Select(projectColumns...).
		From("projects").
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

	out := make([]domain.Project, 0, f.Limit)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

// Update writes the project only while its stored status is still
// fromStatus. The contract amount moves by contractDeltaCents relative to the
// stored value, so an approved change order landing in between is kept.
func (r *ProjectRepository) Update(ctx context.Context, p *domain.Project, fromStatus string, contractDeltaCents int64) error {
	const q = `
UPDATE projects
SET name = $3, client_name = $4, client_email = $5, address = $6, status = $7,
    start_date = $8, end_date = $9, contract_amount_cents = contract_amount_cents + $10,
    updated_at = now()
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL AND status = $11
RETURNING contract_amount_cents, updated_at`
	err := r.db.QueryRowContext(ctx, q,
		p.CompanyID, p.ID, p.Name, p.ClientName, p.ClientEmail, p.Address, p.Status,
		p.StartDate, p.EndDate, contractDeltaCents, fromStatus,
	).Scan(&p.ContractAmountCents, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrStale
	}
	return err
}

// SoftDelete marks a project as deleted.
func (r *ProjectRepository) SoftDelete(ctx context.Context, companyID, id string) error {
	const q = `
UPDATE projects
SET deleted_at = now(), updated_at = now()
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, q, companyID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

// AdjustContract adds deltaCents to the contract amount through db, which is
// normally the transaction approving a change order.
func AdjustContract(ctx context.Context, db postgres.DBTX, companyID, id string, deltaCents int64) error {
	const q = `
UPDATE projects
SET contract_amount_cents = contract_amount_cents + $3, updated_at = now()
WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL`
	res, err := db.ExecContext(ctx, q, companyID, id, deltaCents)
	if err != nil {
		return fmt.Errorf("adjust contract: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	var leadID sql.NullString
	if err := row.Scan(&p.ID, &p.CompanyID, &p.PublicID, &p.Name, &p.ClientName, &p.ClientEmail,
		&p.Address, &p.Status, &p.StartDate, &p.EndDate, &p.ContractAmountCents, &leadID,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if leadID.Valid {
		p.LeadID = &leadID.String
	}
	return &p, nil
}
