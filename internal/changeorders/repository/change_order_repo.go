package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/corebuild/corebuild-backend/internal/changeorders/domain"
	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
	projectrepo "github.com/corebuild/corebuild-backend/internal/projects/repository"
	"github.com/corebuild/corebuild-backend/internal/storage/postgres"
)

const numberConstraint = "change_orders_project_id_number_key"

const selectChangeOrder = `
SELECT id, company_id, project_id, number, title, description, reason, amount_cents,
       schedule_impact_days, status, decided_at, created_at, updated_at
FROM change_orders`

type ChangeOrderRepository struct {
	db *sql.DB
}

func NewChangeOrderRepository(db *sql.DB) *ChangeOrderRepository {
	return &ChangeOrderRepository{db: db}
}

// Create takes the next number in the project. Two concurrent inserts may pick
// the same number; the loser retries.
func (r *ChangeOrderRepository) Create(ctx context.Context, co *domain.ChangeOrder) error {
	co.ID = uuid.New().String()

	const q = `
INSERT INTO change_orders (id, company_id, project_id, number, title, description, reason,
                           amount_cents, schedule_impact_days, status)
SELECT $1, $2, $3, coalesce(max(number), 0) + 1, $4, $5, $6, $7, $8, $9
FROM change_orders WHERE project_id = $3
RETURNING number, created_at, updated_at`

	for i := 0; i < 5; i++ {
		err := r.db.QueryRowContext(ctx, q,
			co.ID, co.CompanyID, co.ProjectID, co.Title, co.Description, co.Reason,
			co.AmountCents, co.ScheduleImpactDays, co.Status,
		).Scan(&co.Number, &co.CreatedAt, &co.UpdatedAt)
		if err == nil {
			co.Code = domain.FormatCode(co.Number)
			return nil
		}
		if postgres.IsUniqueViolation(err) && postgres.ConstraintName(err) == numberConstraint {
			continue
		}
		return fmt.Errorf("insert change order: %w", err)
	}
	return fmt.Errorf("failed to allocate change order number")
}

func (r *ChangeOrderRepository) Get(ctx context.Context, companyID, id string) (*domain.ChangeOrder, error) {
	return get(ctx, r.db, companyID, id, "")
}

func get(ctx context.Context, db postgres.DBTX, companyID, id, suffix string) (*domain.ChangeOrder, error) {
	co, err := scanChangeOrder(db.QueryRowContext(ctx,
		selectChangeOrder+` WHERE company_id = $1 AND id = $2 `+suffix, companyID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrChangeOrderNotFound
	}
	return co, err
}

func (r *ChangeOrderRepository) ListByProject(ctx context.Context, companyID, projectID, status string) ([]domain.ChangeOrder, error) {
	q := selectChangeOrder + ` WHERE company_id = $1 AND project_id = $2`
	args := []any{companyID, projectID}
	if status != "" {
		q += ` AND status = $3`
		args = append(args, status)
	}
	q += ` ORDER BY number`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ChangeOrder{}
	for rows.Next() {
		co, err := scanChangeOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *co)
	}
	return out, rows.Err()
}

// Update writes the change order only while it still has fromStatus, so a
// concurrent decision is never overwritten.
func (r *ChangeOrderRepository) Update(ctx context.Context, co *domain.ChangeOrder, fromStatus string) error {
	const q = `
UPDATE change_orders
SET title = $3, description = $4, reason = $5, amount_cents = $6, schedule_impact_days = $7,
    status = $8, updated_at = now()
WHERE company_id = $1 AND id = $2 AND status = $9
RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, q,
		co.CompanyID, co.ID, co.Title, co.Description, co.Reason, co.AmountCents,
		co.ScheduleImpactDays, co.Status, fromStatus,
	).Scan(&co.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrStale
	}
	return err
}

// Decide approves or rejects a pending change order. Approval adds the amount
// to the project contract in the same transaction.
func (r *ChangeOrderRepository) Decide(ctx context.Context, companyID, id, status string, at time.Time) (*domain.ChangeOrder, error) {
	var co *domain.ChangeOrder
	err := postgres.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		co, err = get(ctx, tx, companyID, id, "FOR UPDATE")
		if err != nil {
			return err
		}
		if !domain.Transitions.Can(co.Status, status) || !domain.IsDecision(status) {
			return apperr.Transition("change order", co.Status, status)
		}

		err = tx.QueryRowContext(ctx, `
UPDATE change_orders SET status = $3, decided_at = $4, updated_at = now()
WHERE company_id = $1 AND id = $2
RETURNING updated_at`, companyID, id, status, at).Scan(&co.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update change order: %w", err)
		}
		co.Status = status
		co.DecidedAt = &at

		if status == domain.StatusApproved && co.AmountCents != 0 {
			return projectrepo.AdjustContract(ctx, tx, companyID, co.ProjectID, co.AmountCents)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return co, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChangeOrder(row rowScanner) (*domain.ChangeOrder, error) {
	var co domain.ChangeOrder
	var decidedAt sql.NullTime
	if err := row.Scan(&co.ID, &co.CompanyID, &co.ProjectID, &co.Number, &co.Title, &co.Description,
		&co.Reason, &co.AmountCents, &co.ScheduleImpactDays, &co.Status, &decidedAt,
		&co.CreatedAt, &co.UpdatedAt); err != nil {
		return nil, err
	}
	if decidedAt.Valid {
		co.DecidedAt = &decidedAt.Time
	}
	co.Code = domain.FormatCode(co.Number)
	return &co, nil
}
