package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/corebuild/corebuild-backend/internal/estimates/domain"
	invoicedomain "github.com/corebuild/corebuild-backend/internal/invoices/domain"
	invoicerepo "github.com/corebuild/corebuild-backend/internal/invoices/repository"
	"github.com/corebuild/corebuild-backend/internal/platform"
	"github.com/corebuild/corebuild-backend/internal/storage/postgres"
)

const numberConstraint = "estimates_company_id_number_key"

var estimateColumns = []string{
	"id", "company_id", "project_id", "number", "title", "status", "tax_rate_bps", "line_items",
	"subtotal_cents", "markup_cents", "tax_cents", "total_cents", "notes", "invoice_id",
	"created_at", "updated_at",
}

type EstimateRepository struct {
	db *sql.DB
}

func NewEstimateRepository(db *sql.DB) *EstimateRepository {
	return &EstimateRepository{db: db}
}

func (r *EstimateRepository) Create(ctx context.Context, e *domain.Estimate) error {
	e.ID = uuid.New().String()
	items, err := json.Marshal(e.LineItems)
	if err != nil {
		return err
	}

	for i := 0; i < 5; i++ {
		number, err := platform.NewPublicID(domain.NumberPrefix)
		if err != nil {
			return err
		}

		const q = `
INSERT INTO estimates (id, company_id, project_id, number, title, status, tax_rate_bps, line_items,
                       subtotal_cents, markup_cents, tax_cents, total_cents, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING created_at, updated_at`
		err = r.db.QueryRowContext(ctx, q,
			e.ID, e.CompanyID, e.ProjectID, number, e.Title, e.Status, e.TaxRateBPS, items,
			e.SubtotalCents, e.MarkupCents, e.TaxCents, e.TotalCents, e.Notes,
		).Scan(&e.CreatedAt, &e.UpdatedAt)
		if err == nil {
			e.Number = number
			return nil
		}
		if postgres.IsUniqueViolation(err) && postgres.ConstraintName(err) == numberConstraint {
			continue
		}
		return fmt.Errorf("insert estimate: %w", err)
	}
	return fmt.Errorf("failed to generate unique estimate number")
}

func (r *EstimateRepository) Get(ctx context.Context, companyID, id string) (*domain.Estimate, error) {
	return get(ctx, r.db, companyID, id, false)
}

func get(ctx context.Context, db postgres.DBTX, companyID, id string, forUpdate bool) (*domain.Estimate, error) {
	b := postgres.Builder.Select(estimateColumns...).
		From("estimates").
		Where(sq.Eq{"company_id": companyID, "id": id})
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}
	q, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	e, err := scanEstimate(db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEstimateNotFound
	}
	return e, err
}

func (r *EstimateRepository) ListByProject(ctx context.Context, companyID, projectID string, f domain.ListFilter) ([]domain.Estimate, error) {
	where := sq.Eq{"company_id": companyID, "project_id": projectID}
	if f.Status != "" {
		where["status"] = f.Status
	}
	q, args, err := postgres.Builder.Select(estimateColumns...).
		From("estimates").
		Where(where).
		OrderBy("created_at DESC").
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

	out := []domain.Estimate{}
	for rows.Next() {
		e, err := scanEstimate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *EstimateRepository) Update(ctx context.Context, e *domain.Estimate) error {
	items, err := json.Marshal(e.LineItems)
	if err != nil {
		return err
	}

	const q = `
UPDATE estimates
SET title = $3, status = $4, tax_rate_bps = $5, line_items = $6, subtotal_cents = $7,
    markup_cents = $8, tax_cents = $9, total_cents = $10, notes = $11, updated_at = now()
WHERE company_id = $1 AND id = $2
RETURNING updated_at`
	err = r.db.QueryRowContext(ctx, q,
		e.CompanyID, e.ID, e.Title, e.Status, e.TaxRateBPS, items, e.SubtotalCents,
		e.MarkupCents, e.TaxCents, e.TotalCents, e.Notes,
	).Scan(&e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrEstimateNotFound
	}
	return err
}

func (r *EstimateRepository) Delete(ctx context.Context, companyID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM estimates WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrEstimateNotFound
	}
	return nil
}

// ConvertToInvoice writes inv and links it to the estimate in one transaction.
func (r *EstimateRepository) ConvertToInvoice(ctx context.Context, e *domain.Estimate, inv *invoicedomain.Invoice) error {
	return postgres.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		locked, err := get(ctx, tx, e.CompanyID, e.ID, true)
		if err != nil {
			return err
		}
		if locked.InvoiceID != nil {
			return domain.ErrAlreadyInvoiced
		}
		if locked.Status != domain.StatusApproved {
			return domain.ErrNotApproved
		}

		if err := invoicerepo.Insert(ctx, tx, inv); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE estimates SET invoice_id = $3, updated_at = now() WHERE company_id = $1 AND id = $2`,
			e.CompanyID, e.ID, inv.ID,
		); err != nil {
			return fmt.Errorf("link invoice: %w", err)
		}
		e.InvoiceID = &inv.ID
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEstimate(row rowScanner) (*domain.Estimate, error) {
	var (
		e         domain.Estimate
		items     []byte
		invoiceID sql.NullString
	)
	if err := row.Scan(&e.ID, &e.CompanyID, &e.ProjectID, &e.Number, &e.Title, &e.Status,
		&e.TaxRateBPS, &items, &e.SubtotalCents, &e.MarkupCents, &e.TaxCents, &e.TotalCents,
		&e.Notes, &invoiceID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &e.LineItems); err != nil {
		return nil, fmt.Errorf("decode estimate line items: %w", err)
	}
	if e.LineItems == nil {
		e.LineItems = []domain.LineItem{}
	}
	if invoiceID.Valid {
		e.InvoiceID = &invoiceID.String
	}
	return &e, nil
}
