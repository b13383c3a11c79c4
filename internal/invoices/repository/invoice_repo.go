package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/corebuild/corebuild-backend/internal/invoices/domain"
	"github.com/corebuild/corebuild-backend/internal/storage/postgres"
)

var invoiceColumns = []string{
	"id", "company_id", "project_id", "estimate_id", "number", "status", "issue_date", "due_date",
	"tax_rate_bps", "line_items", "subtotal_cents", "tax_cents", "total_cents", "amount_paid_cents",
	"notes", "external_id", "synced_at", "created_at", "updated_at",
}

type InvoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	return postgres.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return Insert(ctx, tx, inv)
	})
}

// Insert numbers and writes inv. It must run inside a transaction: the
// advisory lock that serializes numbering per company is released on commit.
func Insert(ctx context.Context, db postgres.DBTX, inv *domain.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}

	if _, err := db.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "invoices:"+inv.CompanyID); err != nil {
		return fmt.Errorf("lock invoice numbering: %w", err)
	}

	year := inv.IssueDate.Year()
	var last sql.NullInt64
	err := db.QueryRowContext(ctx, `
SELECT max(split_part(number, '-', 3)::int)
FROM invoices
WHERE company_id = $1 AND number LIKE $2`,
		inv.CompanyID, domain.NumberPrefix(year)+"%",
	).Scan(&last)
	if err != nil {
		return fmt.Errorf("next invoice number: %w", err)
	}
	inv.Number = domain.FormatNumber(year, int(last.Int64)+1)

	items, err := json.Marshal(inv.LineItems)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO invoices (id, company_id, project_id, estimate_id, number, status, issue_date, due_date,
                      tax_rate_bps, line_items, subtotal_cents, tax_cents, total_cents, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING created_at, updated_at`
	err = db.QueryRowContext(ctx, q,
		inv.ID, inv.CompanyID, inv.ProjectID, inv.EstimateID, inv.Number, inv.Status, inv.IssueDate, inv.DueDate,
		inv.TaxRateBPS, items, inv.SubtotalCents, inv.TaxCents, inv.TotalCents, inv.Notes,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) Get(ctx context.Context, companyID, id string) (*domain.Invoice, error) {
	return get(ctx, r.db, companyID, id, false)
}

func get(ctx context.Context, db postgres.DBTX, companyID, id string, forUpdate bool) (*domain.Invoice, error) {
	b := postgres.Builder.Select(invoiceColumns...).
		From("invoices").
		Where(sq.Eq{"company_id": companyID, "id": id})
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}
	q, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	inv, err := scanInvoice(db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInvoiceNotFound
	}
	return inv, err
}

func listWhere(companyID string, f domain.ListFilter) sq.And {
	where := sq.And{sq.Eq{"company_id": companyID}}
	if f.Status != "" {
		where = append(where, sq.Eq{"status": f.Status})
	}
	if f.ProjectID != "" {
		where = append(where, sq.Eq{"project_id": f.ProjectID})
	}
	if f.OverdueOnly {
		where = append(where,
			sq.Eq{"status": []string{domain.StatusSent, domain.StatusPartiallyPaid}},
			sq.Lt{"due_date": f.Today},
		)
	}
	return where
}

func (r *InvoiceRepository) List(ctx context.Context, companyID string, f domain.ListFilter) ([]domain.Invoice, int, error) {
	where := listWhere(companyID, f)

	countQ, countArgs, err := postgres.Builder.Select("count(*)").From("invoices").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q, args, err := postgres.Builder.Select(invoiceColumns...).
		From("invoices").
		Where(where).
		OrderBy("issue_date DESC", "number DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	out, err := r.query(ctx, q, args...)
	return out, total, err
}

// ListUnsynced returns open invoices that have not been pushed to the
// accounting system yet, oldest first.
func (r *InvoiceRepository) ListUnsynced(ctx context.Context, companyID string) ([]domain.Invoice, error) {
	q, args, err := postgres.Builder.Select(invoiceColumns...).
		From("invoices").
		Where(sq.Eq{
			"company_id":  companyID,
			"status":      []string{domain.StatusSent, domain.StatusPartiallyPaid, domain.StatusPaid},
			"external_id": nil,
		}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.query(ctx, q, args...)
}

func (r *InvoiceRepository) query(ctx context.Context, q string, args ...any) ([]domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

func (r *InvoiceRepository) Update(ctx context.Context, inv *domain.Invoice) error {
	return update(ctx, r.db, inv)
}

func update(ctx context.Context, db postgres.DBTX, inv *domain.Invoice) error {
	items, err := json.Marshal(inv.LineItems)
	if err != nil {
		return err
	}

	const q = `
UPDATE invoices
SET status = $3, issue_date = $4, due_date = $5, tax_rate_bps = $6, line_items = $7,
    subtotal_cents = $8, tax_cents = $9, total_cents = $10, amount_paid_cents = $11,
    notes = $12, updated_at = now()
WHERE company_id = $1 AND id = $2
RETURNING updated_at`
	err = db.QueryRowContext(ctx, q,
		inv.CompanyID, inv.ID, inv.Status, inv.IssueDate, inv.DueDate, inv.TaxRateBPS, items,
		inv.SubtotalCents, inv.TaxCents, inv.TotalCents, inv.AmountPaidCents, inv.Notes,
	).Scan(&inv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrInvoiceNotFound
	}
	return err
}

// RecordPayment locks the invoice, applies the payment and stores both rows
// in one transaction.
func (r *InvoiceRepository) RecordPayment(ctx context.Context, companyID, invoiceID string, p *domain.Payment) (*domain.Invoice, error) {
	var inv *domain.Invoice
	err := postgres.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		inv, err = get(ctx, tx, companyID, invoiceID, true)
		if err != nil {
			return err
		}
		if err := domain.ApplyPayment(inv, p.AmountCents); err != nil {
			return err
		}

		p.ID = uuid.New().String()
		p.CompanyID = companyID
		p.InvoiceID = invoiceID
		err = tx.QueryRowContext(ctx, `
INSERT INTO invoice_payments (id, company_id, invoice_id, amount_cents, method, reference, paid_on)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at`,
			p.ID, p.CompanyID, p.InvoiceID, p.AmountCents, p.Method, p.Reference, p.PaidOn,
		).Scan(&p.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		return update(ctx, tx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *InvoiceRepository) ListPayments(ctx context.Context, companyID, invoiceID string) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, company_id, invoice_id, amount_cents, method, reference, paid_on, created_at
FROM invoice_payments
WHERE company_id = $1 AND invoice_id = $2
ORDER BY paid_on, created_at`, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Payment{}
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.InvoiceID, &p.AmountCents, &p.Method,
			&p.Reference, &p.PaidOn, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced records the id the accounting system assigned to the invoice.
func (r *InvoiceRepository) MarkSynced(ctx context.Context, companyID, id, externalID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE invoices SET external_id = $3, synced_at = $4, updated_at = now()
WHERE company_id = $1 AND id = $2`, companyID, id, externalID, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var (
		inv        domain.Invoice
		estimateID sql.NullString
		externalID sql.NullString
		syncedAt   sql.NullTime
		items      []byte
	)
	if err := row.Scan(&inv.ID, &inv.CompanyID, &inv.ProjectID, &estimateID, &inv.Number, &inv.Status,
		&inv.IssueDate, &inv.DueDate, &inv.TaxRateBPS, &items, &inv.SubtotalCents, &inv.TaxCents,
		&inv.TotalCents, &inv.AmountPaidCents, &inv.Notes, &externalID, &syncedAt,
		&inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &inv.LineItems); err != nil {
		return nil, fmt.Errorf("decode invoice line items: %w", err)
	}
	if inv.LineItems == nil {
		inv.LineItems = []domain.LineItem{}
	}
	if estimateID.Valid {
		inv.EstimateID = &estimateID.String
	}
	if externalID.Valid {
		inv.ExternalID = &externalID.String
	}
	if syncedAt.Valid {
		inv.SyncedAt = &syncedAt.Time
	}
	return &inv, nil
}
