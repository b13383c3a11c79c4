package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/corebuild/corebuild-backend/internal/platform"
	"github.com/corebuild/corebuild-backend/internal/selections/domain"
	"github.com/corebuild/corebuild-backend/internal/storage/postgres"
)

var selectionColumns = []string{
	"id", "company_id", "project_id", "category", "name", "vendor", "quantity", "unit_price_cents",
	"allowance_cents", "status", "notes", "due_date", "selected_option_id", "created_at", "updated_at",
}

var optionColumns = []string{
	"o.id", "o.selection_id", "o.name", "o.vendor", "o.description", "o.unit_price_cents",
	"o.recommended", "o.sort_order", "o.created_at", "o.updated_at",
}

// openStatuses still wait on a client decision.
var openStatuses = []string{domain.StatusPending, domain.StatusSelected}

type SelectionRepository struct {
	db *sql.DB
}

func NewSelectionRepository(db *sql.DB) *SelectionRepository {
	return &SelectionRepository{db: db}
}

func (r *SelectionRepository) Create(ctx context.Context, s *domain.Selection) error {
	s.ID = uuid.New().String()

	const q = `
INSERT INTO selections (id, company_id, project_id, category, name, vendor, quantity,
                        unit_price_cents, allowance_cents, status, notes, due_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, q,
		s.ID, s.CompanyID, s.ProjectID, s.Category, s.Name, s.Vendor, s.Quantity,
		s.UnitPriceCents, s.AllowanceCents, s.Status, s.Notes, s.DueDate,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert selection: %w", err)
	}
	return nil
}

func (r *SelectionRepository) Get(ctx context.Context, companyID, id string) (*domain.Selection, error) {
	q, args, err := postgres.Builder.Select(selectionColumns...).
		From("selections").
		Where(sq.Eq{"company_id": companyID, "id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	s, err := scanSelection(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSelectionNotFound
	}
	return s, err
}

// ListByProject returns every selection of the project ordered by category.
func (r *SelectionRepository) ListByProject(ctx context.Context, companyID, projectID string, f domain.ListFilter) ([]domain.Selection, error) {
	where := sq.Eq{"company_id": companyID, "project_id": projectID}
	if f.Category != "" {
		where["category"] = f.Category
	}
	if f.Status != "" {
		where["status"] = f.Status
	}
	return r.list(ctx, postgres.Builder.Select(selectionColumns...).
		From("selections").
		Where(where).
		OrderBy("category", "name"))
}

// ListOverdue returns open selections of the project due before today,
// earliest first.
func (r *SelectionRepository) ListOverdue(ctx context.Context, companyID, projectID string, today platform.Date) ([]domain.Selection, error) {
	return r.list(ctx, postgres.Builder.Select(selectionColumns...).
		From("selections").
		Where(sq.Eq{"company_id": companyID, "project_id": projectID, "status": openStatuses}).
		Where(sq.Lt{"due_date": today}).
		OrderBy("due_date", "name"))
}

func (r *SelectionRepository) list(ctx context.Context, sb sq.SelectBuilder) ([]domain.Selection, error) {
	q, args, err := sb.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Selection{}
	for rows.Next() {
		s, err := scanSelection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Deadlines returns open selections across the company's live projects due on
// or after from, soonest first.
func (r *SelectionRepository) Deadlines(ctx context.Context, companyID string, from platform.Date, limit uint64) ([]domain.Deadline, error) {
	q, args, err := postgres.Builder.
		Select("s.id", "s.project_id", "p.name", "s.name", "s.category", "s.status", "s.due_date").
		From("selections s").
		Join("projects p ON p.id = s.project_id AND p.deleted_at IS NULL").
		Where(sq.Eq{"s.company_id": companyID, "s.status": openStatuses}).
		Where(sq.GtOrEq{"s.due_date": from}).
		OrderBy("s.due_date", "s.name").
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

	out := []domain.Deadline{}
	for rows.Next() {
		var d domain.Deadline
		if err := rows.Scan(&d.SelectionID, &d.ProjectID, &d.ProjectName, &d.Name, &d.Category,
			&d.Status, &d.DueDate); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Update writes the selection only while its stored status is still
// fromStatus, and records change in the same transaction when it is not nil.
func (r *SelectionRepository) Update(ctx context.Context, s *domain.Selection, fromStatus string, change *domain.Change) error {
	return postgres.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		const q = `
UPDATE selections
SET category = $3, name = $4, vendor = $5, quantity = $6, unit_price_cents = $7,
    allowance_cents = $8, status = $9, notes = $10, due_date = $11, selected_option_id = $12,
    updated_at = now()
WHERE company_id = $1 AND id = $2 AND status = $13
RETURNING updated_at`
		err := tx.QueryRowContext(ctx, q,
			s.CompanyID, s.ID, s.Category, s.Name, s.Vendor, s.Quantity, s.UnitPriceCents,
			s.AllowanceCents, s.Status, s.Notes, s.DueDate, s.SelectedOptionID, fromStatus,
		).Scan(&s.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrStale
		}
		if err != nil {
			return err
		}
		if change == nil {
			return nil
		}
		return insertChange(ctx, tx, s.ID, change)
	})
}

func insertChange(ctx context.Context, tx *sql.Tx, selectionID string, c *domain.Change) error {
	c.ID = uuid.New().String()
	c.SelectionID = selectionID
	fields, err := json.Marshal(c.Fields)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO selection_changes (id, selection_id, changed_by, kind, changes, reason)
VALUES ($1, $2, nullif($3, '')::uuid, $4, $5, $6)
RETURNING created_at`
	if err := tx.QueryRowContext(ctx, q,
		c.ID, c.SelectionID, c.ChangedBy, c.Kind, fields, c.Reason,
	).Scan(&c.CreatedAt); err != nil {
		return fmt.Errorf("insert selection change: %w", err)
	}
	return nil
}

// History returns the selection's changes, newest first.
func (r *SelectionRepository) History(ctx context.Context, companyID, selectionID string) ([]domain.Change, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT c.id, c.selection_id, coalesce(c.changed_by::text, ''), c.kind, c.changes, c.reason, c.created_at
FROM selection_changes c
JOIN selections s ON s.id = c.selection_id
WHERE s.company_id = $1 AND c.selection_id = $2
ORDER BY c.created_at DESC`, companyID, selectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Change{}
	for rows.Next() {
		var c domain.Change
		var raw []byte
		if err := rows.Scan(&c.ID, &c.SelectionID, &c.ChangedBy, &c.Kind, &raw, &c.Reason, &c.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &c.Fields); err != nil {
			return nil, fmt.Errorf("decode selection change %s: %w", c.ID, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SelectionRepository) Delete(ctx context.Context, companyID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM selections WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrSelectionNotFound
	}
	return nil
}

// AddOption attaches o to a selection of the company.
func (r *SelectionRepository) AddOption(ctx context.Context, companyID, selectionID string, o *domain.Option) error {
	o.ID = uuid.New().String()
	o.SelectionID = selectionID

	const q = `
INSERT INTO selection_options (id, selection_id, name, vendor, description, unit_price_cents,
                               recommended, sort_order)
SELECT $1, s.id, $3, $4, $5, $6, $7, $8
FROM selections s WHERE s.id = $2 AND s.company_id = $9
RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, q,
		o.ID, selectionID, o.Name, o.Vendor, o.Description, o.UnitPriceCents,
		o.Recommended, o.SortOrder, companyID,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrSelectionNotFound
	}
	if err != nil {
		return fmt.Errorf("insert selection option: %w", err)
	}
	return nil
}

func (r *SelectionRepository) GetOption(ctx context.Context, companyID, selectionID, optionID string) (*domain.Option, error) {
	q, args, err := postgres.Builder.Select(optionColumns...).
		From("selection_options o").
		Join("selections s ON s.id = o.selection_id").
		Where(sq.Eq{"s.company_id": companyID, "o.selection_id": selectionID, "o.id": optionID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	o, err := scanOption(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOptionNotFound
	}
	return o, err
}

// ListOptions returns the selection's options in display order.
func (r *SelectionRepository) ListOptions(ctx context.Context, companyID, selectionID string) ([]domain.Option, error) {
	q, args, err := postgres.Builder.Select(optionColumns...).
		From("selection_options o").
		Join("selections s ON s.id = o.selection_id").
		Where(sq.Eq{"s.company_id": companyID, "o.selection_id": selectionID}).
		OrderBy("o.sort_order", "o.created_at").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Option{}
	for rows.Next() {
		o, err := scanOption(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *SelectionRepository) UpdateOption(ctx context.Context, companyID string, o *domain.Option) error {
	const q = `
UPDATE selection_options o
SET name = $4, vendor = $5, description = $6, unit_price_cents = $7, recommended = $8,
    sort_order = $9, updated_at = now()
FROM selections s
WHERE s.id = o.selection_id AND s.company_id = $1 AND o.selection_id = $2 AND o.id = $3
RETURNING o.updated_at`
	err := r.db.QueryRowContext(ctx, q,
		companyID, o.SelectionID, o.ID, o.Name, o.Vendor, o.Description, o.UnitPriceCents,
		o.Recommended, o.SortOrder,
	).Scan(&o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrOptionNotFound
	}
	return err
}

func (r *SelectionRepository) DeleteOption(ctx context.Context, companyID, selectionID, optionID string) error {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM selection_options o
USING selections s
WHERE s.id = o.selection_id AND s.company_id = $1 AND o.selection_id = $2 AND o.id = $3`,
		companyID, selectionID, optionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrOptionNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSelection(row rowScanner) (*domain.Selection, error) {
	var s domain.Selection
	var optionID sql.NullString
	if err := row.Scan(&s.ID, &s.CompanyID, &s.ProjectID, &s.Category, &s.Name, &s.Vendor,
		&s.Quantity, &s.UnitPriceCents, &s.AllowanceCents, &s.Status, &s.Notes, &s.DueDate,
		&optionID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if optionID.Valid {
		s.SelectedOptionID = &optionID.String
	}
	s.Derive()
	return &s, nil
}

func scanOption(row rowScanner) (*domain.Option, error) {
	var o domain.Option
	if err := row.Scan(&o.ID, &o.SelectionID, &o.Name, &o.Vendor, &o.Description, &o.UnitPriceCents,
		&o.Recommended, &o.SortOrder, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}
