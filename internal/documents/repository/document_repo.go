package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/corebuild/corebuild-backend/internal/documents/domain"
	"github.com/corebuild/corebuild-backend/internal/storage/postgres"
)

var documentColumns = []string{
	"id", "company_id", "project_id", "name", "content_type", "size_bytes", "category",
	"storage_key", "uploaded_by", "created_at",
}

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create stores metadata for a document whose ID and storage key are already set.
func (r *DocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	const q = `
INSERT INTO documents (id, company_id, project_id, name, content_type, size_bytes, category,
                       storage_key, uploaded_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING created_at`
	if err := r.db.QueryRowContext(ctx, q,
		d.ID, d.CompanyID, d.ProjectID, d.Name, d.ContentType, d.SizeBytes, d.Category,
		d.StorageKey, d.UploadedBy,
	).Scan(&d.CreatedAt); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Get(ctx context.Context, companyID, id string) (*domain.Document, error) {
	q, args, err := postgres.Builder.Select(documentColumns...).
		From("documents").
		Where(sq.Eq{"company_id": companyID, "id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	d, err := scanDocument(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDocumentNotFound
	}
	return d, err
}

func (r *DocumentRepository) ListByProject(ctx context.Context, companyID, projectID, category string) ([]domain.Document, error) {
	where := sq.Eq{"company_id": companyID, "project_id": projectID}
	if category != "" {
		where["category"] = category
	}

	q, args, err := postgres.Builder.Select(documentColumns...).
		From("documents").
		Where(where).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *DocumentRepository) Delete(ctx context.Context, companyID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		d          domain.Document
		uploadedBy sql.NullString
	)
	if err := row.Scan(&d.ID, &d.CompanyID, &d.ProjectID, &d.Name, &d.ContentType, &d.SizeBytes,
		&d.Category, &d.StorageKey, &uploadedBy, &d.CreatedAt); err != nil {
		return nil, err
	}
	if uploadedBy.Valid {
		d.UploadedBy = &uploadedBy.String
	}
	return &d, nil
}
