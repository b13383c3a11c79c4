package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/corebuild/corebuild-backend/internal/companies/domain"
	"github.com/corebuild/corebuild-backend/internal/storage/postgres"
)

// CompanyRepository persists companies and their memberships.
type CompanyRepository struct {
	db *sql.DB
}

func NewCompanyRepository(db *sql.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

const companyColumns = `c.id, c.name, c.address, c.phone, c.email, c.default_tax_rate_bps, c.created_at, c.updated_at`

// Create inserts the company and makes ownerUserID its owner in one transaction.
func (r *CompanyRepository) Create(ctx context.Context, c *domain.Company, ownerUserID string) error {
	return postgres.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		const q = `
INSERT INTO companies (name, address, phone, email, default_tax_rate_bps)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at, updated_at`
		if err := tx.QueryRowContext(ctx, q, c.Name, c.Address, c.Phone, c.Email, c.DefaultTaxRateBPS).
			Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return fmt.Errorf("insert company: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO company_members (company_id, user_id, role) VALUES ($1, $2, 'owner')`,
			c.ID, ownerUserID,
		); err != nil {
			return fmt.Errorf("insert owner membership: %w", err)
		}
		return nil
	})
}

// ListForUser returns every company the user belongs to with the user's role.
func (r *CompanyRepository) ListForUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	q := `
SELECT ` + companyColumns + `, m.role
FROM companies c
JOIN company_members m ON m.company_id = c.id
WHERE m.user_id = $1
ORDER BY c.name`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Membership, 0, 4)
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.ID, &m.Name, &m.Address, &m.Phone, &m.Email, &m.DefaultTaxRateBPS,
			&m.CreatedAt, &m.UpdatedAt, &m.Role); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *CompanyRepository) Get(ctx context.Context, id string) (*domain.Company, error) {
	var c domain.Company
	err := r.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies c WHERE c.id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &c.Email, &c.DefaultTaxRateBPS, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCompanyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CompanyRepository) Update(ctx context.Context, c *domain.Company) error {
	const q = `
UPDATE companies
SET name = $2, address = $3, phone = $4, email = $5, default_tax_rate_bps = $6, updated_at = now()
WHERE id = $1
RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, q, c.ID, c.Name, c.Address, c.Phone, c.Email, c.DefaultTaxRateBPS).
		Scan(&c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrCompanyNotFound
	}
	return err
}

func (r *CompanyRepository) ListMembers(ctx context.Context, companyID string) ([]domain.Member, error) {
	const q = `
SELECT u.id, coalesce(u.email, ''), coalesce(u.display_name, ''), m.role, m.created_at
FROM company_members m
JOIN users u ON u.id = m.user_id
WHERE m.company_id = $1
ORDER BY m.created_at`
	rows, err := r.db.QueryContext(ctx, q, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Member, 0, 8)
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.UserID, &m.Email, &m.DisplayName, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *CompanyRepository) AddMember(ctx context.Context, companyID, userID, role string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO company_members (company_id, user_id, role) VALUES ($1, $2, $3)`,
		companyID, userID, role,
	)
	if postgres.IsUniqueViolation(err) {
		return domain.ErrAlreadyMember
	}
	return err
}
