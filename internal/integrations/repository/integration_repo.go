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
	"github.com/lib/pq"

	"github.com/corebuild/corebuild-backend/internal/integrations/domain"
	"github.com/corebuild/corebuild-backend/internal/storage/postgres"
)

var integrationColumns = []string{
	"id", "company_id", "provider", "status", "access_token", "refresh_token", "token_type", "expiry",
	"scopes", "external_account_id", "settings", "last_synced_at", "last_error", "created_at", "updated_at",
}

type IntegrationRepository struct {
	db *sql.DB
}

func NewIntegrationRepository(db *sql.DB) *IntegrationRepository {
	return &IntegrationRepository{db: db}
}

func (r *IntegrationRepository) Get(ctx context.Context, companyID, provider string) (*domain.Integration, error) {
	q, args, err := postgres.Builder.Select(integrationColumns...).
		From("integrations").
		Where(sq.Eq{"company_id": companyID, "provider": provider}).
		ToSql()
	if err != nil {
		return nil, err
	}

	i, err := scanIntegration(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrIntegrationNotFound
	}
	return i, err
}

func (r *IntegrationRepository) List(ctx context.Context, companyID string) ([]domain.Integration, error) {
	return r.list(ctx, sq.Eq{"company_id": companyID})
}

// ListConnected returns connected integrations of one provider across all companies.
func (r *IntegrationRepository) ListConnected(ctx context.Context, provider string) ([]domain.Integration, error) {
	return r.list(ctx, sq.And{
		sq.Eq{"provider": provider, "status": domain.StatusConnected},
		sq.NotEq{"refresh_token": ""},
	})
}

func (r *IntegrationRepository) list(ctx context.Context, where sq.Sqlizer) ([]domain.Integration, error) {
	q, args, err := postgres.Builder.Select(integrationColumns...).
		From("integrations").
		Where(where).
		OrderBy("company_id", "provider").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Integration{}
	for rows.Next() {
		i, err := scanIntegration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *i)
	}
	return out, rows.Err()
}

// Upsert writes the integration, replacing any existing row for the same
// company and provider.
func (r *IntegrationRepository) Upsert(ctx context.Context, i *domain.Integration) error {
	settings, err := json.Marshal(nonNil(i.Settings))
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if i.ID == "" {
		i.ID = uuid.New().String()
	}

	const q = `
INSERT INTO integrations (id, company_id, provider, status, access_token, refresh_token, token_type,
                          expiry, scopes, external_account_id, settings, last_error)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (company_id, provider) DO UPDATE SET
    status = excluded.status,
    access_token = excluded.access_token,
    refresh_token = excluded.refresh_token,
    token_type = excluded.token_type,
    expiry = excluded.expiry,
    scopes = excluded.scopes,
    external_account_id = excluded.external_account_id,
    settings = integrations.settings || excluded.settings,
    last_error = excluded.last_error,
    updated_at = now()
RETURNING id, created_at, updated_at`
	if err := r.db.QueryRowContext(ctx, q,
		i.ID, i.CompanyID, i.Provider, i.Status, i.AccessToken, i.RefreshToken, i.TokenType,
		i.Expiry, pq.Array(i.Scopes), i.ExternalAccountID, settings, i.LastError,
	).Scan(&i.ID, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return fmt.Errorf("upsert integration: %w", err)
	}
	return nil
}

// SaveToken persists a refreshed token.
func (r *IntegrationRepository) SaveToken(ctx context.Context, i *domain.Integration) error {
	const q = `
UPDATE integrations
SET access_token = $3, refresh_token = $4, token_type = $5, expiry = $6, updated_at = now()
WHERE company_id = $1 AND provider = $2`
	res, err := r.db.ExecContext(ctx, q, i.CompanyID, i.Provider, i.AccessToken, i.RefreshToken, i.TokenType, i.Expiry)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return requireRow(res)
}

func (r *IntegrationRepository) SetSetting(ctx context.Context, companyID, provider, key, value string) error {
	patch, err := json.Marshal(map[string]string{key: value})
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE integrations SET settings = settings || $3, updated_at = now() WHERE company_id = $1 AND provider = $2`,
		companyID, provider, patch,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// RecordSync stamps a sync attempt. A non-empty errMsg flags the integration.
func (r *IntegrationRepository) RecordSync(ctx context.Context, companyID, provider string, at time.Time, errMsg string) error {
	status := domain.StatusConnected
	if errMsg != "" {
		status = domain.StatusError
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE integrations
SET last_synced_at = CASE WHEN $4 = '' THEN $3 ELSE last_synced_at END,
    last_error = $4, status = $5, updated_at = now()
WHERE company_id = $1 AND provider = $2 AND status <> 'disconnected'`,
		companyID, provider, at, errMsg, status,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *IntegrationRepository) Disconnect(ctx context.Context, companyID, provider string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE integrations
SET status = 'disconnected', access_token = '', refresh_token = '', token_type = '', expiry = NULL,
    updated_at = now()
WHERE company_id = $1 AND provider = $2`,
		companyID, provider,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrIntegrationNotFound
	}
	return nil
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIntegration(row rowScanner) (*domain.Integration, error) {
	var (
		i          domain.Integration
		expiry     sql.NullTime
		lastSynced sql.NullTime
		settings   []byte
	)
	if err := row.Scan(&i.ID, &i.CompanyID, &i.Provider, &i.Status, &i.AccessToken, &i.RefreshToken,
		&i.TokenType, &expiry, pq.Array(&i.Scopes), &i.ExternalAccountID, &settings, &lastSynced,
		&i.LastError, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return nil, err
	}
	if expiry.Valid {
		i.Expiry = &expiry.Time
	}
	if lastSynced.Valid {
		i.LastSyncedAt = &lastSynced.Time
	}
	if err := json.Unmarshal(settings, &i.Settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if i.Scopes == nil {
		i.Scopes = []string{}
	}
	return &i, nil
}
