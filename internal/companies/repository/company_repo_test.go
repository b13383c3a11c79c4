package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebuild/corebuild-backend/internal/companies/domain"
)

func setupRepo(t *testing.T) (*CompanyRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCompanyRepository(db), mock
}

func TestCompanyRepository_Create(t *testing.T) {
	repo, mock := setupRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO companies`).
		WithArgs("Ridgeline", "", "", "", int64(825)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("co-1", now, now))
	mock.ExpectExec(`INSERT INTO company_members`).
		WithArgs("co-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c := &domain.Company{Name: "Ridgeline", DefaultTaxRateBPS: 825}
	require.NoError(t, repo.Create(context.Background(), c, "user-1"))
	assert.Equal(t, "co-1", c.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompanyRepository_Get(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery(`SELECT .* FROM companies c WHERE c.id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrCompanyNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompanyRepository_AddMemberDuplicate(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectExec(`INSERT INTO company_members`).
		WithArgs("co-1", "user-2", "member").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.AddMember(context.Background(), "co-1", "user-2", "member")
	assert.ErrorIs(t, err, domain.ErrAlreadyMember)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompanyRepository_ListForUser(t *testing.T) {
	repo, mock := setupRepo(t)
	now := time.Now()

	mock.ExpectQuery(`FROM companies c\s+JOIN company_members m`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "address", "phone", "email", "default_tax_rate_bps", "created_at", "updated_at", "role",
		}).
			AddRow("co-1", "Ridgeline", "", "", "", 0, now, now, "owner").
			AddRow("co-2", "Summit", "", "", "", 500, now, now, "member"))

	items, err := repo.ListForUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "owner", items[0].Role)
	assert.Equal(t, int64(500), items[1].DefaultTaxRateBPS)
	require.NoError(t, mock.ExpectationsWereMet())
}
