package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebuild/corebuild-backend/internal/moodboards/domain"
)

func setupRepo(t *testing.T) (*MoodBoardRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMoodBoardRepository(db), mock
}

func lockedBoard(mock sqlmock.Sqlmock, status string) {
	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM mood_boards WHERE .* FOR UPDATE`).
		WithArgs("co-1", "b-1").
		WillReturnRows(sqlmock.NewRows(boardColumns).
			AddRow("b-1", "co-1", "p-1", "Kitchen", "", status, nil, now, now))
}

func TestMoodBoardRepository_AddItemAppends(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	lockedBoard(mock, domain.StatusDraft)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM mood_board_items`)).
		WithArgs("b-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`INSERT INTO mood_board_items`).
		WithArgs(sqlmock.AnyArg(), "b-1", "https://img.example.com/1.jpg", "", pq.Array([]string{"oak"}), 3).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec(`UPDATE mood_boards SET updated_at`).
		WithArgs("b-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	item := &domain.Item{ImageURL: "https://img.example.com/1.jpg", Tags: []string{"oak"}}
	require.NoError(t, repo.AddItem(context.Background(), "co-1", "b-1", item))
	assert.Equal(t, 3, item.Position)
	assert.Equal(t, "b-1", item.BoardID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodBoardRepository_AddItemNotEditable(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	lockedBoard(mock, domain.StatusShared)
	mock.ExpectRollback()

	err := repo.AddItem(context.Background(), "co-1", "b-1", &domain.Item{ImageURL: "https://x.example.com/a.png"})
	assert.ErrorIs(t, err, domain.ErrNotEditable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodBoardRepository_RemoveItemCompacts(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	lockedBoard(mock, domain.StatusChangesRequested)
	mock.ExpectQuery(`DELETE FROM mood_board_items .* RETURNING position`).
		WithArgs("b-1", "i-2").
		WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(`SET position = position - 1 WHERE board_id = $1 AND position > $2`)).
		WithArgs("b-1", 1).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE mood_boards SET updated_at`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.RemoveItem(context.Background(), "co-1", "b-1", "i-2"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodBoardRepository_ReorderRejectsPartialOrder(t *testing.T) {
	repo, mock := setupRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	lockedBoard(mock, domain.StatusDraft)
	mock.ExpectQuery(`FROM mood_board_items WHERE board_id = \$1 ORDER BY position`).
		WithArgs("b-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "image_url", "caption", "tags", "position", "created_at"}).
			AddRow("i-1", "b-1", "u1", "", "{}", 0, now).
			AddRow("i-2", "b-1", "u2", "", "{tile}", 1, now))
	mock.ExpectRollback()

	err := repo.ReorderItems(context.Background(), "co-1", "b-1", []string{"i-2"})
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodBoardRepository_Reorder(t *testing.T) {
	repo, mock := setupRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	lockedBoard(mock, domain.StatusDraft)
	mock.ExpectQuery(`FROM mood_board_items`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "image_url", "caption", "tags", "position", "created_at"}).
			AddRow("i-1", "b-1", "u1", "", "{}", 0, now).
			AddRow("i-2", "b-1", "u2", "", "{}", 1, now))
	mock.ExpectExec(`UPDATE mood_board_items SET position`).
		WithArgs("b-1", "i-2", 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE mood_board_items SET position`).
		WithArgs("b-1", "i-1", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE mood_boards SET updated_at`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ReorderItems(context.Background(), "co-1", "b-1", []string{"i-2", "i-1"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodBoardRepository_UpdateGuardsStatus(t *testing.T) {
	repo, mock := setupRepo(t)
	shared := time.Date(2024, 5, 2, 15, 0, 0, 0, time.UTC)
	b := &domain.Board{ID: "b-1", CompanyID: "co-1", Title: "Kitchen", Status: domain.StatusShared, SharedAt: &shared}

	mock.ExpectQuery(`UPDATE mood_boards SET .*shared_at = \$6.* AND status = \$7`).
		WithArgs("co-1", "b-1", "Kitchen", "", domain.StatusShared, shared, domain.StatusDraft).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}))

	err := repo.Update(context.Background(), b, domain.StatusDraft)
	assert.ErrorIs(t, err, domain.ErrStale)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodBoardRepository_DuplicateCopiesItems(t *testing.T) {
	repo, mock := setupRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM mood_boards WHERE`).
		WithArgs("co-1", "b-1").
		WillReturnRows(sqlmock.NewRows(boardColumns).
			AddRow("b-1", "co-1", "p-1", "Kitchen", "warm", domain.StatusApproved, now, now, now))
	mock.ExpectQuery(`FROM mood_board_items WHERE board_id = \$1 ORDER BY position`).
		WithArgs("b-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "image_url", "caption", "tags", "position", "created_at"}).
			AddRow("i-1", "b-1", "https://img.example.com/1.jpg", "oak", "{oak}", 0, now))
	mock.ExpectQuery(`INSERT INTO mood_boards`).
		WithArgs(sqlmock.AnyArg(), "co-1", "p-1", "Kitchen (Copy)", "warm", domain.StatusDraft).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectQuery(`INSERT INTO mood_board_items`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "https://img.example.com/1.jpg", "oak", pq.Array([]string{"oak"}), 0).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectCommit()

	cp, err := repo.Duplicate(context.Background(), "co-1", "b-1")
	require.NoError(t, err)
	assert.NotEqual(t, "b-1", cp.ID)
	assert.Equal(t, domain.StatusDraft, cp.Status)
	assert.Nil(t, cp.SharedAt)
	require.Len(t, cp.Items, 1)
	assert.Equal(t, cp.ID, cp.Items[0].BoardID)
	assert.NotEqual(t, "i-1", cp.Items[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodBoardRepository_AddComment(t *testing.T) {
	repo, mock := setupRepo(t)
	item := "i-1"

	mock.ExpectQuery(`INSERT INTO mood_board_comments .*nullif\(\$4, ''\)::uuid`).
		WithArgs(sqlmock.AnyArg(), "b-1", item, "u-1", "Love it").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	c := &domain.Comment{BoardID: "b-1", ItemID: &item, UserID: "u-1", Body: "Love it"}
	require.NoError(t, repo.AddComment(context.Background(), c))
	assert.NotEmpty(t, c.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodBoardRepository_GetCommentScopedToCompany(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery(`FROM mood_board_comments c JOIN mood_boards b .* WHERE b.company_id = \$1`).
		WithArgs("co-2", "b-1", "c-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "item_id", "user_id", "body", "created_at"}))

	_, err := repo.GetComment(context.Background(), "co-2", "b-1", "c-1")
	assert.ErrorIs(t, err, domain.ErrCommentNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodBoardRepository_StatusCounts(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery(`SELECT b.status, count\(\*\).* GROUP BY b.status`).
		WithArgs("co-1", "p-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count", "items", "comments"}).
			AddRow(domain.StatusDraft, 2, "3", "0").
			AddRow(domain.StatusShared, 1, "4", "5"))

	counts, err := repo.StatusCounts(context.Background(), "co-1", "p-1")
	require.NoError(t, err)
	assert.Equal(t, []domain.StatusCount{
		{Status: domain.StatusDraft, Boards: 2, Items: 3},
		{Status: domain.StatusShared, Boards: 1, Items: 4, Comments: 5},
	}, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodBoardRepository_ListPendingApproval(t *testing.T) {
	repo, mock := setupRepo(t)
	now := time.Now()

	cols := append(append([]string{}, boardColumns...), "name", "count")
	mock.ExpectQuery(`FROM mood_boards b JOIN projects p ON p.id = b.project_id WHERE .* ORDER BY b.shared_at NULLS FIRST, b.created_at`).
		WithArgs("co-1", domain.StatusShared).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("b-1", "co-1", "p-1", "Kitchen", "", domain.StatusShared, now, now, now, "Oak St", 4))

	pending, err := repo.ListPendingApproval(context.Background(), "co-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Oak St", pending[0].ProjectName)
	assert.Equal(t, 4, pending[0].ItemCount)
	require.NotNil(t, pending[0].SharedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
