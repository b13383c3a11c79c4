package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/corebuild/corebuild-backend/internal/moodboards/domain"
	"github.com/corebuild/corebuild-backend/internal/storage/postgres"
)

var boardColumns = []string{
	"id", "company_id", "project_id", "title", "description", "status", "shared_at", "created_at", "updated_at",
}

type MoodBoardRepository struct {
	db *sql.DB
}

func NewMoodBoardRepository(db *sql.DB) *MoodBoardRepository {
	return &MoodBoardRepository{db: db}
}

func (r *MoodBoardRepository) Create(ctx context.Context, b *domain.Board) error {
	b.ID = uuid.New().String()

	const q = `
INSERT INTO mood_boards (id, company_id, project_id, title, description, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at, updated_at`
	if err := r.db.QueryRowContext(ctx, q,
		b.ID, b.CompanyID, b.ProjectID, b.Title, b.Description, b.Status,
	).Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return fmt.Errorf("insert mood board: %w", err)
	}
	b.Items = []domain.Item{}
	return nil
}

// Get loads the board with its items in position order and its comments.
func (r *MoodBoardRepository) Get(ctx context.Context, companyID, id string) (*domain.Board, error) {
	b, err := getBoard(ctx, r.db, companyID, id, false)
	if err != nil {
		return nil, err
	}
	b.Items, err = listItems(ctx, r.db, b.ID)
	if err != nil {
		return nil, err
	}
	b.Comments, err = r.ListComments(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *MoodBoardRepository) ListByProject(ctx context.Context, companyID, projectID, status string) ([]domain.Board, error) {
	where := sq.Eq{"company_id": companyID, "project_id": projectID}
	if status != "" {
		where["status"] = status
	}

	q, args, err := postgres.Builder.Select(boardColumns...).
		From("mood_boards").
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

	out := []domain.Board{}
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// Update writes b only while the stored status still equals fromStatus.
func (r *MoodBoardRepository) Update(ctx context.Context, b *domain.Board, fromStatus string) error {
	const q = `
UPDATE mood_boards SET title = $3, description = $4, status = $5, shared_at = $6, updated_at = now()
WHERE company_id = $1 AND id = $2 AND status = $7
RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, q,
		b.CompanyID, b.ID, b.Title, b.Description, b.Status, b.SharedAt, fromStatus,
	).Scan(&b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrStale
	}
	return err
}

// Duplicate copies the board and its items into a new draft.
func (r *MoodBoardRepository) Duplicate(ctx context.Context, companyID, id string) (*domain.Board, error) {
	var cp *domain.Board
	err := postgres.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		src, err := getBoard(ctx, tx, companyID, id, false)
		if err != nil {
			return err
		}
		items, err := listItems(ctx, tx, src.ID)
		if err != nil {
			return err
		}

		cp = &domain.Board{
			ID:          uuid.New().String(),
			CompanyID:   src.CompanyID,
			ProjectID:   src.ProjectID,
			Title:       domain.CopyTitle(src.Title),
			Description: src.Description,
			Status:      domain.StatusDraft,
		}
		const q = `
INSERT INTO mood_boards (id, company_id, project_id, title, description, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at, updated_at`
		if err := tx.QueryRowContext(ctx, q,
			cp.ID, cp.CompanyID, cp.ProjectID, cp.Title, cp.Description, cp.Status,
		).Scan(&cp.CreatedAt, &cp.UpdatedAt); err != nil {
			return fmt.Errorf("insert mood board copy: %w", err)
		}

		cp.Items = make([]domain.Item, 0, len(items))
		for _, it := range items {
			it.ID = uuid.New().String()
			it.BoardID = cp.ID
			if err := tx.QueryRowContext(ctx, `
INSERT INTO mood_board_items (id, board_id, image_url, caption, tags, position)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at`,
				it.ID, it.BoardID, it.ImageURL, it.Caption, pq.Array(it.Tags), it.Position,
			).Scan(&it.CreatedAt); err != nil {
				return fmt.Errorf("copy mood board item: %w", err)
			}
			cp.Items = append(cp.Items, it)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cp, nil
}

// ListPendingApproval returns shared boards across the company, longest waiting first.
func (r *MoodBoardRepository) ListPendingApproval(ctx context.Context, companyID string) ([]domain.PendingBoard, error) {
	cols := make([]string, 0, len(boardColumns)+2)
	for _, c := range boardColumns {
		cols = append(cols, "b."+c)
	}
	cols = append(cols, "p.name",
		"(SELECT count(*) FROM mood_board_items i WHERE i.board_id = b.id)")

	q, args, err := postgres.Builder.Select(cols...).
		From("mood_boards b").
		Join("projects p ON p.id = b.project_id").
		Where(sq.Eq{"b.company_id": companyID, "b.status": domain.StatusShared}).
		OrderBy("b.shared_at NULLS FIRST", "b.created_at").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.PendingBoard{}
	for rows.Next() {
		var p domain.PendingBoard
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.ProjectID, &p.Title, &p.Description, &p.Status,
			&p.SharedAt, &p.CreatedAt, &p.UpdatedAt, &p.ProjectName, &p.ItemCount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// StatusCounts tallies boards, items and comments per status for a project.
func (r *MoodBoardRepository) StatusCounts(ctx context.Context, companyID, projectID string) ([]domain.StatusCount, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT b.status, count(*), coalesce(sum(i.n), 0), coalesce(sum(c.n), 0)
FROM mood_boards b
LEFT JOIN (SELECT board_id, count(*) AS n FROM mood_board_items GROUP BY board_id) i ON i.board_id = b.id
LEFT JOIN (SELECT board_id, count(*) AS n FROM mood_board_comments GROUP BY board_id) c ON c.board_id = b.id
WHERE b.company_id = $1 AND b.project_id = $2
GROUP BY b.status`, companyID, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StatusCount
	for rows.Next() {
		var c domain.StatusCount
		if err := rows.Scan(&c.Status, &c.Boards, &c.Items, &c.Comments); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *MoodBoardRepository) AddComment(ctx context.Context, c *domain.Comment) error {
	c.ID = uuid.New().String()

	const q = `
INSERT INTO mood_board_comments (id, board_id, item_id, user_id, body)
VALUES ($1, $2, $3, nullif($4, '')::uuid, $5)
RETURNING created_at`
	if err := r.db.QueryRowContext(ctx, q, c.ID, c.BoardID, c.ItemID, c.UserID, c.Body).Scan(&c.CreatedAt); err != nil {
		return fmt.Errorf("insert mood board comment: %w", err)
	}
	return nil
}

func (r *MoodBoardRepository) ListComments(ctx context.Context, boardID string) ([]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, board_id, item_id, coalesce(user_id::text, ''), body, created_at
FROM mood_board_comments WHERE board_id = $1 ORDER BY created_at`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// GetComment scopes the lookup through the board's company.
func (r *MoodBoardRepository) GetComment(ctx context.Context, companyID, boardID, commentID string) (*domain.Comment, error) {
	c, err := scanComment(r.db.QueryRowContext(ctx, `
SELECT c.id, c.board_id, c.item_id, coalesce(c.user_id::text, ''), c.body, c.created_at
FROM mood_board_comments c
JOIN mood_boards b ON b.id = c.board_id
WHERE b.company_id = $1 AND c.board_id = $2 AND c.id = $3`, companyID, boardID, commentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCommentNotFound
	}
	return c, err
}

func (r *MoodBoardRepository) DeleteComment(ctx context.Context, boardID, commentID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM mood_board_comments WHERE board_id = $1 AND id = $2`, boardID, commentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

func (r *MoodBoardRepository) Delete(ctx context.Context, companyID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM mood_boards WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrBoardNotFound
	}
	return nil
}

// AddItem appends item at the end of the board.
func (r *MoodBoardRepository) AddItem(ctx context.Context, companyID, boardID string, item *domain.Item) error {
	return r.withEditableBoard(ctx, companyID, boardID, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT count(*) FROM mood_board_items WHERE board_id = $1`, boardID,
		).Scan(&n); err != nil {
			return err
		}

		item.ID = uuid.New().String()
		item.BoardID = boardID
		item.Position = n
		if item.Tags == nil {
			item.Tags = []string{}
		}

		const q = `
INSERT INTO mood_board_items (id, board_id, image_url, caption, tags, position)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at`
		if err := tx.QueryRowContext(ctx, q,
			item.ID, item.BoardID, item.ImageURL, item.Caption, pq.Array(item.Tags), item.Position,
		).Scan(&item.CreatedAt); err != nil {
			return fmt.Errorf("insert mood board item: %w", err)
		}
		return nil
	})
}

// RemoveItem deletes the item and closes the gap it leaves.
func (r *MoodBoardRepository) RemoveItem(ctx context.Context, companyID, boardID, itemID string) error {
	return r.withEditableBoard(ctx, companyID, boardID, func(tx *sql.Tx) error {
		var pos int
		err := tx.QueryRowContext(ctx,
			`DELETE FROM mood_board_items WHERE board_id = $1 AND id = $2 RETURNING position`,
			boardID, itemID,
		).Scan(&pos)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrItemNotFound
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE mood_board_items SET position = position - 1 WHERE board_id = $1 AND position > $2`,
			boardID, pos,
		)
		return err
	})
}

// ReorderItems rewrites positions to follow order, which must name every item.
func (r *MoodBoardRepository) ReorderItems(ctx context.Context, companyID, boardID string, order []string) error {
	return r.withEditableBoard(ctx, companyID, boardID, func(tx *sql.Tx) error {
		items, err := listItems(ctx, tx, boardID)
		if err != nil {
			return err
		}
		current := make([]string, len(items))
		for i, it := range items {
			current[i] = it.ID
		}
		if err := domain.CheckOrder(current, order); err != nil {
			return err
		}

		for pos, id := range order {
			if _, err := tx.ExecContext(ctx,
				`UPDATE mood_board_items SET position = $3 WHERE board_id = $1 AND id = $2`,
				boardID, id, pos,
			); err != nil {
				return fmt.Errorf("reposition item: %w", err)
			}
		}
		return nil
	})
}

func (r *MoodBoardRepository) withEditableBoard(ctx context.Context, companyID, boardID string, fn func(tx *sql.Tx) error) error {
	return postgres.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		b, err := getBoard(ctx, tx, companyID, boardID, true)
		if err != nil {
			return err
		}
		if !domain.ItemsEditable(b.Status) {
			return domain.ErrNotEditable
		}
		if err := fn(tx); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE mood_boards SET updated_at = now() WHERE id = $1`, boardID)
		return err
	})
}

func getBoard(ctx context.Context, db postgres.DBTX, companyID, id string, forUpdate bool) (*domain.Board, error) {
	sb := postgres.Builder.Select(boardColumns...).
		From("mood_boards").
		Where(sq.Eq{"company_id": companyID, "id": id})
	if forUpdate {
		sb = sb.Suffix("FOR UPDATE")
	}
	q, args, err := sb.ToSql()
	if err != nil {
		return nil, err
	}

	b, err := scanBoard(db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBoardNotFound
	}
	return b, err
}

func listItems(ctx context.Context, db postgres.DBTX, boardID string) ([]domain.Item, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, board_id, image_url, caption, tags, position, created_at
FROM mood_board_items WHERE board_id = $1 ORDER BY position`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.Item{}
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.BoardID, &it.ImageURL, &it.Caption, pq.Array(&it.Tags),
			&it.Position, &it.CreatedAt); err != nil {
			return nil, err
		}
		if it.Tags == nil {
			it.Tags = []string{}
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBoard(row rowScanner) (*domain.Board, error) {
	var b domain.Board
	if err := row.Scan(&b.ID, &b.CompanyID, &b.ProjectID, &b.Title, &b.Description, &b.Status,
		&b.SharedAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func scanComment(row rowScanner) (*domain.Comment, error) {
	var c domain.Comment
	var itemID sql.NullString
	if err := row.Scan(&c.ID, &c.BoardID, &itemID, &c.UserID, &c.Body, &c.CreatedAt); err != nil {
		return nil, err
	}
	if itemID.Valid {
		c.ItemID = &itemID.String
	}
	return &c, nil
}
