package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebuild/corebuild-backend/internal/moodboards/domain"
	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
	projectdomain "github.com/corebuild/corebuild-backend/internal/projects/domain"
)

type memRepo struct {
	boards   map[string]*domain.Board
	comments map[string]*domain.Comment
	seq      int
}

func newMemRepo() *memRepo {
	return &memRepo{boards: map[string]*domain.Board{}, comments: map[string]*domain.Comment{}}
}

func (m *memRepo) Create(_ context.Context, b *domain.Board) error {
	b.ID = "b-1"
	cp := *b
	m.boards[b.ID] = &cp
	return nil
}

func (m *memRepo) Get(_ context.Context, companyID, id string) (*domain.Board, error) {
	b, ok := m.boards[id]
	if !ok || b.CompanyID != companyID {
		return nil, domain.ErrBoardNotFound
	}
	cp := *b
	cp.Items = append([]domain.Item{}, b.Items...)
	cp.Comments, _ = m.ListComments(context.Background(), id)
	return &cp, nil
}

func (m *memRepo) ListByProject(context.Context, string, string, string) ([]domain.Board, error) {
	return nil, nil
}

func (m *memRepo) Update(_ context.Context, b *domain.Board, fromStatus string) error {
	cur, ok := m.boards[b.ID]
	if !ok || cur.Status != fromStatus {
		return domain.ErrStale
	}
	cp := *b
	cp.Items = cur.Items
	m.boards[b.ID] = &cp
	return nil
}

func (m *memRepo) Duplicate(ctx context.Context, companyID, id string) (*domain.Board, error) {
	src, err := m.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	m.seq++
	cp := *src
	cp.ID = src.ID + "-copy"
	cp.Title = domain.CopyTitle(src.Title)
	cp.Status = domain.StatusDraft
	cp.SharedAt = nil
	cp.Comments = nil
	cp.Items = nil
	for _, it := range src.Items {
		it.BoardID = cp.ID
		cp.Items = append(cp.Items, it)
	}
	stored := cp
	m.boards[cp.ID] = &stored
	return &cp, nil
}

func (m *memRepo) ListPendingApproval(_ context.Context, companyID string) ([]domain.PendingBoard, error) {
	var out []domain.PendingBoard
	for _, b := range m.boards {
		if b.CompanyID == companyID && b.Status == domain.StatusShared {
			out = append(out, domain.PendingBoard{Board: *b, ItemCount: len(b.Items)})
		}
	}
	return out, nil
}

func (m *memRepo) StatusCounts(_ context.Context, companyID, projectID string) ([]domain.StatusCount, error) {
	by := map[string]*domain.StatusCount{}
	for _, b := range m.boards {
		if b.CompanyID != companyID || b.ProjectID != projectID {
			continue
		}
		c, ok := by[b.Status]
		if !ok {
			c = &domain.StatusCount{Status: b.Status}
			by[b.Status] = c
		}
		c.Boards++
		c.Items += len(b.Items)
		for _, cm := range m.comments {
			if cm.BoardID == b.ID {
				c.Comments++
			}
		}
	}
	var out []domain.StatusCount
	for _, c := range by {
		out = append(out, *c)
	}
	return out, nil
}

func (m *memRepo) AddComment(_ context.Context, c *domain.Comment) error {
	m.seq++
	c.ID = "c-" + string(rune('0'+m.seq))
	c.CreatedAt = time.Date(2024, 5, 1, 9, 0, m.seq, 0, time.UTC)
	cp := *c
	m.comments[c.ID] = &cp
	return nil
}

func (m *memRepo) ListComments(_ context.Context, boardID string) ([]domain.Comment, error) {
	out := []domain.Comment{}
	for _, c := range m.comments {
		if c.BoardID == boardID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memRepo) GetComment(_ context.Context, companyID, boardID, commentID string) (*domain.Comment, error) {
	c, ok := m.comments[commentID]
	if !ok || c.BoardID != boardID || m.boards[boardID].CompanyID != companyID {
		return nil, domain.ErrCommentNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) DeleteComment(_ context.Context, _, commentID string) error {
	delete(m.comments, commentID)
	return nil
}

func (m *memRepo) Delete(_ context.Context, _, id string) error {
	delete(m.boards, id)
	return nil
}

func (m *memRepo) AddItem(_ context.Context, _, boardID string, item *domain.Item) error {
	b := m.boards[boardID]
	if !domain.ItemsEditable(b.Status) {
		return domain.ErrNotEditable
	}
	item.ID = "i-" + string(rune('a'+len(b.Items)))
	item.Position = len(b.Items)
	b.Items = append(b.Items, *item)
	return nil
}

func (m *memRepo) RemoveItem(context.Context, string, string, string) error { return nil }

func (m *memRepo) ReorderItems(context.Context, string, string, []string) error { return nil }

type projects struct{}

func (projects) Get(_ context.Context, companyID, id string) (*projectdomain.Project, error) {
	if companyID == "co-1" && id == "p-1" {
		return &projectdomain.Project{ID: id, CompanyID: companyID}, nil
	}
	return nil, projectdomain.ErrProjectNotFound
}

func TestMoodBoardService_ReviewCycle(t *testing.T) {
	svc := NewMoodBoardService(newMemRepo(), projects{})
	ctx := context.Background()

	b, err := svc.Create(ctx, "co-1", "p-1", domain.CreateBoardRequest{Title: " Kitchen "})
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", b.Title)
	assert.Equal(t, domain.StatusDraft, b.Status)

	_, err = svc.ChangeStatus(ctx, "co-1", b.ID, domain.StatusShared)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	item, err := svc.AddItem(ctx, "co-1", b.ID, domain.AddItemRequest{
		ImageURL: "https://img.example.com/oak.jpg",
		Tags:     []string{"Oak", " oak", "", "Warm"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"oak", "warm"}, item.Tags)
	assert.Equal(t, 0, item.Position)

	b, err = svc.ChangeStatus(ctx, "co-1", b.ID, domain.StatusShared)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, "co-1", b.ID, domain.AddItemRequest{ImageURL: "https://img.example.com/2.jpg"})
	assert.ErrorIs(t, err, domain.ErrNotEditable)

	_, err = svc.ChangeStatus(ctx, "co-1", b.ID, domain.StatusChangesRequested)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "co-1", b.ID, domain.AddItemRequest{ImageURL: "https://img.example.com/2.jpg"})
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, "co-1", b.ID, domain.StatusApproved)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	b, err = svc.ChangeStatus(ctx, "co-1", b.ID, domain.StatusArchived)
	require.NoError(t, err)
	_, err = svc.Update(ctx, "co-1", b.ID, domain.UpdateBoardRequest{Title: ptr("New")})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestMoodBoardService_ItemValidation(t *testing.T) {
	svc := NewMoodBoardService(newMemRepo(), projects{})
	ctx := context.Background()

	for _, raw := range []string{"", "not a url", "ftp://files.example.com/a.png", "https://"} {
		_, err := svc.AddItem(ctx, "co-1", "b-1", domain.AddItemRequest{ImageURL: raw})
		assert.ErrorIs(t, err, apperr.ErrValidation, raw)
	}
}

func TestMoodBoardService_CreateRequiresProject(t *testing.T) {
	svc := NewMoodBoardService(newMemRepo(), projects{})

	_, err := svc.Create(context.Background(), "co-1", "p-2", domain.CreateBoardRequest{Title: "Bath"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.ListByProject(context.Background(), "co-1", "p-1", "published")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestMoodBoardService_ShareStampsTime(t *testing.T) {
	repo := newMemRepo()
	svc := NewMoodBoardService(repo, projects{})
	shared := time.Date(2024, 5, 2, 15, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return shared }
	ctx := context.Background()

	b, err := svc.Create(ctx, "co-1", "p-1", domain.CreateBoardRequest{Title: "Bath"})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "co-1", b.ID, domain.AddItemRequest{ImageURL: "https://img.example.com/a.jpg"})
	require.NoError(t, err)

	b, err = svc.ChangeStatus(ctx, "co-1", b.ID, domain.StatusShared)
	require.NoError(t, err)
	require.NotNil(t, b.SharedAt)
	assert.Equal(t, shared, *b.SharedAt)

	pending, err := svc.PendingApproval(ctx, "co-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].ItemCount)

	b, err = svc.ChangeStatus(ctx, "co-1", b.ID, domain.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, shared, *b.SharedAt)

	pending, err = svc.PendingApproval(ctx, "co-1")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

// archivingRepo archives the board between the service's read and its write.
type archivingRepo struct {
	*memRepo
}

func (r archivingRepo) Get(ctx context.Context, companyID, id string) (*domain.Board, error) {
	b, err := r.memRepo.Get(ctx, companyID, id)
	if err == nil {
		r.boards[id].Status = domain.StatusArchived
	}
	return b, err
}

func TestMoodBoardService_ChangeStatusLosesToConcurrentWrite(t *testing.T) {
	repo := newMemRepo()
	repo.boards["b-1"] = &domain.Board{
		ID: "b-1", CompanyID: "co-1", ProjectID: "p-1", Title: "Kitchen", Status: domain.StatusShared,
		Items: []domain.Item{{ID: "i-a"}},
	}
	svc := NewMoodBoardService(archivingRepo{repo}, projects{})

	_, err := svc.ChangeStatus(context.Background(), "co-1", "b-1", domain.StatusApproved)
	assert.ErrorIs(t, err, domain.ErrStale)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, domain.StatusArchived, repo.boards["b-1"].Status)
}

func TestMoodBoardService_Comments(t *testing.T) {
	repo := newMemRepo()
	repo.boards["b-1"] = &domain.Board{
		ID: "b-1", CompanyID: "co-1", ProjectID: "p-1", Title: "Kitchen", Status: domain.StatusShared,
		Items: []domain.Item{{ID: "i-a", BoardID: "b-1"}},
	}
	svc := NewMoodBoardService(repo, projects{})
	ctx := context.Background()

	c, err := svc.AddComment(ctx, "co-1", "b-1", "u-1", domain.AddCommentRequest{ItemID: ptr("i-a"), Body: " Love the oak "})
	require.NoError(t, err)
	assert.Equal(t, "Love the oak", c.Body)
	assert.Equal(t, "u-1", c.UserID)

	_, err = svc.AddComment(ctx, "co-1", "b-1", "u-1", domain.AddCommentRequest{ItemID: ptr("i-z"), Body: "?"})
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
	_, err = svc.AddComment(ctx, "co-1", "b-1", "u-1", domain.AddCommentRequest{Body: "  "})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.AddComment(ctx, "co-1", "b-1", "u-1", domain.AddCommentRequest{Body: strings.Repeat("x", domain.MaxCommentLength+1)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.AddComment(ctx, "co-2", "b-1", "u-1", domain.AddCommentRequest{Body: "hi"})
	assert.ErrorIs(t, err, domain.ErrBoardNotFound)

	comments, err := svc.ListComments(ctx, "co-1", "b-1")
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	err = svc.DeleteComment(ctx, "co-1", "b-1", c.ID, "u-2")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	require.NoError(t, svc.DeleteComment(ctx, "co-1", "b-1", c.ID, "u-1"))
	assert.Empty(t, repo.comments)

	repo.boards["b-1"].Status = domain.StatusArchived
	_, err = svc.AddComment(ctx, "co-1", "b-1", "u-1", domain.AddCommentRequest{Body: "late"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestMoodBoardService_DuplicateAndSummary(t *testing.T) {
	repo := newMemRepo()
	repo.boards["b-1"] = &domain.Board{
		ID: "b-1", CompanyID: "co-1", ProjectID: "p-1", Title: "Kitchen", Status: domain.StatusApproved,
		Items: []domain.Item{{ID: "i-a", BoardID: "b-1"}, {ID: "i-b", BoardID: "b-1", Position: 1}},
	}
	repo.comments["c-9"] = &domain.Comment{ID: "c-9", BoardID: "b-1", Body: "ok"}
	svc := NewMoodBoardService(repo, projects{})
	ctx := context.Background()

	cp, err := svc.Duplicate(ctx, "co-1", "b-1")
	require.NoError(t, err)
	assert.Equal(t, "Kitchen (Copy)", cp.Title)
	assert.Equal(t, domain.StatusDraft, cp.Status)
	assert.Len(t, cp.Items, 2)
	assert.Equal(t, cp.ID, cp.Items[0].BoardID)

	_, err = svc.Duplicate(ctx, "co-2", "b-1")
	assert.ErrorIs(t, err, domain.ErrBoardNotFound)

	sum, err := svc.Summary(ctx, "co-1", "p-1")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.TotalBoards)
	assert.Equal(t, 4, sum.TotalItems)
	assert.Equal(t, 1, sum.TotalComments)
	assert.Equal(t, 1, sum.ByStatus[domain.StatusApproved])
	assert.Equal(t, 1, sum.ByStatus[domain.StatusDraft])
	assert.Equal(t, 0, sum.PendingApproval)

	_, err = svc.Summary(ctx, "co-1", "p-2")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func ptr[T any](v T) *T { return &v }
