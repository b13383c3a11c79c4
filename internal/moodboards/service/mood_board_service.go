package service

import (
	"context"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/corebuild/corebuild-backend/internal/moodboards/domain"
	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
	projectdomain "github.com/corebuild/corebuild-backend/internal/projects/domain"
)

type Repository interface {
	Create(ctx context.Context, b *domain.Board) error
	Get(ctx context.Context, companyID, id string) (*domain.Board, error)
	ListByProject(ctx context.Context, companyID, projectID, status string) ([]domain.Board, error)
	Update(ctx context.Context, b *domain.Board, fromStatus string) error
	Delete(ctx context.Context, companyID, id string) error
	Duplicate(ctx context.Context, companyID, id string) (*domain.Board, error)
	ListPendingApproval(ctx context.Context, companyID string) ([]domain.PendingBoard, error)
	StatusCounts(ctx context.Context, companyID, projectID string) ([]domain.StatusCount, error)
	AddItem(ctx context.Context, companyID, boardID string, item *domain.Item) error
	RemoveItem(ctx context.Context, companyID, boardID, itemID string) error
	ReorderItems(ctx context.Context, companyID, boardID string, order []string) error
	AddComment(ctx context.Context, c *domain.Comment) error
	ListComments(ctx context.Context, boardID string) ([]domain.Comment, error)
	GetComment(ctx context.Context, companyID, boardID, commentID string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, boardID, commentID string) error
}

type ProjectLookup interface {
	Get(ctx context.Context, companyID, id string) (*projectdomain.Project, error)
}

type MoodBoardService struct {
	repo     Repository
	projects ProjectLookup
	now      func() time.Time
}

func NewMoodBoardService(repo Repository, projects ProjectLookup) *MoodBoardService {
	return &MoodBoardService{repo: repo, projects: projects, now: time.Now}
}

func (s *MoodBoardService) Create(ctx context.Context, companyID, projectID string, req domain.CreateBoardRequest) (*domain.Board, error) {
	if _, err := s.projects.Get(ctx, companyID, projectID); err != nil {
		return nil, err
	}

	b := &domain.Board{
		CompanyID:   companyID,
		ProjectID:   projectID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Status:      domain.StatusDraft,
	}
	if b.Title == "" {
		return nil, apperr.Validation("title is required")
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *MoodBoardService) Get(ctx context.Context, companyID, id string) (*domain.Board, error) {
	return s.repo.Get(ctx, companyID, id)
}

func (s *MoodBoardService) ListByProject(ctx context.Context, companyID, projectID, status string) ([]domain.Board, error) {
	if status != "" && !domain.Transitions.Known(status) {
		return nil, apperr.Validation("unknown status %q", status)
	}
	if _, err := s.projects.Get(ctx, companyID, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListByProject(ctx, companyID, projectID, status)
}

func (s *MoodBoardService) Update(ctx context.Context, companyID, id string, req domain.UpdateBoardRequest) (*domain.Board, error) {
	b, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if b.Status == domain.StatusArchived {
		return nil, apperr.Conflict("archived mood boards cannot be edited")
	}

	if req.Title != nil {
		b.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		b.Description = strings.TrimSpace(*req.Description)
	}
	if b.Title == "" {
		return nil, apperr.Validation("title is required")
	}

	if err := s.repo.Update(ctx, b, b.Status); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *MoodBoardService) ChangeStatus(ctx context.Context, companyID, id, status string) (*domain.Board, error) {
	b, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !domain.Transitions.Can(b.Status, status) {
		return nil, apperr.Transition("mood board", b.Status, status)
	}
	if status == domain.StatusShared && len(b.Items) == 0 {
		return nil, apperr.Validation("cannot share an empty mood board")
	}

	from := b.Status
	b.Status = status
	if status == domain.StatusShared {
		at := s.now().UTC()
		b.SharedAt = &at
	}
	if err := s.repo.Update(ctx, b, from); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *MoodBoardService) Duplicate(ctx context.Context, companyID, id string) (*domain.Board, error) {
	return s.repo.Duplicate(ctx, companyID, id)
}

// PendingApproval lists boards shared with the client and not yet answered.
func (s *MoodBoardService) PendingApproval(ctx context.Context, companyID string) ([]domain.PendingBoard, error) {
	return s.repo.ListPendingApproval(ctx, companyID)
}

func (s *MoodBoardService) Summary(ctx context.Context, companyID, projectID string) (domain.Summary, error) {
	if _, err := s.projects.Get(ctx, companyID, projectID); err != nil {
		return domain.Summary{}, err
	}
	counts, err := s.repo.StatusCounts(ctx, companyID, projectID)
	if err != nil {
		return domain.Summary{}, err
	}
	return domain.Summarize(counts), nil
}

func (s *MoodBoardService) ListComments(ctx context.Context, companyID, boardID string) ([]domain.Comment, error) {
	b, err := s.repo.Get(ctx, companyID, boardID)
	if err != nil {
		return nil, err
	}
	return b.Comments, nil
}

func (s *MoodBoardService) AddComment(ctx context.Context, companyID, boardID, userID string, req domain.AddCommentRequest) (*domain.Comment, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, apperr.Validation("body is required")
	}
	if utf8.RuneCountInString(body) > domain.MaxCommentLength {
		return nil, apperr.Validation("body must be at most %d characters", domain.MaxCommentLength)
	}

	b, err := s.repo.Get(ctx, companyID, boardID)
	if err != nil {
		return nil, err
	}
	if !domain.Commentable(b.Status) {
		return nil, apperr.Conflict("archived mood boards do not accept comments")
	}
	if req.ItemID != nil && !hasItem(b, *req.ItemID) {
		return nil, domain.ErrItemNotFound
	}

	c := &domain.Comment{BoardID: b.ID, ItemID: req.ItemID, UserID: userID, Body: body}
	if err := s.repo.AddComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteComment removes a comment; only its author may do so.
func (s *MoodBoardService) DeleteComment(ctx context.Context, companyID, boardID, commentID, userID string) error {
	c, err := s.repo.GetComment(ctx, companyID, boardID, commentID)
	if err != nil {
		return err
	}
	if c.UserID == "" || c.UserID != userID {
		return domain.ErrNotCommentAuthor
	}
	return s.repo.DeleteComment(ctx, boardID, commentID)
}

func (s *MoodBoardService) Delete(ctx context.Context, companyID, id string) error {
	return s.repo.Delete(ctx, companyID, id)
}

func (s *MoodBoardService) AddItem(ctx context.Context, companyID, boardID string, req domain.AddItemRequest) (*domain.Item, error) {
	item := &domain.Item{
		ImageURL: strings.TrimSpace(req.ImageURL),
		Caption:  strings.TrimSpace(req.Caption),
		Tags:     normalizeTags(req.Tags),
	}
	if err := validateImageURL(item.ImageURL); err != nil {
		return nil, err
	}
	if err := s.repo.AddItem(ctx, companyID, boardID, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *MoodBoardService) RemoveItem(ctx context.Context, companyID, boardID, itemID string) (*domain.Board, error) {
	if err := s.repo.RemoveItem(ctx, companyID, boardID, itemID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, companyID, boardID)
}

func (s *MoodBoardService) ReorderItems(ctx context.Context, companyID, boardID string, order []string) (*domain.Board, error) {
	if err := s.repo.ReorderItems(ctx, companyID, boardID, order); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, companyID, boardID)
}

func hasItem(b *domain.Board, itemID string) bool {
	for _, it := range b.Items {
		if it.ID == itemID {
			return true
		}
	}
	return false
}

func validateImageURL(raw string) error {
	if raw == "" {
		return apperr.Validation("image_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperr.Validation("image_url must be an http(s) URL")
	}
	return nil
}

// normalizeTags lowercases tags and drops blanks and repeats, keeping first-seen order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
