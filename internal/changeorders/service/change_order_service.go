package service

import (
	"context"
	"strings"
	"time"

	"github.com/corebuild/corebuild-backend/internal/changeorders/domain"
	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
	projectdomain "github.com/corebuild/corebuild-backend/internal/projects/domain"
)

type Repository interface {
	Create(ctx context.Context, co *domain.ChangeOrder) error
	Get(ctx context.Context, companyID, id string) (*domain.ChangeOrder, error)
	ListByProject(ctx context.Context, companyID, projectID, status string) ([]domain.ChangeOrder, error)
	Update(ctx context.Context, co *domain.ChangeOrder, fromStatus string) error
	Decide(ctx context.Context, companyID, id, status string, at time.Time) (*domain.ChangeOrder, error)
}

type ProjectLookup interface {
	Get(ctx context.Context, companyID, id string) (*projectdomain.Project, error)
}

type ChangeOrderService struct {
	repo     Repository
	projects ProjectLookup
	now      func() time.Time
}

func NewChangeOrderService(repo Repository, projects ProjectLookup) *ChangeOrderService {
	return &ChangeOrderService{repo: repo, projects: projects, now: time.Now}
}

func (s *ChangeOrderService) Create(ctx context.Context, companyID, projectID string, req domain.CreateChangeOrderRequest) (*domain.ChangeOrder, error) {
	if _, err := s.projects.Get(ctx, companyID, projectID); err != nil {
		return nil, err
	}

	co := &domain.ChangeOrder{
		CompanyID:          companyID,
		ProjectID:          projectID,
		Title:              strings.TrimSpace(req.Title),
		Description:        req.Description,
		Reason:             strings.TrimSpace(req.Reason),
		AmountCents:        req.AmountCents,
		ScheduleImpactDays: req.ScheduleImpactDays,
		Status:             domain.StatusDraft,
	}
	if err := validate(co); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, co); err != nil {
		return nil, err
	}
	return co, nil
}

func (s *ChangeOrderService) Get(ctx context.Context, companyID, id string) (*domain.ChangeOrder, error) {
	return s.repo.Get(ctx, companyID, id)
}

func (s *ChangeOrderService) ListByProject(ctx context.Context, companyID, projectID, status string) ([]domain.ChangeOrder, error) {
	if status != "" && !domain.Transitions.Known(status) {
		return nil, apperr.Validation("unknown status %q", status)
	}
	if _, err := s.projects.Get(ctx, companyID, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListByProject(ctx, companyID, projectID, status)
}

func (s *ChangeOrderService) Update(ctx context.Context, companyID, id string, req domain.UpdateChangeOrderRequest) (*domain.ChangeOrder, error) {
	co, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if co.Status != domain.StatusDraft {
		return nil, domain.ErrNotEditable
	}

	if req.Title != nil {
		co.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		co.Description = *req.Description
	}
	if req.Reason != nil {
		co.Reason = strings.TrimSpace(*req.Reason)
	}
	if req.AmountCents != nil {
		co.AmountCents = *req.AmountCents
	}
	if req.ScheduleImpactDays != nil {
		co.ScheduleImpactDays = *req.ScheduleImpactDays
	}

	if err := validate(co); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, co, domain.StatusDraft); err != nil {
		return nil, err
	}
	return co, nil
}

// ChangeStatus submits, withdraws or decides a change order. Decisions go
// through the repository so an approval and its contract change commit together.
func (s *ChangeOrderService) ChangeStatus(ctx context.Context, companyID, id, status string) (*domain.ChangeOrder, error) {
	if domain.IsDecision(status) {
		return s.repo.Decide(ctx, companyID, id, status, s.now().UTC())
	}

	co, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !domain.Transitions.Can(co.Status, status) {
		return nil, apperr.Transition("change order", co.Status, status)
	}

	from := co.Status
	co.Status = status
	if err := s.repo.Update(ctx, co, from); err != nil {
		return nil, err
	}
	return co, nil
}

func validate(co *domain.ChangeOrder) error {
	if co.Title == "" {
		return apperr.Validation("title is required")
	}
	if co.ScheduleImpactDays < -365 || co.ScheduleImpactDays > 3650 {
		return apperr.Validation("schedule_impact_days is out of range")
	}
	return nil
}
