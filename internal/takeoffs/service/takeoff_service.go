package service

import (
	"context"
	"strings"

	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
	projectdomain "github.com/corebuild/corebuild-backend/internal/projects/domain"
	"github.com/corebuild/corebuild-backend/internal/takeoffs/domain"
)

type Repository interface {
	Create(ctx context.Context, t *domain.Takeoff) error
	Get(ctx context.Context, companyID, id string) (*domain.Takeoff, error)
	ListByProject(ctx context.Context, companyID, projectID string) ([]domain.Takeoff, error)
	Replace(ctx context.Context, t *domain.Takeoff) error
	Delete(ctx context.Context, companyID, id string) error
}

type ProjectLookup interface {
	Get(ctx context.Context, companyID, id string) (*projectdomain.Project, error)
}

type TakeoffService struct {
	repo     Repository
	projects ProjectLookup
}

func NewTakeoffService(repo Repository, projects ProjectLookup) *TakeoffService {
	return &TakeoffService{repo: repo, projects: projects}
}

func (s *TakeoffService) Create(ctx context.Context, companyID, projectID string, req domain.SaveTakeoffRequest) (*domain.Takeoff, error) {
	if _, err := s.projects.Get(ctx, companyID, projectID); err != nil {
		return nil, err
	}

	t := &domain.Takeoff{CompanyID: companyID, ProjectID: projectID}
	if err := apply(t, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TakeoffService) Get(ctx context.Context, companyID, id string) (*domain.Takeoff, error) {
	return s.repo.Get(ctx, companyID, id)
}

func (s *TakeoffService) ListByProject(ctx context.Context, companyID, projectID string) ([]domain.Takeoff, error) {
	if _, err := s.projects.Get(ctx, companyID, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListByProject(ctx, companyID, projectID)
}

// Replace swaps the whole measurement set.
func (s *TakeoffService) Replace(ctx context.Context, companyID, id string, req domain.SaveTakeoffRequest) (*domain.Takeoff, error) {
	t := &domain.Takeoff{ID: id, CompanyID: companyID}
	if err := apply(t, req); err != nil {
		return nil, err
	}
	if err := s.repo.Replace(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TakeoffService) Delete(ctx context.Context, companyID, id string) error {
	return s.repo.Delete(ctx, companyID, id)
}

func apply(t *domain.Takeoff, req domain.SaveTakeoffRequest) error {
	t.Name = strings.TrimSpace(req.Name)
	t.PlanSheet = strings.TrimSpace(req.PlanSheet)
	if t.Name == "" {
		return apperr.Validation("name is required")
	}

	t.Measurements = make([]domain.Measurement, len(req.Measurements))
	for i, m := range req.Measurements {
		m.Label = strings.TrimSpace(m.Label)
		m.Kind = strings.ToLower(strings.TrimSpace(m.Kind))
		m.Unit = strings.ToLower(strings.TrimSpace(m.Unit))
		if err := validateMeasurement(i, m); err != nil {
			return err
		}
		t.Measurements[i] = m
	}
	t.Derive()
	return nil
}

func validateMeasurement(i int, m domain.Measurement) error {
	if m.Label == "" {
		return apperr.Validation("measurements[%d]: label is required", i)
	}
	if _, ok := domain.Units[m.Kind]; !ok {
		return apperr.Validation("measurements[%d]: unknown kind %q", i, m.Kind)
	}
	if !domain.UnitAllowed(m.Kind, m.Unit) {
		return apperr.Validation("measurements[%d]: unit %q does not fit kind %s", i, m.Unit, m.Kind)
	}
	if m.Quantity < 0 {
		return apperr.Validation("measurements[%d]: quantity must not be negative", i)
	}
	if m.WastePercent < 0 || m.WastePercent > 100 {
		return apperr.Validation("measurements[%d]: waste_percent must be between 0 and 100", i)
	}
	return nil
}
