package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
	"github.com/corebuild/corebuild-backend/internal/projects/domain"
)

type Repository interface {
	Create(ctx context.Context, p *domain.Project) error
	Get(ctx context.Context, companyID, id string) (*domain.Project, error)
	List(ctx context.Context, companyID string, f domain.ListFilter) ([]domain.Project, int, error)
	Update(ctx context.Context, p *domain.Project, fromStatus string, contractDeltaCents int64) error
	SoftDelete(ctx context.Context, companyID, id string) error
}

// ProjectService handles project-related business logic
type ProjectService struct {
	repo Repository
}

func NewProjectService(repo Repository) *ProjectService {
	return &ProjectService{repo: repo}
}

func (s *ProjectService) Create(ctx context.Context, companyID string, req domain.CreateProjectRequest) (*domain.Project, error) {
	p := &domain.Project{
		CompanyID:           companyID,
		Name:                strings.TrimSpace(req.Name),
		ClientName:          strings.TrimSpace(req.ClientName),
		ClientEmail:         strings.TrimSpace(req.ClientEmail),
		Address:             strings.TrimSpace(req.Address),
		Status:              domain.StatusPlanning,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		ContractAmountCents: req.ContractAmountCents,
		LeadID:              req.LeadID,
		CreatedBy:           req.CreatedBy,
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProjectService) Get(ctx context.Context, companyID, id string) (*domain.Project, error) {
	return s.repo.Get(ctx, companyID, id)
}

func (s *ProjectService) List(ctx context.Context, companyID string, f domain.ListFilter) ([]domain.Project, int, error) {
	if f.Status != "" && !domain.Transitions.Known(f.Status) {
		return nil, 0, apperr.Validation("unknown status %q", f.Status)
	}
	return s.repo.List(ctx, companyID, f)
}

func (s *ProjectService) Update(ctx context.Context, companyID, id string, req domain.UpdateProjectRequest) (*domain.Project, error) {
	p, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.ClientName != nil {
		p.ClientName = strings.TrimSpace(*req.ClientName)
	}
	if req.ClientEmail != nil {
		p.ClientEmail = strings.TrimSpace(*req.ClientEmail)
	}
	if req.Address != nil {
		p.Address = strings.TrimSpace(*req.Address)
	}
	if req.StartDate != nil {
		p.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		p.EndDate = req.EndDate
	}
	var delta int64
	if req.ContractAmountCents != nil {
		delta = *req.ContractAmountCents - p.ContractAmountCents
		p.ContractAmountCents = *req.ContractAmountCents
	}

	if err := Validate(p); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p, p.Status, delta); err != nil {
		return nil, err
	}
	return p, nil
}

// ChangeStatus moves the project along its lifecycle.
func (s *ProjectService) ChangeStatus(ctx context.Context, companyID, id, status string) (*domain.Project, error) {
	p, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !domain.Transitions.Can(p.Status, status) {
		return nil, apperr.Transition("project", p.Status, status)
	}

	from := p.Status
	p.Status = status
	if err := s.repo.Update(ctx, p, from, 0); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProjectService) Delete(ctx context.Context, companyID, id string) error {
	return s.repo.SoftDelete(ctx, companyID, id)
}

// Validate checks the fields shared by every write path, including lead conversion.
func Validate(p *domain.Project) error {
	if p.Name == "" {
		return apperr.Validation("name is required")
	}
	if p.ClientEmail != "" {
		if _, err := mail.ParseAddress(p.ClientEmail); err != nil {
			return apperr.Validation("client_email is invalid")
		}
	}
	if p.ContractAmountCents < 0 {
		return apperr.Validation("contract_amount_cents must not be negative")
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return apperr.Validation("end_date must not precede start_date")
	}
	return nil
}
