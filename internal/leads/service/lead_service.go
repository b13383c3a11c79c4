package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/corebuild/corebuild-backend/internal/leads/domain"
	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
	projectdomain "github.com/corebuild/corebuild-backend/internal/projects/domain"
	projectservice "github.com/corebuild/corebuild-backend/internal/projects/service"
)

type Repository interface {
	Create(ctx context.Context, l *domain.Lead) error
	Get(ctx context.Context, companyID, id string) (*domain.Lead, error)
	List(ctx context.Context, companyID string, f domain.ListFilter) ([]domain.Lead, int, error)
	Update(ctx context.Context, l *domain.Lead, fromStatus string) error
	SoftDelete(ctx context.Context, companyID, id string) error
	Convert(ctx context.Context, l *domain.Lead, p *projectdomain.Project) error
}

type LeadService struct {
	repo Repository
}

func NewLeadService(repo Repository) *LeadService {
	return &LeadService{repo: repo}
}

func (s *LeadService) Create(ctx context.Context, companyID string, req domain.CreateLeadRequest) (*domain.Lead, error) {
	l := &domain.Lead{
		CompanyID:           companyID,
		Name:                strings.TrimSpace(req.Name),
		Email:               strings.TrimSpace(req.Email),
		Phone:               strings.TrimSpace(req.Phone),
		Source:              strings.ToLower(strings.TrimSpace(req.Source)),
		EstimatedValueCents: req.EstimatedValueCents,
		Status:              domain.StatusNew,
		Notes:               req.Notes,
	}
	if err := validate(l); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *LeadService) Get(ctx context.Context, companyID, id string) (*domain.Lead, error) {
	return s.repo.Get(ctx, companyID, id)
}

func (s *LeadService) List(ctx context.Context, companyID string, f domain.ListFilter) ([]domain.Lead, int, error) {
	if f.Status != "" && !domain.Transitions.Known(f.Status) {
		return nil, 0, apperr.Validation("unknown status %q", f.Status)
	}
	f.Source = strings.ToLower(strings.TrimSpace(f.Source))
	return s.repo.List(ctx, companyID, f)
}

func (s *LeadService) Update(ctx context.Context, companyID, id string, req domain.UpdateLeadRequest) (*domain.Lead, error) {
	l, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		l.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		l.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		l.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Source != nil {
		l.Source = strings.ToLower(strings.TrimSpace(*req.Source))
	}
	if req.EstimatedValueCents != nil {
		l.EstimatedValueCents = *req.EstimatedValueCents
	}
	if req.Notes != nil {
		l.Notes = *req.Notes
	}

	if err := validate(l); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, l, l.Status); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *LeadService) ChangeStatus(ctx context.Context, companyID, id, status string) (*domain.Lead, error) {
	l, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !domain.Transitions.Can(l.Status, status) {
		return nil, apperr.Transition("lead", l.Status, status)
	}

	from := l.Status
	l.Status = status
	if err := s.repo.Update(ctx, l, from); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *LeadService) Delete(ctx context.Context, companyID, id string) error {
	return s.repo.SoftDelete(ctx, companyID, id)
}

// Convert turns a lead at proposal or won into a planning project. The lead
// ends up won and linked to the new project.
func (s *LeadService) Convert(ctx context.Context, companyID, id string, req domain.ConvertRequest) (*domain.Lead, *projectdomain.Project, error) {
	l, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, nil, err
	}
	if l.Converted() {
		return nil, nil, domain.ErrAlreadyConverted
	}
	if !domain.Convertible(l.Status) {
		return nil, nil, apperr.Transition("lead", l.Status, domain.StatusWon)
	}

	name := strings.TrimSpace(req.ProjectName)
	if name == "" {
		name = l.Name
	}
	leadID := l.ID
	p := &projectdomain.Project{
		CompanyID:           companyID,
		Name:                name,
		ClientName:          l.Name,
		ClientEmail:         l.Email,
		Address:             strings.TrimSpace(req.Address),
		Status:              projectdomain.StatusPlanning,
		ContractAmountCents: l.EstimatedValueCents,
		LeadID:              &leadID,
		CreatedBy:           req.CreatedBy,
	}
	if err := projectservice.Validate(p); err != nil {
		return nil, nil, err
	}

	if err := s.repo.Convert(ctx, l, p); err != nil {
		return nil, nil, err
	}
	return l, p, nil
}

func validate(l *domain.Lead) error {
	if l.Name == "" {
		return apperr.Validation("name is required")
	}
	if l.Email != "" {
		if _, err := mail.ParseAddress(l.Email); err != nil {
			return apperr.Validation("email is invalid")
		}
	}
	if l.EstimatedValueCents < 0 {
		return apperr.Validation("estimated_value_cents must not be negative")
	}
	return nil
}
