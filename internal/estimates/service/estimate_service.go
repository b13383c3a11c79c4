package service

import (
	"context"
	"strings"

	"github.com/corebuild/corebuild-backend/internal/estimates/domain"
	invoicedomain "github.com/corebuild/corebuild-backend/internal/invoices/domain"
	"github.com/corebuild/corebuild-backend/internal/platform"
	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
	projectdomain "github.com/corebuild/corebuild-backend/internal/projects/domain"
)

type Repository interface {
	Create(ctx context.Context, e *domain.Estimate) error
	Get(ctx context.Context, companyID, id string) (*domain.Estimate, error)
	ListByProject(ctx context.Context, companyID, projectID string, f domain.ListFilter) ([]domain.Estimate, error)
	Update(ctx context.Context, e *domain.Estimate) error
	Delete(ctx context.Context, companyID, id string) error
	ConvertToInvoice(ctx context.Context, e *domain.Estimate, inv *invoicedomain.Invoice) error
}

type ProjectLookup interface {
	Get(ctx context.Context, companyID, id string) (*projectdomain.Project, error)
}

type TaxDefaults interface {
	DefaultTaxRate(ctx context.Context, companyID string) (int64, error)
}

// InvoiceBuilder prepares an unsaved invoice; the estimate repository saves it.
type InvoiceBuilder interface {
	Build(ctx context.Context, companyID, projectID string, req invoicedomain.CreateInvoiceRequest) (*invoicedomain.Invoice, error)
}

type EstimateService struct {
	repo     Repository
	projects ProjectLookup
	taxes    TaxDefaults
	invoices InvoiceBuilder
}

func NewEstimateService(repo Repository, projects ProjectLookup, taxes TaxDefaults, invoices InvoiceBuilder) *EstimateService {
	return &EstimateService{repo: repo, projects: projects, taxes: taxes, invoices: invoices}
}

func (s *EstimateService) Create(ctx context.Context, companyID, projectID string, req domain.CreateEstimateRequest) (*domain.Estimate, error) {
	if _, err := s.projects.Get(ctx, companyID, projectID); err != nil {
		return nil, err
	}

	e := &domain.Estimate{
		CompanyID: companyID,
		ProjectID: projectID,
		Title:     strings.TrimSpace(req.Title),
		Status:    domain.StatusDraft,
		LineItems: normalizeItems(req.LineItems),
		Notes:     req.Notes,
	}
	if req.TaxRateBPS != nil {
		e.TaxRateBPS = *req.TaxRateBPS
	} else {
		rate, err := s.taxes.DefaultTaxRate(ctx, companyID)
		if err != nil {
			return nil, err
		}
		e.TaxRateBPS = rate
	}

	if err := validate(e); err != nil {
		return nil, err
	}
	e.Recalculate()
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EstimateService) Get(ctx context.Context, companyID, id string) (*domain.Estimate, error) {
	return s.repo.Get(ctx, companyID, id)
}

func (s *EstimateService) ListByProject(ctx context.Context, companyID, projectID string, f domain.ListFilter) ([]domain.Estimate, error) {
	if f.Status != "" && !domain.Transitions.Known(f.Status) {
		return nil, apperr.Validation("unknown status %q", f.Status)
	}
	if _, err := s.projects.Get(ctx, companyID, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListByProject(ctx, companyID, projectID, f)
}

func (s *EstimateService) Update(ctx context.Context, companyID, id string, req domain.UpdateEstimateRequest) (*domain.Estimate, error) {
	e, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if e.Status != domain.StatusDraft {
		return nil, domain.ErrNotEditable
	}

	if req.Title != nil {
		e.Title = strings.TrimSpace(*req.Title)
	}
	if req.TaxRateBPS != nil {
		e.TaxRateBPS = *req.TaxRateBPS
	}
	if req.LineItems != nil {
		e.LineItems = normalizeItems(req.LineItems)
	}
	if req.Notes != nil {
		e.Notes = *req.Notes
	}

	if err := validate(e); err != nil {
		return nil, err
	}
	e.Recalculate()
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EstimateService) ChangeStatus(ctx context.Context, companyID, id, status string) (*domain.Estimate, error) {
	e, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !domain.Transitions.Can(e.Status, status) {
		return nil, apperr.Transition("estimate", e.Status, status)
	}
	if status == domain.StatusSent && len(e.LineItems) == 0 {
		return nil, apperr.Validation("cannot send an estimate without line items")
	}

	e.Status = status
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Delete removes a draft estimate. Anything the client has seen is kept.
func (s *EstimateService) Delete(ctx context.Context, companyID, id string) error {
	e, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return err
	}
	if e.Status != domain.StatusDraft {
		return domain.ErrNotEditable
	}
	return s.repo.Delete(ctx, companyID, id)
}

// ConvertToInvoice creates a draft invoice from an approved estimate.
func (s *EstimateService) ConvertToInvoice(ctx context.Context, companyID, id string) (*domain.Estimate, *invoicedomain.Invoice, error) {
	e, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, nil, err
	}
	if e.InvoiceID != nil {
		return nil, nil, domain.ErrAlreadyInvoiced
	}
	if e.Status != domain.StatusApproved {
		return nil, nil, domain.ErrNotApproved
	}

	estimateID := e.ID
	taxRate := e.TaxRateBPS
	notes := e.Title
	if e.Notes != "" {
		notes += "\n" + e.Notes
	}
	inv, err := s.invoices.Build(ctx, companyID, e.ProjectID, invoicedomain.CreateInvoiceRequest{
		EstimateID: &estimateID,
		TaxRateBPS: &taxRate,
		LineItems:  e.InvoiceItems(),
		Notes:      notes,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.ConvertToInvoice(ctx, e, inv); err != nil {
		return nil, nil, err
	}
	return e, inv, nil
}

func normalizeItems(items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, len(items))
	for i, item := range items {
		item.Description = strings.TrimSpace(item.Description)
		item.Category = strings.ToLower(strings.TrimSpace(item.Category))
		item.Unit = strings.TrimSpace(item.Unit)
		out[i] = item
	}
	return out
}

func validate(e *domain.Estimate) error {
	if e.Title == "" {
		return apperr.Validation("title is required")
	}
	if e.TaxRateBPS < 0 || e.TaxRateBPS > platform.BasisPointsMax {
		return apperr.Validation("tax_rate_bps must be between 0 and %d", platform.BasisPointsMax)
	}
	for i, item := range e.LineItems {
		if item.Description == "" {
			return apperr.Validation("line_items[%d].description is required", i)
		}
		if item.Quantity <= 0 {
			return apperr.Validation("line_items[%d].quantity must be positive", i)
		}
		if item.UnitPriceCents < 0 {
			return apperr.Validation("line_items[%d].unit_price_cents must not be negative", i)
		}
		if item.MarkupBPS < 0 || item.MarkupBPS > platform.BasisPointsMax {
			return apperr.Validation("line_items[%d].markup_bps must be between 0 and %d", i, platform.BasisPointsMax)
		}
	}
	return nil
}
