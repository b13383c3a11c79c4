package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/corebuild/corebuild-backend/internal/invoices/domain"
	"github.com/corebuild/corebuild-backend/internal/logging"
	"github.com/corebuild/corebuild-backend/internal/platform"
	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
	projectdomain "github.com/corebuild/corebuild-backend/internal/projects/domain"
)

type Repository interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	Get(ctx context.Context, companyID, id string) (*domain.Invoice, error)
	List(ctx context.Context, companyID string, f domain.ListFilter) ([]domain.Invoice, int, error)
	ListUnsynced(ctx context.Context, companyID string) ([]domain.Invoice, error)
	Update(ctx context.Context, inv *domain.Invoice) error
	RecordPayment(ctx context.Context, companyID, invoiceID string, p *domain.Payment) (*domain.Invoice, error)
	ListPayments(ctx context.Context, companyID, invoiceID string) ([]domain.Payment, error)
	MarkSynced(ctx context.Context, companyID, id, externalID string, at time.Time) error
}

type ProjectLookup interface {
	Get(ctx context.Context, companyID, id string) (*projectdomain.Project, error)
}

// TaxDefaults supplies the company-wide tax rate for new invoices.
type TaxDefaults interface {
	DefaultTaxRate(ctx context.Context, companyID string) (int64, error)
}

// Syncer pushes an invoice to the accounting system and returns its id there.
type Syncer interface {
	PushInvoice(ctx context.Context, companyID string, inv *domain.Invoice, customerName string) (string, error)
}

var ErrSyncUnavailable = apperr.Conflict("accounting integration is not connected")

type InvoiceService struct {
	repo     Repository
	projects ProjectLookup
	taxes    TaxDefaults
	syncer   Syncer
	now      func() time.Time
}

func NewInvoiceService(repo Repository, projects ProjectLookup, taxes TaxDefaults) *InvoiceService {
	return &InvoiceService{repo: repo, projects: projects, taxes: taxes, now: time.Now}
}

// SetSyncer enables pushing invoices to the accounting system.
func (s *InvoiceService) SetSyncer(syncer Syncer) {
	s.syncer = syncer
}

func (s *InvoiceService) today() platform.Date {
	return platform.DateOf(s.now())
}

// Build validates req and returns an unsaved draft invoice for the project.
// Estimate conversion uses it to create the invoice inside its own transaction.
func (s *InvoiceService) Build(ctx context.Context, companyID, projectID string, req domain.CreateInvoiceRequest) (*domain.Invoice, error) {
	if _, err := s.projects.Get(ctx, companyID, projectID); err != nil {
		return nil, err
	}

	inv := &domain.Invoice{
		CompanyID:  companyID,
		ProjectID:  projectID,
		EstimateID: req.EstimateID,
		Status:     domain.StatusDraft,
		IssueDate:  s.today(),
		LineItems:  normalizeItems(req.LineItems),
		Notes:      req.Notes,
	}
	if req.IssueDate != nil {
		inv.IssueDate = *req.IssueDate
	}
	if req.DueDate != nil {
		inv.DueDate = *req.DueDate
	} else {
		inv.DueDate = platform.DateOf(inv.IssueDate.Add(domain.DefaultPaymentTerms))
	}
	if req.TaxRateBPS != nil {
		inv.TaxRateBPS = *req.TaxRateBPS
	} else {
		rate, err := s.taxes.DefaultTaxRate(ctx, companyID)
		if err != nil {
			return nil, err
		}
		inv.TaxRateBPS = rate
	}

	if err := validate(inv); err != nil {
		return nil, err
	}
	inv.Recalculate()
	return inv, nil
}

func (s *InvoiceService) Create(ctx context.Context, companyID, projectID string, req domain.CreateInvoiceRequest) (*domain.Invoice, error) {
	inv, err := s.Build(ctx, companyID, projectID, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	inv.Derive(s.today())
	return inv, nil
}

func (s *InvoiceService) Get(ctx context.Context, companyID, id string) (*domain.Invoice, []domain.Payment, error) {
	inv, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, nil, err
	}
	payments, err := s.repo.ListPayments(ctx, companyID, id)
	if err != nil {
		return nil, nil, err
	}
	inv.Derive(s.today())
	return inv, payments, nil
}

func (s *InvoiceService) List(ctx context.Context, companyID string, f domain.ListFilter) ([]domain.Invoice, int, error) {
	if f.Status != "" && !domain.Transitions.Known(f.Status) {
		return nil, 0, apperr.Validation("unknown status %q", f.Status)
	}
	if f.ProjectID != "" {
		if _, err := s.projects.Get(ctx, companyID, f.ProjectID); err != nil {
			return nil, 0, err
		}
	}
	f.Today = s.today()

	items, total, err := s.repo.List(ctx, companyID, f)
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		items[i].Derive(f.Today)
	}
	return items, total, nil
}

func (s *InvoiceService) Update(ctx context.Context, companyID, id string, req domain.UpdateInvoiceRequest) (*domain.Invoice, error) {
	inv, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != domain.StatusDraft {
		return nil, domain.ErrNotEditable
	}

	if req.IssueDate != nil {
		inv.IssueDate = *req.IssueDate
	}
	if req.DueDate != nil {
		inv.DueDate = *req.DueDate
	}
	if req.TaxRateBPS != nil {
		inv.TaxRateBPS = *req.TaxRateBPS
	}
	if req.LineItems != nil {
		inv.LineItems = normalizeItems(req.LineItems)
	}
	if req.Notes != nil {
		inv.Notes = *req.Notes
	}

	if err := validate(inv); err != nil {
		return nil, err
	}
	inv.Recalculate()
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	inv.Derive(s.today())
	return inv, nil
}

// Send issues a draft invoice to the client.
func (s *InvoiceService) Send(ctx context.Context, companyID, id string) (*domain.Invoice, error) {
	inv, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != domain.StatusDraft {
		return nil, apperr.Transition("invoice", inv.Status, domain.StatusSent)
	}
	if len(inv.LineItems) == 0 {
		return nil, apperr.Validation("cannot send an invoice without line items")
	}

	inv.Status = domain.IssuedStatus(inv)
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	inv.Derive(s.today())
	return inv, nil
}

func (s *InvoiceService) Void(ctx context.Context, companyID, id string) (*domain.Invoice, error) {
	inv, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanVoid(inv) {
		return nil, apperr.Transition("invoice", inv.Status, domain.StatusVoid)
	}

	inv.Status = domain.StatusVoid
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	inv.Derive(s.today())
	return inv, nil
}

func (s *InvoiceService) RecordPayment(ctx context.Context, companyID, id string, req domain.PaymentRequest) (*domain.Invoice, *domain.Payment, error) {
	p := &domain.Payment{
		AmountCents: req.AmountCents,
		Method:      strings.TrimSpace(req.Method),
		Reference:   strings.TrimSpace(req.Reference),
		PaidOn:      s.today(),
	}
	if req.PaidOn != nil {
		p.PaidOn = *req.PaidOn
	}
	if p.AmountCents <= 0 {
		return nil, nil, domain.ErrInvalidPayment
	}

	inv, err := s.repo.RecordPayment(ctx, companyID, id, p)
	if err != nil {
		return nil, nil, err
	}
	inv.Derive(s.today())
	return inv, p, nil
}

// Sync pushes one invoice to the accounting system. Already synced invoices
// are returned unchanged.
func (s *InvoiceService) Sync(ctx context.Context, companyID, id string) (*domain.Invoice, error) {
	inv, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if inv.ExternalID == nil {
		if err := s.push(ctx, inv); err != nil {
			return nil, err
		}
	}
	inv.Derive(s.today())
	return inv, nil
}

// SyncPending pushes every issued invoice of the company that has no external
// id yet. Failures are logged and counted; the pass carries on.
func (s *InvoiceService) SyncPending(ctx context.Context, companyID string) (synced int, err error) {
	if s.syncer == nil {
		return 0, ErrSyncUnavailable
	}
	pending, err := s.repo.ListUnsynced(ctx, companyID)
	if err != nil {
		return 0, err
	}

	log := logging.FromContext(ctx)
	var failed int
	for i := range pending {
		if err := s.push(ctx, &pending[i]); err != nil {
			failed++
			log.Warn("invoice sync failed",
				zap.String("company_id", companyID),
				zap.String("invoice", pending[i].Number),
				zap.Error(err),
			)
			continue
		}
		synced++
	}
	if failed > 0 {
		return synced, fmt.Errorf("%d of %d invoices failed to sync", failed, len(pending))
	}
	return synced, nil
}

func (s *InvoiceService) push(ctx context.Context, inv *domain.Invoice) error {
	if s.syncer == nil {
		return ErrSyncUnavailable
	}
	if inv.Status == domain.StatusDraft || inv.Status == domain.StatusVoid {
		return apperr.Validation("only issued invoices can be synced")
	}

	p, err := s.projects.Get(ctx, inv.CompanyID, inv.ProjectID)
	if err != nil {
		return err
	}
	customer := p.ClientName
	if customer == "" {
		customer = p.Name
	}

	externalID, err := s.syncer.PushInvoice(ctx, inv.CompanyID, inv, customer)
	if err != nil {
		return fmt.Errorf("push invoice %s: %w", inv.Number, err)
	}
	at := s.now().UTC()
	if err := s.repo.MarkSynced(ctx, inv.CompanyID, inv.ID, externalID, at); err != nil {
		return err
	}
	inv.ExternalID = &externalID
	inv.SyncedAt = &at
	return nil
}

func normalizeItems(items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, len(items))
	for i, item := range items {
		item.Description = strings.TrimSpace(item.Description)
		item.Unit = strings.TrimSpace(item.Unit)
		out[i] = item
	}
	return out
}

func validate(inv *domain.Invoice) error {
	if inv.DueDate.Before(inv.IssueDate) {
		return apperr.Validation("due_date must not precede issue_date")
	}
	if inv.TaxRateBPS < 0 || inv.TaxRateBPS > platform.BasisPointsMax {
		return apperr.Validation("tax_rate_bps must be between 0 and %d", platform.BasisPointsMax)
	}
	for i, item := range inv.LineItems {
		if item.Description == "" {
			return apperr.Validation("line_items[%d].description is required", i)
		}
		if item.Quantity <= 0 {
			return apperr.Validation("line_items[%d].quantity must be positive", i)
		}
		if item.UnitPriceCents < 0 {
			return apperr.Validation("line_items[%d].unit_price_cents must not be negative", i)
		}
	}
	return nil
}
