package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebuild/corebuild-backend/internal/estimates/domain"
	invoicedomain "github.com/corebuild/corebuild-backend/internal/invoices/domain"
	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
	projectdomain "github.com/corebuild/corebuild-backend/internal/projects/domain"
)

type memRepo struct {
	estimates map[string]*domain.Estimate
	invoices  []*invoicedomain.Invoice
}

func newMemRepo() *memRepo {
	return &memRepo{estimates: map[string]*domain.Estimate{}}
}

func (m *memRepo) Create(_ context.Context, e *domain.Estimate) error {
	e.ID = "est-1"
	e.Number = "EST-10000-1000"
	cp := *e
	m.estimates[e.ID] = &cp
	return nil
}

func (m *memRepo) Get(_ context.Context, companyID, id string) (*domain.Estimate, error) {
	e, ok := m.estimates[id]
	if !ok || e.CompanyID != companyID {
		return nil, domain.ErrEstimateNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memRepo) ListByProject(context.Context, string, string, domain.ListFilter) ([]domain.Estimate, error) {
	return nil, nil
}

func (m *memRepo) Update(_ context.Context, e *domain.Estimate) error {
	cp := *e
	m.estimates[e.ID] = &cp
	return nil
}

func (m *memRepo) Delete(_ context.Context, _, id string) error {
	delete(m.estimates, id)
	return nil
}

func (m *memRepo) ConvertToInvoice(_ context.Context, e *domain.Estimate, inv *invoicedomain.Invoice) error {
	inv.ID = "inv-1"
	e.InvoiceID = &inv.ID
	m.invoices = append(m.invoices, inv)
	return m.Update(context.Background(), e)
}

type projects struct{}

func (projects) Get(_ context.Context, companyID, id string) (*projectdomain.Project, error) {
	if companyID == "co-1" && id == "p-1" {
		return &projectdomain.Project{ID: id, CompanyID: companyID}, nil
	}
	return nil, projectdomain.ErrProjectNotFound
}

type fixedTax int64

func (f fixedTax) DefaultTaxRate(context.Context, string) (int64, error) { return int64(f), nil }

type builder struct{}

func (builder) Build(_ context.Context, companyID, projectID string, req invoicedomain.CreateInvoiceRequest) (*invoicedomain.Invoice, error) {
	inv := &invoicedomain.Invoice{
		CompanyID:  companyID,
		ProjectID:  projectID,
		EstimateID: req.EstimateID,
		Status:     invoicedomain.StatusDraft,
		TaxRateBPS: *req.TaxRateBPS,
		LineItems:  req.LineItems,
		Notes:      req.Notes,
	}
	inv.Recalculate()
	return inv, nil
}

func newService() (*EstimateService, *memRepo) {
	repo := newMemRepo()
	return NewEstimateService(repo, projects{}, fixedTax(600), builder{}), repo
}

var items = []domain.LineItem{
	{Description: "Tile install", Category: " Flooring ", Quantity: 200, Unit: "sqft", UnitPriceCents: 900, MarkupBPS: 1000},
}

func TestEstimateService_Create(t *testing.T) {
	svc, _ := newService()

	e, err := svc.Create(context.Background(), "co-1", "p-1", domain.CreateEstimateRequest{Title: "Bathroom", LineItems: items})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, e.Status)
	assert.Equal(t, int64(600), e.TaxRateBPS)
	assert.Equal(t, "flooring", e.LineItems[0].Category)
	assert.Equal(t, int64(180000), e.SubtotalCents)
	assert.Equal(t, int64(18000), e.MarkupCents)
	assert.Equal(t, int64(11880), e.TaxCents)
	assert.Equal(t, int64(209880), e.TotalCents)

	_, err = svc.Create(context.Background(), "co-1", "p-2", domain.CreateEstimateRequest{Title: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	bad := []domain.LineItem{{Description: "x", Quantity: 1, MarkupBPS: 10001}}
	_, err = svc.Create(context.Background(), "co-1", "p-1", domain.CreateEstimateRequest{Title: "x", LineItems: bad})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestEstimateService_EditOnlyInDraft(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	e, err := svc.Create(ctx, "co-1", "p-1", domain.CreateEstimateRequest{Title: "Bathroom", LineItems: items})
	require.NoError(t, err)

	zero := int64(0)
	e, err = svc.Update(ctx, "co-1", e.ID, domain.UpdateEstimateRequest{TaxRateBPS: &zero})
	require.NoError(t, err)
	assert.Equal(t, int64(198000), e.TotalCents, "totals follow the new tax rate")

	_, err = svc.ChangeStatus(ctx, "co-1", e.ID, domain.StatusSent)
	require.NoError(t, err)

	_, err = svc.Update(ctx, "co-1", e.ID, domain.UpdateEstimateRequest{TaxRateBPS: &zero})
	assert.ErrorIs(t, err, domain.ErrNotEditable)
	assert.ErrorIs(t, svc.Delete(ctx, "co-1", e.ID), domain.ErrNotEditable)

	_, err = svc.ChangeStatus(ctx, "co-1", e.ID, domain.StatusDraft)
	require.NoError(t, err)
	_, err = svc.Update(ctx, "co-1", e.ID, domain.UpdateEstimateRequest{TaxRateBPS: &zero})
	assert.NoError(t, err, "revising puts the estimate back in draft")
}

func TestEstimateService_SendRequiresItems(t *testing.T) {
	svc, _ := newService()
	e, err := svc.Create(context.Background(), "co-1", "p-1", domain.CreateEstimateRequest{Title: "Empty"})
	require.NoError(t, err)

	_, err = svc.ChangeStatus(context.Background(), "co-1", e.ID, domain.StatusSent)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.ChangeStatus(context.Background(), "co-1", e.ID, domain.StatusApproved)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestEstimateService_ConvertToInvoice(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	e, err := svc.Create(ctx, "co-1", "p-1", domain.CreateEstimateRequest{Title: "Bathroom", LineItems: items})
	require.NoError(t, err)

	_, _, err = svc.ConvertToInvoice(ctx, "co-1", e.ID)
	assert.ErrorIs(t, err, domain.ErrNotApproved)

	_, err = svc.ChangeStatus(ctx, "co-1", e.ID, domain.StatusSent)
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, "co-1", e.ID, domain.StatusApproved)
	require.NoError(t, err)

	got, inv, err := svc.ConvertToInvoice(ctx, "co-1", e.ID)
	require.NoError(t, err)
	assert.Equal(t, "inv-1", *got.InvoiceID)
	assert.Equal(t, e.ID, *inv.EstimateID)
	assert.Equal(t, int64(990), inv.LineItems[0].UnitPriceCents)
	assert.Equal(t, e.SubtotalCents+e.MarkupCents, inv.SubtotalCents)
	assert.Equal(t, e.TotalCents, inv.TotalCents)

	_, _, err = svc.ConvertToInvoice(ctx, "co-1", e.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyInvoiced)
	assert.Len(t, repo.invoices, 1)
}
