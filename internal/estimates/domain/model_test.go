package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invoicedomain "github.com/corebuild/corebuild-backend/internal/invoices/domain"
)

func TestEstimateRecalculate(t *testing.T) {
	e := &Estimate{
		TaxRateBPS: 700,
		LineItems: []LineItem{
			{Description: "Demo", Quantity: 16, UnitPriceCents: 5500, MarkupBPS: 1500},
			{Description: "Drywall", Quantity: 120.5, UnitPriceCents: 185, MarkupBPS: 2000},
			{Description: "Permit", Quantity: 1, UnitPriceCents: 35000},
		},
	}
	e.Recalculate()

	assert.Equal(t, int64(88000), e.LineItems[0].TotalCents)
	assert.Equal(t, int64(13200), e.LineItems[0].MarkupCents)
	assert.Equal(t, int64(22293), e.LineItems[1].TotalCents)
	assert.Equal(t, int64(4459), e.LineItems[1].MarkupCents)
	assert.Equal(t, int64(0), e.LineItems[2].MarkupCents)

	assert.Equal(t, int64(145293), e.SubtotalCents)
	assert.Equal(t, int64(17659), e.MarkupCents)
	assert.Equal(t, int64(162952), e.TaxableBaseCents())
	assert.Equal(t, int64(11407), e.TaxCents)
	assert.Equal(t, int64(174359), e.TotalCents)
}

func TestEstimateRecalculateEmpty(t *testing.T) {
	e := &Estimate{TaxRateBPS: 800}
	e.Recalculate()
	assert.Zero(t, e.TotalCents)
}

func TestInvoiceItemsFoldMarkup(t *testing.T) {
	e := &Estimate{LineItems: []LineItem{
		{Description: "Cabinets", Quantity: 2, Unit: "ea", UnitPriceCents: 120000, MarkupBPS: 2500},
		{Description: "Labor", Quantity: 8, Unit: "hr", UnitPriceCents: 7500},
	}}

	items := e.InvoiceItems()
	require.Len(t, items, 2)
	assert.Equal(t, int64(150000), items[0].UnitPriceCents)
	assert.Equal(t, "ea", items[0].Unit)
	assert.Equal(t, int64(7500), items[1].UnitPriceCents)
	assert.Equal(t, float64(8), items[1].Quantity)
}

func TestInvoiceItemsMatchEstimateTotal(t *testing.T) {
	e := &Estimate{
		TaxRateBPS: 700,
		LineItems: []LineItem{
			{Description: "Drywall", Quantity: 120.5, Unit: "sf", UnitPriceCents: 185, MarkupBPS: 2000},
			{Description: "Trim", Quantity: 3, UnitPriceCents: 333, MarkupBPS: 1000},
		},
	}
	e.Recalculate()
	require.Equal(t, int64(29801), e.TotalCents)

	inv := &invoicedomain.Invoice{TaxRateBPS: e.TaxRateBPS, LineItems: e.InvoiceItems()}
	inv.Recalculate()
	assert.Equal(t, e.TotalCents, inv.TotalCents)
	assert.Equal(t, e.TaxableBaseCents(), inv.SubtotalCents)

	require.Len(t, inv.LineItems, 2)
	assert.Equal(t, "Drywall (120.5 sf)", inv.LineItems[0].Description)
	assert.Equal(t, LotUnit, inv.LineItems[0].Unit)
	assert.Equal(t, float64(1), inv.LineItems[0].Quantity)
	assert.Equal(t, int64(26752), inv.LineItems[0].UnitPriceCents)
	assert.Equal(t, "Trim (3)", inv.LineItems[1].Description)
	assert.Equal(t, int64(1099), inv.LineItems[1].TotalCents)
}

func TestEstimateTransitions(t *testing.T) {
	assert.True(t, Transitions.Can(StatusSent, StatusDraft))
	assert.False(t, Transitions.Can(StatusDraft, StatusApproved))
	assert.False(t, Transitions.Can(StatusApproved, StatusDraft))
	assert.False(t, Transitions.Can(StatusRejected, StatusSent))
}
