package domain

import (
	"fmt"
	"strconv"
	"time"

	invoicedomain "github.com/corebuild/corebuild-backend/internal/invoices/domain"
	"github.com/corebuild/corebuild-backend/internal/platform"
)

type LineItem struct {
	Description    string  `json:"description"`
	Category       string  `json:"category"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
	UnitPriceCents int64   `json:"unit_price_cents"`
	MarkupBPS      int64   `json:"markup_bps"`
	TotalCents     int64   `json:"total_cents"`
	MarkupCents    int64   `json:"markup_cents"`
}

// Estimate is a priced proposal for a project. Totals are always derived from
// the line items on the server.
type Estimate struct {
	ID            string     `json:"id"`
	CompanyID     string     `json:"company_id"`
	ProjectID     string     `json:"project_id"`
	Number        string     `json:"number"`
	Title         string     `json:"title"`
	Status        string     `json:"status"`
	TaxRateBPS    int64      `json:"tax_rate_bps"`
	LineItems     []LineItem `json:"line_items"`
	SubtotalCents int64      `json:"subtotal_cents"`
	MarkupCents   int64      `json:"markup_cents"`
	TaxCents      int64      `json:"tax_cents"`
	TotalCents    int64      `json:"total_cents"`
	Notes         string     `json:"notes"`
	InvoiceID     *string    `json:"invoice_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

const (
	StatusDraft    = "draft"
	StatusSent     = "sent"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Transitions: a sent estimate can be pulled back to draft for revision.
var Transitions = platform.Transitions{
	StatusDraft: {StatusSent},
	StatusSent:  {StatusApproved, StatusRejected, StatusDraft},
}

const NumberPrefix = "EST"

// Recalculate derives every total. Tax applies to the marked-up amount.
func (e *Estimate) Recalculate() {
	var subtotal, markup int64
	for i := range e.LineItems {
		item := &e.LineItems[i]
		item.TotalCents = platform.LineTotal(item.Quantity, item.UnitPriceCents)
		item.MarkupCents = platform.ApplyBasisPoints(item.TotalCents, item.MarkupBPS)
		subtotal += item.TotalCents
		markup += item.MarkupCents
	}
	e.SubtotalCents = subtotal
	e.MarkupCents = markup
	e.TaxCents = platform.ApplyBasisPoints(subtotal+markup, e.TaxRateBPS)
	e.TotalCents = subtotal + markup + e.TaxCents
}

// TaxableBaseCents is the amount tax is charged on.
func (e *Estimate) TaxableBaseCents() int64 {
	return e.SubtotalCents + e.MarkupCents
}

// InvoiceItems carries the line items over to an invoice, billing each line
// at its total plus markup. Markup is folded into the unit price when that
// reproduces the amount exactly; otherwise the line is billed as one lot so
// the invoice total always equals the estimate total.
func (e *Estimate) InvoiceItems() []invoicedomain.LineItem {
	out := make([]invoicedomain.LineItem, 0, len(e.LineItems))
	for _, item := range e.LineItems {
		total := platform.LineTotal(item.Quantity, item.UnitPriceCents)
		billed := total + platform.ApplyBasisPoints(total, item.MarkupBPS)

		unitPrice := item.UnitPriceCents + platform.ApplyBasisPoints(item.UnitPriceCents, item.MarkupBPS)
		if platform.LineTotal(item.Quantity, unitPrice) == billed {
			out = append(out, invoicedomain.LineItem{
				Description:    item.Description,
				Quantity:       item.Quantity,
				Unit:           item.Unit,
				UnitPriceCents: unitPrice,
			})
			continue
		}

		out = append(out, invoicedomain.LineItem{
			Description:    lotDescription(item),
			Quantity:       1,
			Unit:           LotUnit,
			UnitPriceCents: billed,
		})
	}
	return out
}

// LotUnit marks an invoice line billed as a single amount.
const LotUnit = "lot"

func lotDescription(item LineItem) string {
	qty := strconv.FormatFloat(item.Quantity, 'f', -1, 64)
	if item.Unit == "" {
		return fmt.Sprintf("%s (%s)", item.Description, qty)
	}
	return fmt.Sprintf("%s (%s %s)", item.Description, qty, item.Unit)
}

type CreateEstimateRequest struct {
	Title      string
	TaxRateBPS *int64
	LineItems  []LineItem
	Notes      string
}

type UpdateEstimateRequest struct {
	Title      *string
	TaxRateBPS *int64
	LineItems  []LineItem
	Notes      *string
}

type ListFilter struct {
	Status string
	Limit  uint64
	Offset uint64
}
