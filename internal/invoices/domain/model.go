package domain

import (
	"fmt"
	"time"

	"github.com/corebuild/corebuild-backend/internal/platform"
)

type LineItem struct {
	Description    string  `json:"description"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
	UnitPriceCents int64   `json:"unit_price_cents"`
	TotalCents     int64   `json:"total_cents"`
}

// Invoice is a bill sent to the client of a project. Balance and Overdue are
// derived on read and never stored.
type Invoice struct {
	ID              string        `json:"id"`
	CompanyID       string        `json:"company_id"`
	ProjectID       string        `json:"project_id"`
	EstimateID      *string       `json:"estimate_id,omitempty"`
	Number          string        `json:"number"`
	Status          string        `json:"status"`
	IssueDate       platform.Date `json:"issue_date"`
	DueDate         platform.Date `json:"due_date"`
	TaxRateBPS      int64         `json:"tax_rate_bps"`
	LineItems       []LineItem    `json:"line_items"`
	SubtotalCents   int64         `json:"subtotal_cents"`
	TaxCents        int64         `json:"tax_cents"`
	TotalCents      int64         `json:"total_cents"`
	AmountPaidCents int64         `json:"amount_paid_cents"`
	BalanceCents    int64         `json:"balance_cents"`
	Overdue         bool          `json:"overdue"`
	Notes           string        `json:"notes"`
	ExternalID      *string       `json:"external_id,omitempty"`
	SyncedAt        *time.Time    `json:"synced_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type Payment struct {
	ID          string        `json:"id"`
	CompanyID   string        `json:"company_id"`
	InvoiceID   string        `json:"invoice_id"`
	AmountCents int64         `json:"amount_cents"`
	Method      string        `json:"method"`
	Reference   string        `json:"reference"`
	PaidOn      platform.Date `json:"paid_on"`
	CreatedAt   time.Time     `json:"created_at"`
}

const (
	StatusDraft         = "draft"
	StatusSent          = "sent"
	StatusPartiallyPaid = "partially_paid"
	StatusPaid          = "paid"
	StatusVoid          = "void"
)

// Transitions covers the explicit moves. Payments drive sent and
// partially_paid forward on their own, see ApplyPayment.
var Transitions = platform.Transitions{
	StatusDraft:         {StatusSent, StatusVoid},
	StatusSent:          {StatusPartiallyPaid, StatusPaid, StatusVoid},
	StatusPartiallyPaid: {StatusPaid},
}

// DefaultPaymentTerms is used when an invoice is created without a due date.
const DefaultPaymentTerms = 30 * 24 * time.Hour

// Recalculate derives line totals, subtotal, tax and total from the line items.
func (inv *Invoice) Recalculate() {
	var subtotal int64
	for i := range inv.LineItems {
		item := &inv.LineItems[i]
		item.TotalCents = platform.LineTotal(item.Quantity, item.UnitPriceCents)
		subtotal += item.TotalCents
	}
	inv.SubtotalCents = subtotal
	inv.TaxCents = platform.ApplyBasisPoints(subtotal, inv.TaxRateBPS)
	inv.TotalCents = subtotal + inv.TaxCents
}

// Derive fills the read-only fields relative to today.
func (inv *Invoice) Derive(today platform.Date) {
	inv.BalanceCents = inv.TotalCents - inv.AmountPaidCents
	inv.Overdue = IsOpen(inv.Status) && inv.DueDate.Before(today)
}

// IsOpen reports whether the invoice is awaiting payment.
func IsOpen(status string) bool {
	return status == StatusSent || status == StatusPartiallyPaid
}

// IssuedStatus is the status a draft takes when sent. An invoice with
// nothing left to collect is settled on the spot.
func IssuedStatus(inv *Invoice) string {
	if inv.TotalCents-inv.AmountPaidCents <= 0 {
		return StatusPaid
	}
	return StatusSent
}

// ApplyPayment books amountCents against inv and moves its status.
func ApplyPayment(inv *Invoice, amountCents int64) error {
	if amountCents <= 0 {
		return ErrInvalidPayment
	}
	if !IsOpen(inv.Status) {
		return fmt.Errorf("%w: invoice is %s", ErrNotPayable, inv.Status)
	}
	balance := inv.TotalCents - inv.AmountPaidCents
	if amountCents > balance {
		return fmt.Errorf("%w: balance is %d cents", ErrOverpayment, balance)
	}

	inv.AmountPaidCents += amountCents
	if inv.AmountPaidCents == inv.TotalCents {
		inv.Status = StatusPaid
	} else {
		inv.Status = StatusPartiallyPaid
	}
	return nil
}

// CanVoid reports whether inv may be voided: only before any money arrived.
func CanVoid(inv *Invoice) bool {
	return Transitions.Can(inv.Status, StatusVoid) && inv.AmountPaidCents == 0
}

// NumberPrefix is the per-year invoice number prefix, e.g. "INV-2024-".
func NumberPrefix(year int) string {
	return fmt.Sprintf("INV-%d-", year)
}

func FormatNumber(year, seq int) string {
	return fmt.Sprintf("%s%04d", NumberPrefix(year), seq)
}

type CreateInvoiceRequest struct {
	EstimateID *string
	IssueDate  *platform.Date
	DueDate    *platform.Date
	TaxRateBPS *int64
	LineItems  []LineItem
	Notes      string
}

type UpdateInvoiceRequest struct {
	IssueDate  *platform.Date
	DueDate    *platform.Date
	TaxRateBPS *int64
	LineItems  []LineItem
	Notes      *string
}

type PaymentRequest struct {
	AmountCents int64
	Method      string
	Reference   string
	PaidOn      *platform.Date
}

type ListFilter struct {
	Status      string
	ProjectID   string
	OverdueOnly bool
	Today       platform.Date
	Limit       uint64
	Offset      uint64
}
