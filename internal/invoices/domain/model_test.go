package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebuild/corebuild-backend/internal/platform"
	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
)

func TestRecalculate(t *testing.T) {
	inv := &Invoice{
		TaxRateBPS: 825,
		LineItems: []LineItem{
			{Description: "Framing labor", Quantity: 40, UnitPriceCents: 6500},
			{Description: "Lumber", Quantity: 2.5, UnitPriceCents: 11999},
		},
	}
	inv.Recalculate()

	assert.Equal(t, int64(260000), inv.LineItems[0].TotalCents)
	assert.Equal(t, int64(29998), inv.LineItems[1].TotalCents)
	assert.Equal(t, int64(289998), inv.SubtotalCents)
	assert.Equal(t, int64(23925), inv.TaxCents)
	assert.Equal(t, int64(313923), inv.TotalCents)
}

func TestApplyPayment(t *testing.T) {
	inv := &Invoice{Status: StatusSent, TotalCents: 10000}

	require.NoError(t, ApplyPayment(inv, 4000))
	assert.Equal(t, StatusPartiallyPaid, inv.Status)
	assert.Equal(t, int64(4000), inv.AmountPaidCents)

	err := ApplyPayment(inv, 6001)
	assert.ErrorIs(t, err, ErrOverpayment)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, ApplyPayment(inv, 6000))
	assert.Equal(t, StatusPaid, inv.Status)

	assert.ErrorIs(t, ApplyPayment(inv, 1), apperr.ErrConflict)
	assert.ErrorIs(t, ApplyPayment(&Invoice{Status: StatusDraft, TotalCents: 100}, 50), ErrNotPayable)
	assert.ErrorIs(t, ApplyPayment(&Invoice{Status: StatusSent, TotalCents: 100}, 0), ErrInvalidPayment)
}

func TestIssuedStatus(t *testing.T) {
	assert.Equal(t, StatusSent, IssuedStatus(&Invoice{TotalCents: 100}))
	assert.Equal(t, StatusPaid, IssuedStatus(&Invoice{}))
}

func TestCanVoid(t *testing.T) {
	assert.True(t, CanVoid(&Invoice{Status: StatusDraft}))
	assert.True(t, CanVoid(&Invoice{Status: StatusSent}))
	assert.False(t, CanVoid(&Invoice{Status: StatusSent, AmountPaidCents: 1}))
	assert.False(t, CanVoid(&Invoice{Status: StatusPartiallyPaid, AmountPaidCents: 1}))
	assert.False(t, CanVoid(&Invoice{Status: StatusPaid}))
	assert.False(t, CanVoid(&Invoice{Status: StatusVoid}))
}

func TestDeriveOverdue(t *testing.T) {
	today := platform.NewDate(2024, time.June, 10)
	due := platform.NewDate(2024, time.June, 9)

	tests := []struct {
		status string
		due    platform.Date
		want   bool
	}{
		{StatusSent, due, true},
		{StatusPartiallyPaid, due, true},
		{StatusSent, today, false},
		{StatusDraft, due, false},
		{StatusPaid, due, false},
		{StatusVoid, due, false},
	}
	for _, tt := range tests {
		inv := &Invoice{Status: tt.status, DueDate: tt.due, TotalCents: 500, AmountPaidCents: 200}
		inv.Derive(today)
		assert.Equal(t, tt.want, inv.Overdue, tt.status)
		assert.Equal(t, int64(300), inv.BalanceCents)
	}
}

func TestNumbering(t *testing.T) {
	assert.Equal(t, "INV-2024-0001", FormatNumber(2024, 1))
	assert.Equal(t, "INV-2024-12345", FormatNumber(2024, 12345))
	assert.Equal(t, "INV-2025-", NumberPrefix(2025))
}
