package domain

import "github.com/corebuild/corebuild-backend/internal/platform/apperr"

var (
	ErrInvoiceNotFound = apperr.NotFound("invoice")
	ErrInvalidPayment  = apperr.Validation("payment amount must be positive")
	ErrOverpayment     = apperr.Validation("payment exceeds balance")
	ErrNotPayable      = apperr.Conflict("invoice does not accept payments")
	ErrNotEditable     = apperr.Conflict("only draft invoices can be edited")
)
