package domain

import "github.com/corebuild/corebuild-backend/internal/platform/apperr"

var (
	ErrEstimateNotFound = apperr.NotFound("estimate")
	ErrNotEditable      = apperr.Conflict("only draft estimates can be edited")
	ErrNotApproved      = apperr.Conflict("only approved estimates can be invoiced")
	ErrAlreadyInvoiced  = apperr.Conflict("estimate has already been invoiced")
)
