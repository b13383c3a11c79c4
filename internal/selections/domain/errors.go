package domain

import "github.com/corebuild/corebuild-backend/internal/platform/apperr"

var (
	ErrSelectionNotFound = apperr.NotFound("selection")
	ErrOptionNotFound    = apperr.NotFound("selection option")
	ErrPriceLocked       = apperr.Conflict("quantity and price cannot change once ordered")
	ErrStale             = apperr.Stale("selection")
)
