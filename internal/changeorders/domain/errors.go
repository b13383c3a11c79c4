package domain

import "github.com/corebuild/corebuild-backend/internal/platform/apperr"

var (
	ErrChangeOrderNotFound = apperr.NotFound("change order")
	ErrNotEditable         = apperr.Conflict("only draft change orders can be edited")
	ErrStale               = apperr.Stale("change order")
)
