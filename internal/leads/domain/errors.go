package domain

import "github.com/corebuild/corebuild-backend/internal/platform/apperr"

var (
	ErrLeadNotFound     = apperr.NotFound("lead")
	ErrAlreadyConverted = apperr.Conflict("lead has already been converted")
	ErrStale            = apperr.Stale("lead")
)
