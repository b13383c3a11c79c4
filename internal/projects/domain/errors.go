package domain

import "github.com/corebuild/corebuild-backend/internal/platform/apperr"

var (
	ErrProjectNotFound = apperr.NotFound("project")
	ErrStale           = apperr.Stale("project")
)
