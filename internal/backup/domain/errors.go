package domain

import "github.com/corebuild/corebuild-backend/internal/platform/apperr"

var (
	ErrAlreadyRunning = apperr.Conflict("a backup is already running for this company")
	ErrNoDrive        = apperr.Conflict("connect Google Drive before running a backup")
	// ErrNotOperator guards the database dump, which holds every tenant.
	ErrNotOperator = apperr.Forbidden("backups can only be run by the operator company")
)
