package domain

import "github.com/corebuild/corebuild-backend/internal/platform/apperr"

var (
	ErrCompanyNotFound = apperr.NotFound("company")
	ErrAlreadyMember   = apperr.Conflict("user is already a member of this company")
)
