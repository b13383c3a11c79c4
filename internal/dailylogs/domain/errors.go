package domain

import "github.com/corebuild/corebuild-backend/internal/platform/apperr"

var (
	ErrDailyLogNotFound = apperr.NotFound("daily log")
	ErrDuplicateDate    = apperr.Conflict("a daily log already exists for this date")
)
