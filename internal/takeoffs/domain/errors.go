package domain

import "github.com/corebuild/corebuild-backend/internal/platform/apperr"

var ErrTakeoffNotFound = apperr.NotFound("takeoff")
