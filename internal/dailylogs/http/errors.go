package http

import "github.com/corebuild/corebuild-backend/internal/platform/apperr"

var errLogDateFixed = apperr.Validation("log_date cannot be changed; delete the log and create a new one")
