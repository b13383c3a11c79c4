package domain

import "github.com/corebuild/corebuild-backend/internal/platform/apperr"

var ErrDocumentNotFound = apperr.NotFound("document")
