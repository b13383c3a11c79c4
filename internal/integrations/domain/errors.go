package domain

import "github.com/corebuild/corebuild-backend/internal/platform/apperr"

var (
	ErrIntegrationNotFound = apperr.NotFound("integration")
	ErrUnknownProvider     = apperr.Validation("provider must be google or quickbooks")
	ErrInvalidState        = apperr.Validation("oauth state is invalid or expired")
	ErrAuthorizationDenied = apperr.Validation("authorization was not granted")
	ErrNotConnected        = apperr.Conflict("integration is not connected")
	ErrNotConfigured       = apperr.Conflict("provider credentials are not configured")
)
