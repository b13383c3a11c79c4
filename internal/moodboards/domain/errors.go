package domain

import "github.com/corebuild/corebuild-backend/internal/platform/apperr"

var (
	ErrBoardNotFound = apperr.NotFound("mood board")
	ErrItemNotFound  = apperr.NotFound("mood board item")
	ErrNotEditable   = apperr.Conflict("mood board items can only change while draft or changes requested")
	ErrInvalidOrder  = apperr.Validation("order must list every item exactly once")

	ErrCommentNotFound  = apperr.NotFound("mood board comment")
	ErrNotCommentAuthor = apperr.Forbidden("only the author can delete a comment")
	ErrStale            = apperr.Stale("mood board")
)
