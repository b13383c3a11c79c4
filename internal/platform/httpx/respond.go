package httpx

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corebuild/corebuild-backend/internal/logging"
	"github.com/corebuild/corebuild-backend/internal/platform"
	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// Error writes err as {"ok": false, "error": ...} with a status matching its kind.
// Unclassified errors are logged and reported as a generic 500.
func Error(c *gin.Context, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": msg})
}

func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// BadBody answers a request whose JSON could not be bound.
func BadBody(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
}

type Page struct {
	Limit  uint64
	Offset uint64
}

// ParsePage reads ?limit and ?offset, clamping limit to MaxLimit.
func ParsePage(c *gin.Context) Page {
	p := Page{Limit: DefaultLimit}
	if v, err := strconv.ParseUint(c.Query("limit"), 10, 64); err == nil && v > 0 {
		p.Limit = v
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if v, err := strconv.ParseUint(c.Query("offset"), 10, 64); err == nil {
		p.Offset = v
	}
	return p
}

// QueryDate parses an optional YYYY-MM-DD query parameter.
func QueryDate(c *gin.Context, key string) (*platform.Date, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := platform.ParseDate(raw)
	if err != nil {
		return nil, apperr.Validation("%s must be a date (YYYY-MM-DD)", key)
	}
	return &d, nil
}

// ParamID returns a uuid path parameter. Malformed ids answer 404, since no
// row can match them.
func ParamID(c *gin.Context, name string) (string, bool) {
	raw := c.Param(name)
	if _, err := uuid.Parse(raw); err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"ok": false, "error": "not found"})
		return "", false
	}
	return raw, true
}
