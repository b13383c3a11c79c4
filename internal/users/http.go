package users

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
	"github.com/corebuild/corebuild-backend/internal/platform/httpx"
)

type ProfileStore interface {
	Get(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id, displayName, photoURL string) (*User, error)
}

type Handler struct {
	store ProfileStore
	// userID reads the internal user id set by the auth middleware.
	userID func(c *gin.Context) string
}

func NewHandler(store ProfileStore, userID func(c *gin.Context) string) *Handler {
	return &Handler{store: store, userID: userID}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.PATCH("/me", h.updateMe)
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.store.Get(c.Request.Context(), h.userID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": u})
}

func (h *Handler) updateMe(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	req.PhotoURL = strings.TrimSpace(req.PhotoURL)
	if len(req.DisplayName) > 120 {
		httpx.Error(c, apperr.Validation("display_name must be at most 120 characters"))
		return
	}
	if req.PhotoURL != "" {
		if u, err := url.Parse(req.PhotoURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			httpx.Error(c, apperr.Validation("photo_url must be an http(s) URL"))
			return
		}
	}

	u, err := h.store.UpdateProfile(c.Request.Context(), h.userID(c), req.DisplayName, req.PhotoURL)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": u})
}
