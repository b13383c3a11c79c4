package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/corebuild/corebuild-backend/internal/auth"
	"github.com/corebuild/corebuild-backend/internal/backup/domain"
	"github.com/corebuild/corebuild-backend/internal/platform/httpx"
)

type Service interface {
	List(ctx context.Context, companyID string, limit int) ([]domain.Run, error)
	Trigger(ctx context.Context, companyID string) (*domain.Run, error)
}

type Handler struct {
	svc Service
}

func New(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/backups", h.list)
	rg.POST("/backups/run", auth.RequireRole(auth.RoleOwner, auth.RoleAdmin), h.run)
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	runs, err := h.svc.List(c.Request.Context(), auth.CompanyID(c), limit)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "backups": runs})
}

func (h *Handler) run(c *gin.Context) {
	run, err := h.svc.Trigger(c.Request.Context(), auth.CompanyID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"ok": true, "backup": run})
}
