package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corebuild/corebuild-backend/internal/auth"
	"github.com/corebuild/corebuild-backend/internal/dashboard/service"
	"github.com/corebuild/corebuild-backend/internal/platform/httpx"
)

type Handler struct {
	svc *service.DashboardService
}

func New(svc *service.DashboardService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.summary)
}

func (h *Handler) summary(c *gin.Context) {
	s, err := h.svc.Summary(c.Request.Context(), auth.CompanyID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "dashboard": s, "active_projects": s.ActiveProjects()})
}
