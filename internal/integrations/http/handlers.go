package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corebuild/corebuild-backend/internal/auth"
	"github.com/corebuild/corebuild-backend/internal/integrations/domain"
	"github.com/corebuild/corebuild-backend/internal/integrations/service"
	"github.com/corebuild/corebuild-backend/internal/platform/httpx"
)

type Handler struct {
	svc *service.IntegrationService
}

func New(svc *service.IntegrationService) *Handler {
	return &Handler{svc: svc}
}

// Register attaches integration routes. The OAuth callback goes on public
// because the provider redirect carries no tenant header; the state names
// the company.
func (h *Handler) Register(public, tenant *gin.RouterGroup) {
	public.GET("/integrations/:provider/callback", h.callback)

	admin := auth.RequireRole(auth.RoleOwner, auth.RoleAdmin)
	tenant.GET("/integrations", h.list)
	tenant.POST("/integrations/:provider/connect", admin, h.connect)
	tenant.DELETE("/integrations/:provider", admin, h.disconnect)
}

func provider(c *gin.Context) (string, bool) {
	p := c.Param("provider")
	if !domain.ValidProvider(p) {
		httpx.Error(c, domain.ErrUnknownProvider)
		return "", false
	}
	return p, true
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), auth.CompanyID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "integrations": items})
}

func (h *Handler) connect(c *gin.Context) {
	p, ok := provider(c)
	if !ok {
		return
	}
	t := auth.TenantFrom(c)
	authURL, err := h.svc.Connect(c.Request.Context(), t.CompanyID, t.UserID, p)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "authorization_url": authURL})
}

func (h *Handler) callback(c *gin.Context) {
	p, ok := provider(c)
	if !ok {
		return
	}
	i, err := h.svc.Callback(c.Request.Context(), p, service.CallbackParams{
		State:   c.Query("state"),
		Code:    c.Query("code"),
		RealmID: c.Query("realmId"),
		Error:   c.Query("error"),
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "integration": i})
}

func (h *Handler) disconnect(c *gin.Context) {
	p, ok := provider(c)
	if !ok {
		return
	}
	if err := h.svc.Disconnect(c.Request.Context(), auth.CompanyID(c), p); err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
