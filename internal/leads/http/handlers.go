package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corebuild/corebuild-backend/internal/auth"
	"github.com/corebuild/corebuild-backend/internal/leads/domain"
	"github.com/corebuild/corebuild-backend/internal/leads/service"
	"github.com/corebuild/corebuild-backend/internal/platform/httpx"
)

type Handler struct {
	svc *service.LeadService
}

func New(svc *service.LeadService) *Handler {
	return &Handler{svc: svc}
}

type leadReq struct {
	Name                *string `json:"name"`
	Email               *string `json:"email"`
	Phone               *string `json:"phone"`
	Source              *string `json:"source"`
	EstimatedValueCents *int64  `json:"estimated_value_cents"`
	Notes               *string `json:"notes"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func (h *Handler) create(c *gin.Context) {
	var req leadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	var value int64
	if req.EstimatedValueCents != nil {
		value = *req.EstimatedValueCents
	}
	l, err := h.svc.Create(c.Request.Context(), auth.CompanyID(c), domain.CreateLeadRequest{
		Name:                str(req.Name),
		Email:               str(req.Email),
		Phone:               str(req.Phone),
		Source:              str(req.Source),
		EstimatedValueCents: value,
		Notes:               str(req.Notes),
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "lead": l})
}

func (h *Handler) list(c *gin.Context) {
	page := httpx.ParsePage(c)
	items, total, err := h.svc.List(c.Request.Context(), auth.CompanyID(c), domain.ListFilter{
		Status: c.Query("status"),
		Source: c.Query("source"),
		Search: c.Query("q"),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	if items == nil {
		items = []domain.Lead{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "leads": items, "total": total})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	l, err := h.svc.Get(c.Request.Context(), auth.CompanyID(c), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "lead": l})
}

func (h *Handler) update(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req leadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	l, err := h.svc.Update(c.Request.Context(), auth.CompanyID(c), id, domain.UpdateLeadRequest{
		Name:                req.Name,
		Email:               req.Email,
		Phone:               req.Phone,
		Source:              req.Source,
		EstimatedValueCents: req.EstimatedValueCents,
		Notes:               req.Notes,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "lead": l})
}

func (h *Handler) changeStatus(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		httpx.BadBody(c)
		return
	}

	l, err := h.svc.ChangeStatus(c.Request.Context(), auth.CompanyID(c), id, req.Status)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "lead": l})
}

func (h *Handler) convert(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		ProjectName string `json:"project_name"`
		Address     string `json:"address"`
	}
	// An empty body is fine; the project takes the lead's name.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadBody(c)
			return
		}
	}

	t := auth.TenantFrom(c)
	l, p, err := h.svc.Convert(c.Request.Context(), t.CompanyID, id, domain.ConvertRequest{
		ProjectName: req.ProjectName,
		Address:     req.Address,
		CreatedBy:   t.UserID,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "lead": l, "project": p})
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), auth.CompanyID(c), id); err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
