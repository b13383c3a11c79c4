package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corebuild/corebuild-backend/internal/auth"
	"github.com/corebuild/corebuild-backend/internal/estimates/domain"
	"github.com/corebuild/corebuild-backend/internal/estimates/service"
	"github.com/corebuild/corebuild-backend/internal/platform/httpx"
)

type Handler struct {
	svc *service.EstimateService
}

func New(svc *service.EstimateService) *Handler {
	return &Handler{svc: svc}
}

type estimateReq struct {
	Title      *string           `json:"title"`
	TaxRateBPS *int64            `json:"tax_rate_bps"`
	LineItems  []domain.LineItem `json:"line_items"`
	Notes      *string           `json:"notes"`
}

func (h *Handler) create(c *gin.Context) {
	projectID, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req estimateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	create := domain.CreateEstimateRequest{TaxRateBPS: req.TaxRateBPS, LineItems: req.LineItems}
	if req.Title != nil {
		create.Title = *req.Title
	}
	if req.Notes != nil {
		create.Notes = *req.Notes
	}
	e, err := h.svc.Create(c.Request.Context(), auth.CompanyID(c), projectID, create)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "estimate": e})
}

func (h *Handler) list(c *gin.Context) {
	projectID, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	page := httpx.ParsePage(c)
	items, err := h.svc.ListByProject(c.Request.Context(), auth.CompanyID(c), projectID, domain.ListFilter{
		Status: c.Query("status"),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "estimates": items})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	e, err := h.svc.Get(c.Request.Context(), auth.CompanyID(c), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "estimate": e})
}

func (h *Handler) update(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req estimateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	e, err := h.svc.Update(c.Request.Context(), auth.CompanyID(c), id, domain.UpdateEstimateRequest{
		Title:      req.Title,
		TaxRateBPS: req.TaxRateBPS,
		LineItems:  req.LineItems,
		Notes:      req.Notes,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "estimate": e})
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

	e, err := h.svc.ChangeStatus(c.Request.Context(), auth.CompanyID(c), id, req.Status)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "estimate": e})
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

func (h *Handler) convert(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	e, inv, err := h.svc.ConvertToInvoice(c.Request.Context(), auth.CompanyID(c), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "estimate": e, "invoice": inv})
}
