package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corebuild/corebuild-backend/internal/auth"
	"github.com/corebuild/corebuild-backend/internal/changeorders/domain"
	"github.com/corebuild/corebuild-backend/internal/changeorders/service"
	"github.com/corebuild/corebuild-backend/internal/platform/httpx"
)

type Handler struct {
	svc *service.ChangeOrderService
}

func New(svc *service.ChangeOrderService) *Handler {
	return &Handler{svc: svc}
}

type changeOrderReq struct {
	Title              *string `json:"title"`
	Description        *string `json:"description"`
	Reason             *string `json:"reason"`
	AmountCents        *int64  `json:"amount_cents"`
	ScheduleImpactDays *int    `json:"schedule_impact_days"`
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/projects/:id/change-orders", h.create)
	rg.GET("/projects/:id/change-orders", h.list)

	rg.GET("/change-orders/:id", h.get)
	rg.PATCH("/change-orders/:id", h.update)
	rg.POST("/change-orders/:id/status", h.changeStatus)
}

func (h *Handler) create(c *gin.Context) {
	projectID, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req changeOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	create := domain.CreateChangeOrderRequest{}
	if req.Title != nil {
		create.Title = *req.Title
	}
	if req.Description != nil {
		create.Description = *req.Description
	}
	if req.Reason != nil {
		create.Reason = *req.Reason
	}
	if req.AmountCents != nil {
		create.AmountCents = *req.AmountCents
	}
	if req.ScheduleImpactDays != nil {
		create.ScheduleImpactDays = *req.ScheduleImpactDays
	}

	co, err := h.svc.Create(c.Request.Context(), auth.CompanyID(c), projectID, create)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "change_order": co})
}

func (h *Handler) list(c *gin.Context) {
	projectID, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	items, err := h.svc.ListByProject(c.Request.Context(), auth.CompanyID(c), projectID, c.Query("status"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "change_orders": items})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	co, err := h.svc.Get(c.Request.Context(), auth.CompanyID(c), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "change_order": co})
}

func (h *Handler) update(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req changeOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	co, err := h.svc.Update(c.Request.Context(), auth.CompanyID(c), id, domain.UpdateChangeOrderRequest{
		Title:              req.Title,
		Description:        req.Description,
		Reason:             req.Reason,
		AmountCents:        req.AmountCents,
		ScheduleImpactDays: req.ScheduleImpactDays,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "change_order": co})
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

	co, err := h.svc.ChangeStatus(c.Request.Context(), auth.CompanyID(c), id, req.Status)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "change_order": co})
}
