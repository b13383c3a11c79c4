package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corebuild/corebuild-backend/internal/auth"
	"github.com/corebuild/corebuild-backend/internal/platform"
	"github.com/corebuild/corebuild-backend/internal/platform/httpx"
	"github.com/corebuild/corebuild-backend/internal/selections/domain"
	"github.com/corebuild/corebuild-backend/internal/selections/service"
)

type Handler struct {
	svc *service.SelectionService
}

func New(svc *service.SelectionService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/projects/:id/selections", h.create)
	rg.GET("/projects/:id/selections", h.list)
	rg.GET("/projects/:id/selections/summary", h.summary)
	rg.GET("/projects/:id/selections/overdue", h.overdue)

	rg.GET("/selections/:id", h.get)
	rg.PATCH("/selections/:id", h.update)
	rg.DELETE("/selections/:id", h.delete)
	rg.POST("/selections/:id/status", h.changeStatus)
	rg.POST("/selections/:id/reject", h.reject)
	rg.GET("/selections/:id/history", h.history)

	rg.POST("/selections/:id/options", h.addOption)
	rg.PATCH("/selections/:id/options/:option_id", h.updateOption)
	rg.DELETE("/selections/:id/options/:option_id", h.deleteOption)
	rg.POST("/selections/:id/options/:option_id/select", h.selectOption)
}

type selectionReq struct {
	Category       *string        `json:"category"`
	Name           *string        `json:"name"`
	Vendor         *string        `json:"vendor"`
	Quantity       *float64       `json:"quantity"`
	UnitPriceCents *int64         `json:"unit_price_cents"`
	AllowanceCents *int64         `json:"allowance_cents"`
	Notes          *string        `json:"notes"`
	DueDate        *platform.Date `json:"due_date"`
	Reason         string         `json:"reason"`
}

type optionReq struct {
	Name           *string `json:"name"`
	Vendor         *string `json:"vendor"`
	Description    *string `json:"description"`
	UnitPriceCents *int64  `json:"unit_price_cents"`
	Recommended    *bool   `json:"recommended"`
	SortOrder      *int    `json:"sort_order"`
}

func (r optionReq) toDomain() domain.OptionRequest {
	return domain.OptionRequest{
		Name:           r.Name,
		Vendor:         r.Vendor,
		Description:    r.Description,
		UnitPriceCents: r.UnitPriceCents,
		Recommended:    r.Recommended,
		SortOrder:      r.SortOrder,
	}
}

func val[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (h *Handler) create(c *gin.Context) {
	projectID, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req selectionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	sel, err := h.svc.Create(c.Request.Context(), auth.CompanyID(c), projectID, domain.CreateSelectionRequest{
		Category:       val(req.Category),
		Name:           val(req.Name),
		Vendor:         val(req.Vendor),
		Quantity:       req.Quantity,
		UnitPriceCents: val(req.UnitPriceCents),
		AllowanceCents: val(req.AllowanceCents),
		Notes:          val(req.Notes),
		DueDate:        req.DueDate,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "selection": sel})
}

func (h *Handler) list(c *gin.Context) {
	projectID, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	items, err := h.svc.ListByProject(c.Request.Context(), auth.CompanyID(c), projectID, domain.ListFilter{
		Category: c.Query("category"),
		Status:   c.Query("status"),
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "selections": items})
}

func (h *Handler) summary(c *gin.Context) {
	projectID, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	sum, err := h.svc.Summary(c.Request.Context(), auth.CompanyID(c), projectID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "summary": sum})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	sel, err := h.svc.Get(c.Request.Context(), auth.CompanyID(c), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "selection": sel})
}

func (h *Handler) update(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req selectionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	sel, err := h.svc.Update(c.Request.Context(), auth.CompanyID(c), id, auth.UserDBID(c), domain.UpdateSelectionRequest{
		Category:       req.Category,
		Name:           req.Name,
		Vendor:         req.Vendor,
		Quantity:       req.Quantity,
		UnitPriceCents: req.UnitPriceCents,
		AllowanceCents: req.AllowanceCents,
		Notes:          req.Notes,
		DueDate:        req.DueDate,
		Reason:         req.Reason,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "selection": sel})
}

func (h *Handler) changeStatus(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		httpx.BadBody(c)
		return
	}

	sel, err := h.svc.ChangeStatus(c.Request.Context(), auth.CompanyID(c), id, auth.UserDBID(c), req.Status, req.Reason)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "selection": sel})
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

func (h *Handler) overdue(c *gin.Context) {
	projectID, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	items, err := h.svc.Overdue(c.Request.Context(), auth.CompanyID(c), projectID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "selections": items})
}

func (h *Handler) reject(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	sel, err := h.svc.Reject(c.Request.Context(), auth.CompanyID(c), id, auth.UserDBID(c), req.Reason)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "selection": sel})
}

func (h *Handler) history(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	changes, err := h.svc.History(c.Request.Context(), auth.CompanyID(c), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "history": changes})
}

func (h *Handler) addOption(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req optionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	o, err := h.svc.AddOption(c.Request.Context(), auth.CompanyID(c), id, req.toDomain())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "option": o})
}

func (h *Handler) updateOption(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	optionID, ok := httpx.ParamID(c, "option_id")
	if !ok {
		return
	}
	var req optionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	o, err := h.svc.UpdateOption(c.Request.Context(), auth.CompanyID(c), id, optionID, req.toDomain())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "option": o})
}

func (h *Handler) deleteOption(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	optionID, ok := httpx.ParamID(c, "option_id")
	if !ok {
		return
	}
	if err := h.svc.DeleteOption(c.Request.Context(), auth.CompanyID(c), id, optionID); err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) selectOption(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	optionID, ok := httpx.ParamID(c, "option_id")
	if !ok {
		return
	}
	sel, err := h.svc.SelectOption(c.Request.Context(), auth.CompanyID(c), id, optionID, auth.UserDBID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "selection": sel})
}
