package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corebuild/corebuild-backend/internal/auth"
	"github.com/corebuild/corebuild-backend/internal/platform/httpx"
	"github.com/corebuild/corebuild-backend/internal/takeoffs/domain"
	"github.com/corebuild/corebuild-backend/internal/takeoffs/service"
)

type Handler struct {
	svc *service.TakeoffService
}

func New(svc *service.TakeoffService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/projects/:id/takeoffs", h.create)
	rg.GET("/projects/:id/takeoffs", h.list)
	rg.GET("/takeoffs/:id", h.get)
	rg.PUT("/takeoffs/:id", h.replace)
	rg.DELETE("/takeoffs/:id", h.delete)
}

type measurementReq struct {
	Label        string  `json:"label"`
	Kind         string  `json:"kind"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	WastePercent float64 `json:"waste_percent"`
}

type takeoffReq struct {
	Name         string           `json:"name"`
	PlanSheet    string           `json:"plan_sheet"`
	Measurements []measurementReq `json:"measurements"`
}

func (r takeoffReq) toDomain() domain.SaveTakeoffRequest {
	out := domain.SaveTakeoffRequest{
		Name:         r.Name,
		PlanSheet:    r.PlanSheet,
		Measurements: make([]domain.Measurement, len(r.Measurements)),
	}
	for i, m := range r.Measurements {
		out.Measurements[i] = domain.Measurement{
			Label:        m.Label,
			Kind:         m.Kind,
			Quantity:     m.Quantity,
			Unit:         m.Unit,
			WastePercent: m.WastePercent,
		}
	}
	return out
}

func (h *Handler) create(c *gin.Context) {
	projectID, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req takeoffReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	t, err := h.svc.Create(c.Request.Context(), auth.CompanyID(c), projectID, req.toDomain())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "takeoff": t})
}

func (h *Handler) list(c *gin.Context) {
	projectID, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	items, err := h.svc.ListByProject(c.Request.Context(), auth.CompanyID(c), projectID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "takeoffs": items})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.Get(c.Request.Context(), auth.CompanyID(c), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "takeoff": t})
}

func (h *Handler) replace(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req takeoffReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	t, err := h.svc.Replace(c.Request.Context(), auth.CompanyID(c), id, req.toDomain())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "takeoff": t})
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
