package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corebuild/corebuild-backend/internal/auth"
	"github.com/corebuild/corebuild-backend/internal/platform"
	"github.com/corebuild/corebuild-backend/internal/platform/httpx"
	"github.com/corebuild/corebuild-backend/internal/projects/domain"
	"github.com/corebuild/corebuild-backend/internal/projects/service"
)

type Handler struct {
	svc *service.ProjectService
}

func New(svc *service.ProjectService) *Handler {
	return &Handler{svc: svc}
}

type projectReq struct {
	Name                *string        `json:"name"`
	ClientName          *string        `json:"client_name"`
	ClientEmail         *string        `json:"client_email"`
	Address             *string        `json:"address"`
	StartDate           *platform.Date `json:"start_date"`
	EndDate             *platform.Date `json:"end_date"`
	ContractAmountCents *int64         `json:"contract_amount_cents"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (h *Handler) create(c *gin.Context) {
	var req projectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	t := auth.TenantFrom(c)
	p, err := h.svc.Create(c.Request.Context(), t.CompanyID, domain.CreateProjectRequest{
		Name:                deref(req.Name),
		ClientName:          deref(req.ClientName),
		ClientEmail:         deref(req.ClientEmail),
		Address:             deref(req.Address),
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		ContractAmountCents: deref(req.ContractAmountCents),
		CreatedBy:           t.UserID,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) list(c *gin.Context) {
	page := httpx.ParsePage(c)
	items, total, err := h.svc.List(c.Request.Context(), auth.CompanyID(c), domain.ListFilter{
		Status: c.Query("status"),
		Search: c.Query("q"),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items, "total": total})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), auth.CompanyID(c), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) update(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req projectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	p, err := h.svc.Update(c.Request.Context(), auth.CompanyID(c), id, domain.UpdateProjectRequest{
		Name:                req.Name,
		ClientName:          req.ClientName,
		ClientEmail:         req.ClientEmail,
		Address:             req.Address,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		ContractAmountCents: req.ContractAmountCents,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

type statusReq struct {
	Status string `json:"status"`
}

func (h *Handler) changeStatus(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		httpx.BadBody(c)
		return
	}

	p, err := h.svc.ChangeStatus(c.Request.Context(), auth.CompanyID(c), id, req.Status)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
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
