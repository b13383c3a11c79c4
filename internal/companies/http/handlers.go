package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corebuild/corebuild-backend/internal/auth"
	"github.com/corebuild/corebuild-backend/internal/companies/domain"
	"github.com/corebuild/corebuild-backend/internal/companies/service"
	"github.com/corebuild/corebuild-backend/internal/platform/httpx"
)

type Handler struct {
	svc *service.CompanyService
}

func New(svc *service.CompanyService) *Handler {
	return &Handler{svc: svc}
}

type companyReq struct {
	Name              *string `json:"name"`
	Address           *string `json:"address"`
	Phone             *string `json:"phone"`
	Email             *string `json:"email"`
	DefaultTaxRateBPS *int64  `json:"default_tax_rate_bps"`
}

func (h *Handler) create(c *gin.Context) {
	var req companyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	create := domain.CreateCompanyRequest{}
	if req.Name != nil {
		create.Name = *req.Name
	}
	if req.Address != nil {
		create.Address = *req.Address
	}
	if req.Phone != nil {
		create.Phone = *req.Phone
	}
	if req.Email != nil {
		create.Email = *req.Email
	}
	if req.DefaultTaxRateBPS != nil {
		create.DefaultTaxRateBPS = *req.DefaultTaxRateBPS
	}

	company, err := h.svc.Create(c.Request.Context(), auth.UserDBID(c), create)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "company": company})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.ListForUser(c.Request.Context(), auth.UserDBID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "companies": items})
}

func (h *Handler) current(c *gin.Context) {
	company, err := h.svc.Get(c.Request.Context(), auth.CompanyID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "company": company, "role": auth.Role(c)})
}

func (h *Handler) update(c *gin.Context) {
	var req companyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	company, err := h.svc.Update(c.Request.Context(), auth.CompanyID(c), domain.UpdateCompanyRequest{
		Name:              req.Name,
		Address:           req.Address,
		Phone:             req.Phone,
		Email:             req.Email,
		DefaultTaxRateBPS: req.DefaultTaxRateBPS,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "company": company})
}

func (h *Handler) members(c *gin.Context) {
	items, err := h.svc.ListMembers(c.Request.Context(), auth.CompanyID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "members": items})
}

type addMemberReq struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *Handler) addMember(c *gin.Context) {
	var req addMemberReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	u, err := h.svc.AddMember(c.Request.Context(), auth.CompanyID(c), req.Email, req.Role)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "member": domain.Member{
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        req.Role,
	}})
}
