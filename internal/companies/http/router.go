package http

import (
	"github.com/gin-gonic/gin"

	"github.com/corebuild/corebuild-backend/internal/auth"
)

// Register attaches company routes. user is authenticated but not tenant
// scoped; tenant has already passed RequireCompany.
func (h *Handler) Register(user, tenant *gin.RouterGroup) {
	user.POST("/companies", h.create)
	user.GET("/companies", h.list)

	admin := auth.RequireRole(auth.RoleOwner, auth.RoleAdmin)
	tenant.GET("/companies/current", h.current)
	tenant.PATCH("/companies/current", admin, h.update)
	tenant.GET("/companies/current/members", h.members)
	tenant.POST("/companies/current/members", admin, h.addMember)
}
