package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/projects/:id/estimates", h.create)
	rg.GET("/projects/:id/estimates", h.list)

	rg.GET("/estimates/:id", h.get)
	rg.PATCH("/estimates/:id", h.update)
	rg.DELETE("/estimates/:id", h.delete)
	rg.POST("/estimates/:id/status", h.changeStatus)
	rg.POST("/estimates/:id/invoice", h.convert)
}
