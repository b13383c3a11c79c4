package http

import "github.com/gin-gonic/gin"

// Register attaches invoice routes to the tenant group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/projects/:id/invoices", h.create)
	rg.GET("/projects/:id/invoices", h.listForProject)

	rg.GET("/invoices", h.list)
	rg.GET("/invoices/:id", h.get)
	rg.PATCH("/invoices/:id", h.update)
	rg.POST("/invoices/:id/send", h.action(send))
	rg.POST("/invoices/:id/void", h.action(void))
	rg.POST("/invoices/:id/sync", h.action(syncInvoice))
	rg.POST("/invoices/:id/payments", h.recordPayment)
}
