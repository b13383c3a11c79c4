package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/corebuild/corebuild-backend/internal/auth"
	"github.com/corebuild/corebuild-backend/internal/invoices/domain"
	"github.com/corebuild/corebuild-backend/internal/invoices/service"
	"github.com/corebuild/corebuild-backend/internal/platform"
	"github.com/corebuild/corebuild-backend/internal/platform/apperr"
	"github.com/corebuild/corebuild-backend/internal/platform/httpx"
)

type Handler struct {
	svc *service.InvoiceService
}

func New(svc *service.InvoiceService) *Handler {
	return &Handler{svc: svc}
}

type invoiceReq struct {
	IssueDate  *platform.Date    `json:"issue_date"`
	DueDate    *platform.Date    `json:"due_date"`
	TaxRateBPS *int64            `json:"tax_rate_bps"`
	LineItems  []domain.LineItem `json:"line_items"`
	Notes      *string           `json:"notes"`
}

func (h *Handler) create(c *gin.Context) {
	projectID, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req invoiceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	var notes string
	if req.Notes != nil {
		notes = *req.Notes
	}
	inv, err := h.svc.Create(c.Request.Context(), auth.CompanyID(c), projectID, domain.CreateInvoiceRequest{
		IssueDate:  req.IssueDate,
		DueDate:    req.DueDate,
		TaxRateBPS: req.TaxRateBPS,
		LineItems:  req.LineItems,
		Notes:      notes,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "invoice": inv})
}

func (h *Handler) listForProject(c *gin.Context) {
	projectID, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	h.respondList(c, projectID)
}

func (h *Handler) list(c *gin.Context) {
	projectID := c.Query("project_id")
	if projectID != "" {
		if _, err := uuid.Parse(projectID); err != nil {
			httpx.Error(c, apperr.Validation("project_id must be a uuid"))
			return
		}
	}
	h.respondList(c, projectID)
}

func (h *Handler) respondList(c *gin.Context, projectID string) {
	page := httpx.ParsePage(c)
	items, total, err := h.svc.List(c.Request.Context(), auth.CompanyID(c), domain.ListFilter{
		Status:      c.Query("status"),
		ProjectID:   projectID,
		OverdueOnly: c.Query("overdue") == "true",
		Limit:       page.Limit,
		Offset:      page.Offset,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	if items == nil {
		items = []domain.Invoice{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "invoices": items, "total": total})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	inv, payments, err := h.svc.Get(c.Request.Context(), auth.CompanyID(c), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "invoice": inv, "payments": payments})
}

func (h *Handler) update(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req invoiceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	inv, err := h.svc.Update(c.Request.Context(), auth.CompanyID(c), id, domain.UpdateInvoiceRequest{
		IssueDate:  req.IssueDate,
		DueDate:    req.DueDate,
		TaxRateBPS: req.TaxRateBPS,
		LineItems:  req.LineItems,
		Notes:      req.Notes,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "invoice": inv})
}

// action wraps the body-less invoice transitions.
func (h *Handler) action(fn func(*service.InvoiceService, *gin.Context, string, string) (*domain.Invoice, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.ParamID(c, "id")
		if !ok {
			return
		}
		inv, err := fn(h.svc, c, auth.CompanyID(c), id)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "invoice": inv})
	}
}

func send(s *service.InvoiceService, c *gin.Context, companyID, id string) (*domain.Invoice, error) {
	return s.Send(c.Request.Context(), companyID, id)
}

func void(s *service.InvoiceService, c *gin.Context, companyID, id string) (*domain.Invoice, error) {
	return s.Void(c.Request.Context(), companyID, id)
}

func syncInvoice(s *service.InvoiceService, c *gin.Context, companyID, id string) (*domain.Invoice, error) {
	return s.Sync(c.Request.Context(), companyID, id)
}

type paymentReq struct {
	AmountCents int64          `json:"amount_cents"`
	Method      string         `json:"method"`
	Reference   string         `json:"reference"`
	PaidOn      *platform.Date `json:"paid_on"`
}

func (h *Handler) recordPayment(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req paymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	inv, p, err := h.svc.RecordPayment(c.Request.Context(), auth.CompanyID(c), id, domain.PaymentRequest{
		AmountCents: req.AmountCents,
		Method:      req.Method,
		Reference:   req.Reference,
		PaidOn:      req.PaidOn,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "invoice": inv, "payment": p})
}
