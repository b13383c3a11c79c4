package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corebuild/corebuild-backend/internal/auth"
	"github.com/corebuild/corebuild-backend/internal/documents/domain"
	"github.com/corebuild/corebuild-backend/internal/documents/service"
	"github.com/corebuild/corebuild-backend/internal/platform/httpx"
)

type Handler struct {
	svc *service.DocumentService
}

func New(svc *service.DocumentService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/projects/:id/documents", h.create)
	rg.GET("/projects/:id/documents", h.list)
	rg.GET("/documents/:id", h.download)
	rg.DELETE("/documents/:id", h.delete)
}

func (h *Handler) create(c *gin.Context) {
	projectID, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name        string `json:"name"`
		ContentType string `json:"content_type"`
		SizeBytes   int64  `json:"size_bytes"`
		Category    string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	t := auth.TenantFrom(c)
	doc, uploadURL, err := h.svc.Create(c.Request.Context(), t.CompanyID, projectID, domain.CreateDocumentRequest{
		Name:        req.Name,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		Category:    req.Category,
		UploadedBy:  t.UserID,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "document": doc, "upload_url": uploadURL})
}

func (h *Handler) list(c *gin.Context) {
	projectID, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	docs, err := h.svc.ListByProject(c.Request.Context(), auth.CompanyID(c), projectID, c.Query("category"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "documents": docs})
}

func (h *Handler) download(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	doc, downloadURL, err := h.svc.Download(c.Request.Context(), auth.CompanyID(c), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "document": doc, "download_url": downloadURL})
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
