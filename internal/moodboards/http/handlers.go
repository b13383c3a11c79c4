package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corebuild/corebuild-backend/internal/auth"
	"github.com/corebuild/corebuild-backend/internal/moodboards/domain"
	"github.com/corebuild/corebuild-backend/internal/moodboards/service"
	"github.com/corebuild/corebuild-backend/internal/platform/httpx"
)

type Handler struct {
	svc *service.MoodBoardService
}

func New(svc *service.MoodBoardService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/projects/:id/mood-boards", h.create)
	rg.GET("/projects/:id/mood-boards", h.list)
	rg.GET("/projects/:id/mood-boards/summary", h.summary)
	rg.GET("/mood-boards/pending", h.pending)

	boards := rg.Group("/mood-boards/:id")
	boards.GET("", h.get)
	boards.PATCH("", h.update)
	boards.DELETE("", h.delete)
	boards.POST("/status", h.changeStatus)
	boards.POST("/items", h.addItem)
	boards.PUT("/items/order", h.reorder)
	boards.DELETE("/items/:item_id", h.removeItem)
	boards.POST("/duplicate", h.duplicate)
	boards.GET("/comments", h.listComments)
	boards.POST("/comments", h.addComment)
	boards.DELETE("/comments/:comment_id", h.deleteComment)
}

func (h *Handler) create(c *gin.Context) {
	projectID, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	b, err := h.svc.Create(c.Request.Context(), auth.CompanyID(c), projectID, domain.CreateBoardRequest{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "mood_board": b})
}

func (h *Handler) list(c *gin.Context) {
	projectID, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	boards, err := h.svc.ListByProject(c.Request.Context(), auth.CompanyID(c), projectID, c.Query("status"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "mood_boards": boards})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	b, err := h.svc.Get(c.Request.Context(), auth.CompanyID(c), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "mood_board": b})
}

func (h *Handler) update(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	b, err := h.svc.Update(c.Request.Context(), auth.CompanyID(c), id, domain.UpdateBoardRequest{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "mood_board": b})
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

	b, err := h.svc.ChangeStatus(c.Request.Context(), auth.CompanyID(c), id, req.Status)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "mood_board": b})
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

func (h *Handler) addItem(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		ImageURL string   `json:"image_url"`
		Caption  string   `json:"caption"`
		Tags     []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	item, err := h.svc.AddItem(c.Request.Context(), auth.CompanyID(c), id, domain.AddItemRequest{
		ImageURL: req.ImageURL,
		Caption:  req.Caption,
		Tags:     req.Tags,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "item": item})
}

func (h *Handler) removeItem(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	itemID, ok := httpx.ParamID(c, "item_id")
	if !ok {
		return
	}

	b, err := h.svc.RemoveItem(c.Request.Context(), auth.CompanyID(c), id, itemID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "mood_board": b})
}

func (h *Handler) reorder(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		ItemIDs []string `json:"item_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	b, err := h.svc.ReorderItems(c.Request.Context(), auth.CompanyID(c), id, req.ItemIDs)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "mood_board": b})
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

func (h *Handler) pending(c *gin.Context) {
	boards, err := h.svc.PendingApproval(c.Request.Context(), auth.CompanyID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "mood_boards": boards})
}

func (h *Handler) duplicate(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	b, err := h.svc.Duplicate(c.Request.Context(), auth.CompanyID(c), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "mood_board": b})
}

func (h *Handler) listComments(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	comments, err := h.svc.ListComments(c.Request.Context(), auth.CompanyID(c), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "comments": comments})
}

func (h *Handler) addComment(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		ItemID *string `json:"item_id"`
		Body   string  `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	comment, err := h.svc.AddComment(c.Request.Context(), auth.CompanyID(c), id, auth.UserDBID(c), domain.AddCommentRequest{
		ItemID: req.ItemID,
		Body:   req.Body,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "comment": comment})
}

func (h *Handler) deleteComment(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	commentID, ok := httpx.ParamID(c, "comment_id")
	if !ok {
		return
	}
	if err := h.svc.DeleteComment(c.Request.Context(), auth.CompanyID(c), id, commentID, auth.UserDBID(c)); err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
