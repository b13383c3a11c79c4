package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corebuild/corebuild-backend/internal/auth"
	"github.com/corebuild/corebuild-backend/internal/dailylogs/domain"
	"github.com/corebuild/corebuild-backend/internal/dailylogs/service"
	"github.com/corebuild/corebuild-backend/internal/platform"
	"github.com/corebuild/corebuild-backend/internal/platform/httpx"
)

type Handler struct {
	svc *service.DailyLogService
}

func New(svc *service.DailyLogService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/projects/:id/daily-logs", h.create)
	rg.GET("/projects/:id/daily-logs", h.list)

	rg.GET("/daily-logs/:id", h.get)
	rg.PATCH("/daily-logs/:id", h.update)
	rg.DELETE("/daily-logs/:id", h.delete)
}

type dailyLogReq struct {
	LogDate       *platform.Date `json:"log_date"`
	Weather       *string        `json:"weather"`
	TemperatureF  *int           `json:"temperature_f"`
	CrewCount     *int           `json:"crew_count"`
	HoursWorked   *float64       `json:"hours_worked"`
	WorkPerformed *string        `json:"work_performed"`
	Delays        *string        `json:"delays"`
	SafetyNotes   *string        `json:"safety_notes"`
}

func (h *Handler) create(c *gin.Context) {
	projectID, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req dailyLogReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}

	t := auth.TenantFrom(c)
	create := domain.CreateDailyLogRequest{TemperatureF: req.TemperatureF, AuthorID: t.UserID}
	if req.LogDate != nil {
		create.LogDate = *req.LogDate
	}
	if req.Weather != nil {
		create.Weather = *req.Weather
	}
	if req.CrewCount != nil {
		create.CrewCount = *req.CrewCount
	}
	if req.HoursWorked != nil {
		create.HoursWorked = *req.HoursWorked
	}
	if req.WorkPerformed != nil {
		create.WorkPerformed = *req.WorkPerformed
	}
	if req.Delays != nil {
		create.Delays = *req.Delays
	}
	if req.SafetyNotes != nil {
		create.SafetyNotes = *req.SafetyNotes
	}

	l, err := h.svc.Create(c.Request.Context(), t.CompanyID, projectID, create)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "daily_log": l})
}

func (h *Handler) list(c *gin.Context) {
	projectID, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	from, err := httpx.QueryDate(c, "from")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	to, err := httpx.QueryDate(c, "to")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	page := httpx.ParsePage(c)
	logs, err := h.svc.ListByProject(c.Request.Context(), auth.CompanyID(c), projectID, domain.ListFilter{
		From:   from,
		To:     to,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "daily_logs": logs})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	l, err := h.svc.Get(c.Request.Context(), auth.CompanyID(c), id)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "daily_log": l})
}

func (h *Handler) update(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req dailyLogReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadBody(c)
		return
	}
	if req.LogDate != nil {
		httpx.Error(c, errLogDateFixed)
		return
	}

	l, err := h.svc.Update(c.Request.Context(), auth.CompanyID(c), id, domain.UpdateDailyLogRequest{
		Weather:       req.Weather,
		TemperatureF:  req.TemperatureF,
		CrewCount:     req.CrewCount,
		HoursWorked:   req.HoursWorked,
		WorkPerformed: req.WorkPerformed,
		Delays:        req.Delays,
		SafetyNotes:   req.SafetyNotes,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "daily_log": l})
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
