package domain

import (
	"time"

	"github.com/corebuild/corebuild-backend/internal/platform"
)

// DailyLog is the site diary for one project day.
type DailyLog struct {
	ID            string        `json:"id"`
	CompanyID     string        `json:"company_id"`
	ProjectID     string        `json:"project_id"`
	LogDate       platform.Date `json:"log_date"`
	Weather       string        `json:"weather"`
	TemperatureF  *int          `json:"temperature_f,omitempty"`
	CrewCount     int           `json:"crew_count"`
	HoursWorked   float64       `json:"hours_worked"`
	WorkPerformed string        `json:"work_performed"`
	Delays        string        `json:"delays"`
	SafetyNotes   string        `json:"safety_notes"`
	AuthorID      string        `json:"author_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type CreateDailyLogRequest struct {
	LogDate       platform.Date
	Weather       string
	TemperatureF  *int
	CrewCount     int
	HoursWorked   float64
	WorkPerformed string
	Delays        string
	SafetyNotes   string
	AuthorID      string
}

type UpdateDailyLogRequest struct {
	Weather       *string
	TemperatureF  *int
	CrewCount     *int
	HoursWorked   *float64
	WorkPerformed *string
	Delays        *string
	SafetyNotes   *string
}

// ListFilter bounds log_date inclusively; nil means open-ended.
type ListFilter struct {
	From   *platform.Date
	To     *platform.Date
	Limit  uint64
	Offset uint64
}
