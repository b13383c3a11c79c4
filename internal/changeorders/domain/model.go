package domain

import (
	"fmt"
	"time"

	"github.com/corebuild/corebuild-backend/internal/platform"
)

// ChangeOrder amends the scope and price of a project. AmountCents may be
// negative for credits back to the client.
type ChangeOrder struct {
	ID                 string     `json:"id"`
	CompanyID          string     `json:"company_id"`
	ProjectID          string     `json:"project_id"`
	Number             int        `json:"number"`
	Code               string     `json:"code"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Reason             string     `json:"reason"`
	AmountCents        int64      `json:"amount_cents"`
	ScheduleImpactDays int        `json:"schedule_impact_days"`
	Status             string     `json:"status"`
	DecidedAt          *time.Time `json:"decided_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

const (
	StatusDraft           = "draft"
	StatusPendingApproval = "pending_approval"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
)

var Transitions = platform.Transitions{
	StatusDraft:           {StatusPendingApproval},
	StatusPendingApproval: {StatusApproved, StatusRejected, StatusDraft},
}

// IsDecision reports whether moving to status closes the change order.
func IsDecision(status string) bool {
	return status == StatusApproved || status == StatusRejected
}

// FormatCode renders the display number, e.g. "CO-007".
func FormatCode(number int) string {
	return fmt.Sprintf("CO-%03d", number)
}

type CreateChangeOrderRequest struct {
	Title              string
	Description        string
	Reason             string
	AmountCents        int64
	ScheduleImpactDays int
}

type UpdateChangeOrderRequest struct {
	Title              *string
	Description        *string
	Reason             *string
	AmountCents        *int64
	ScheduleImpactDays *int
}
