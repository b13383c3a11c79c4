package domain

import (
	"time"

	"github.com/corebuild/corebuild-backend/internal/platform"
)

// Lead is a prospective client in the sales pipeline.
type Lead struct {
	ID                  string    `json:"id"`
	CompanyID           string    `json:"company_id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	Phone               string    `json:"phone"`
	Source              string    `json:"source"`
	EstimatedValueCents int64     `json:"estimated_value_cents"`
	Status              string    `json:"status"`
	Notes               string    `json:"notes"`
	ProjectID           *string   `json:"project_id,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusProposal  = "proposal"
	StatusWon       = "won"
	StatusLost      = "lost"
)

// Transitions walks the pipeline forward. Any open lead may be lost and a
// lost lead may be reopened. won is terminal.
var Transitions = platform.Transitions{
	StatusNew:       {StatusContacted, StatusLost},
	StatusContacted: {StatusQualified, StatusLost},
	StatusQualified: {StatusProposal, StatusLost},
	StatusProposal:  {StatusWon, StatusLost},
	StatusLost:      {StatusNew},
}

// Convertible reports whether a lead in status may become a project.
func Convertible(status string) bool {
	return status == StatusProposal || status == StatusWon
}

// Converted reports whether the lead already produced a project.
func (l *Lead) Converted() bool {
	return l.ProjectID != nil && *l.ProjectID != ""
}

type CreateLeadRequest struct {
	Name                string
	Email               string
	Phone               string
	Source              string
	EstimatedValueCents int64
	Notes               string
}

type UpdateLeadRequest struct {
	Name                *string
	Email               *string
	Phone               *string
	Source              *string
	EstimatedValueCents *int64
	Notes               *string
}

type ListFilter struct {
	Status string
	Source string
	Search string
	Limit  uint64
	Offset uint64
}

// ConvertRequest carries the project fields that the lead does not provide.
type ConvertRequest struct {
	ProjectName string
	Address     string
	CreatedBy   string
}
