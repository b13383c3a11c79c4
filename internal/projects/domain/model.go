package domain

import (
	"time"

	"github.com/corebuild/corebuild-backend/internal/platform"
)

// Project is a construction job for a client. PublicID is the human-facing
// number, e.g. "PRJ-12345-6789".
type Project struct {
	ID                  string         `json:"id"`
	CompanyID           string         `json:"company_id"`
	PublicID            string         `json:"public_id"`
	Name                string         `json:"name"`
	ClientName          string         `json:"client_name"`
	ClientEmail         string         `json:"client_email"`
	Address             string         `json:"address"`
	Status              string         `json:"status"`
	StartDate           *platform.Date `json:"start_date,omitempty"`
	EndDate             *platform.Date `json:"end_date,omitempty"`
	ContractAmountCents int64          `json:"contract_amount_cents"`
	LeadID              *string        `json:"lead_id,omitempty"`
	CreatedBy           string         `json:"created_by,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

const (
	StatusPlanning  = "planning"
	StatusActive    = "active"
	StatusOnHold    = "on_hold"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Transitions lists the allowed status moves. completed and cancelled are terminal.
var Transitions = platform.Transitions{
	StatusPlanning: {StatusActive, StatusCancelled},
	StatusActive:   {StatusOnHold, StatusCompleted, StatusCancelled},
	StatusOnHold:   {StatusActive, StatusCancelled},
}

const PublicIDPrefix = "PRJ"

type CreateProjectRequest struct {
	Name                string
	ClientName          string
	ClientEmail         string
	Address             string
	StartDate           *platform.Date
	EndDate             *platform.Date
	ContractAmountCents int64
	LeadID              *string
	CreatedBy           string
}

type UpdateProjectRequest struct {
	Name                *string
	ClientName          *string
	ClientEmail         *string
	Address             *string
	StartDate           *platform.Date
	EndDate             *platform.Date
	ContractAmountCents *int64
}

type ListFilter struct {
	Status string
	Search string
	Limit  uint64
	Offset uint64
}
