package domain

import "time"

// Company is a tenant. Every business record belongs to exactly one company.
type Company struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Address           string    `json:"address"`
	Phone             string    `json:"phone"`
	Email             string    `json:"email"`
	DefaultTaxRateBPS int64     `json:"default_tax_rate_bps"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Membership is a company as seen by one of its members.
type Membership struct {
	Company
	Role string `json:"role"`
}

type Member struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

type CreateCompanyRequest struct {
	Name              string
	Address           string
	Phone             string
	Email             string
	DefaultTaxRateBPS int64
}

type UpdateCompanyRequest struct {
	Name              *string
	Address           *string
	Phone             *string
	Email             *string
	DefaultTaxRateBPS *int64
}
