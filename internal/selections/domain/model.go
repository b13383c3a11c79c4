package domain

import (
	"time"

	"github.com/corebuild/corebuild-backend/internal/platform"
)

// Selection is a finish or fixture the client picks against an allowance.
type Selection struct {
	ID             string    `json:"id"`
	CompanyID      string    `json:"company_id"`
	ProjectID      string    `json:"project_id"`
	Category       string    `json:"category"`
	Name           string    `json:"name"`
	Vendor         string    `json:"vendor"`
	Quantity       float64   `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	AllowanceCents int64     `json:"allowance_cents"`
	TotalCents     int64     `json:"total_cents"`
	VarianceCents  int64     `json:"variance_cents"`
	Status           string         `json:"status"`
	Notes            string         `json:"notes"`
	DueDate          *platform.Date `json:"due_date,omitempty"`
	SelectedOptionID *string        `json:"selected_option_id,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`

	Options []Option `json:"options,omitempty"`
	History []Change `json:"history,omitempty"`
}

// Option is one candidate product offered to the client for a selection.
type Option struct {
	ID             string    `json:"id"`
	SelectionID    string    `json:"selection_id"`
	Name           string    `json:"name"`
	Vendor         string    `json:"vendor"`
	Description    string    `json:"description"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Recommended    bool      `json:"recommended"`
	SortOrder      int       `json:"sort_order"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FieldChange holds the old and new value of one edited field.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Change is one entry of a selection's audit trail.
type Change struct {
	ID          string                 `json:"id"`
	SelectionID string                 `json:"selection_id"`
	ChangedBy   string                 `json:"changed_by,omitempty"`
	Kind        string                 `json:"kind"`
	Fields      map[string]FieldChange `json:"fields"`
	Reason      string                 `json:"reason,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

const (
	ChangeUpdate         = "update"
	ChangeStatus         = "status"
	ChangeOptionSelected = "option_selected"
)

// Diff records every field whose value differs between before and after.
// It returns nil when nothing changed.
func Diff(before, after *Selection) map[string]FieldChange {
	out := map[string]FieldChange{}
	add := func(name string, from, to any) {
		if from != to {
			out[name] = FieldChange{From: from, To: to}
		}
	}
	add("category", before.Category, after.Category)
	add("name", before.Name, after.Name)
	add("vendor", before.Vendor, after.Vendor)
	add("quantity", before.Quantity, after.Quantity)
	add("unit_price_cents", before.UnitPriceCents, after.UnitPriceCents)
	add("allowance_cents", before.AllowanceCents, after.AllowanceCents)
	add("status", before.Status, after.Status)
	add("notes", before.Notes, after.Notes)
	add("due_date", dateString(before.DueDate), dateString(after.DueDate))
	add("selected_option_id", stringOrEmpty(before.SelectedOptionID), stringOrEmpty(after.SelectedOptionID))
	if len(out) == 0 {
		return nil
	}
	return out
}

func dateString(d *platform.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

const (
	StatusPending   = "pending"
	StatusSelected  = "selected"
	StatusApproved  = "approved"
	StatusOrdered   = "ordered"
	StatusInstalled = "installed"
	StatusRejected  = "rejected"
)

// Statuses in lifecycle order. Rejected sits outside the forward path.
var Statuses = []string{StatusPending, StatusSelected, StatusApproved, StatusOrdered, StatusInstalled, StatusRejected}

// Transitions move one step forward. A selection can be undone back to
// pending until it is approved, and rejected until then too. A rejected
// selection reopens as pending.
var Transitions = platform.Transitions{
	StatusPending:  {StatusSelected, StatusRejected},
	StatusSelected: {StatusApproved, StatusPending, StatusRejected},
	StatusApproved: {StatusOrdered},
	StatusOrdered:  {StatusInstalled},
	StatusRejected: {StatusPending},
}

// Overdue reports whether the client still owes a decision past the due date.
func (s *Selection) Overdue(today platform.Date) bool {
	if s.DueDate == nil {
		return false
	}
	open := s.Status == StatusPending || s.Status == StatusSelected
	return open && s.DueDate.Before(today)
}

// Derive computes the total and the variance against the allowance. A
// positive variance means the client is over allowance.
func (s *Selection) Derive() {
	s.TotalCents = platform.LineTotal(s.Quantity, s.UnitPriceCents)
	s.VarianceCents = s.TotalCents - s.AllowanceCents
}

// PriceLocked reports whether quantity and price are fixed because the item
// has been ordered.
func (s *Selection) PriceLocked() bool {
	return s.Status == StatusOrdered || s.Status == StatusInstalled
}

type Summary struct {
	Count              int            `json:"count"`
	TotalCents         int64          `json:"total_cents"`
	AllowanceCents     int64          `json:"allowance_cents"`
	VarianceCents      int64          `json:"variance_cents"`
	OverAllowanceCount int            `json:"over_allowance_count"`
	ByStatus           map[string]int `json:"by_status"`
}

// Summarize totals a project's selections. Every status appears in ByStatus.
func Summarize(items []Selection) Summary {
	sum := Summary{ByStatus: make(map[string]int, len(Statuses))}
	for _, s := range Statuses {
		sum.ByStatus[s] = 0
	}
	for _, item := range items {
		item.Derive()
		sum.Count++
		sum.TotalCents += item.TotalCents
		sum.AllowanceCents += item.AllowanceCents
		if item.VarianceCents > 0 {
			sum.OverAllowanceCount++
		}
		sum.ByStatus[item.Status]++
	}
	sum.VarianceCents = sum.TotalCents - sum.AllowanceCents
	return sum
}

type CreateSelectionRequest struct {
	Category       string
	Name           string
	Vendor         string
	Quantity       *float64
	UnitPriceCents int64
	AllowanceCents int64
	Notes          string
	DueDate        *platform.Date
}

type UpdateSelectionRequest struct {
	Category       *string
	Name           *string
	Vendor         *string
	Quantity       *float64
	UnitPriceCents *int64
	AllowanceCents *int64
	Notes          *string
	DueDate        *platform.Date
	Reason         string
}

type OptionRequest struct {
	Name           *string
	Vendor         *string
	Description    *string
	UnitPriceCents *int64
	Recommended    *bool
	SortOrder      *int
}

type ListFilter struct {
	Category string
	Status   string
}

// Deadline is an open selection with a due date, as shown on a calendar.
type Deadline struct {
	SelectionID string        `json:"selection_id"`
	ProjectID   string        `json:"project_id"`
	ProjectName string        `json:"project_name"`
	Name        string        `json:"name"`
	Category    string        `json:"category"`
	Status      string        `json:"status"`
	DueDate     platform.Date `json:"due_date"`
}
