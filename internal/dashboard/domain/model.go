package domain

import "time"

// Summary is the company-wide snapshot shown on the dashboard home page.
type Summary struct {
	ProjectsByStatus        map[string]int `json:"projects_by_status"`
	OpenLeads               int            `json:"open_leads"`
	PipelineValueCents      int64          `json:"pipeline_value_cents"`
	OutstandingCents        int64          `json:"outstanding_cents"`
	OverdueInvoices         int            `json:"overdue_invoices"`
	PendingChangeOrders     int            `json:"pending_change_orders"`
	PendingChangeOrderCents int64          `json:"pending_change_order_cents"`
	GeneratedAt             time.Time      `json:"generated_at"`
}

// ActiveProjects counts projects that still need attention.
func (s *Summary) ActiveProjects() int {
	return s.ProjectsByStatus["planning"] + s.ProjectsByStatus["active"] + s.ProjectsByStatus["on_hold"]
}
