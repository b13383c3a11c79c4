package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/corebuild/corebuild-backend/internal/dashboard/domain"
	"github.com/corebuild/corebuild-backend/internal/platform"
)

// Querier is satisfied by *pgxpool.Pool.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type SummaryRepository struct {
	db Querier
}

func NewSummaryRepository(db Querier) *SummaryRepository {
	return &SummaryRepository{db: db}
}

const summaryQuery = `
select
  coalesce((
    select jsonb_object_agg(status, n)
    from (
      select status, count(*) as n
      from projects
      where company_id = $1 and deleted_at is null
      group by status
    ) p
  ), '{}'::jsonb),
  (select count(*) from leads
    where company_id = $1 and deleted_at is null and status not in ('won', 'lost')),
  (select coalesce(sum(estimated_value_cents), 0) from leads
    where company_id = $1 and deleted_at is null and status not in ('won', 'lost')),
  (select coalesce(sum(total_cents - amount_paid_cents), 0) from invoices
    where company_id = $1 and status in ('sent', 'partially_paid')),
  (select count(*) from invoices
    where company_id = $1 and status in ('sent', 'partially_paid') and due_date < $2::date),
  (select count(*) from change_orders
    where company_id = $1 and status = 'pending_approval'),
  (select coalesce(sum(amount_cents), 0) from change_orders
    where company_id = $1 and status = 'pending_approval')
`

// Load computes the summary in one round trip. today decides which invoices
// are overdue.
func (r *SummaryRepository) Load(ctx context.Context, companyID string, today platform.Date) (*domain.Summary, error) {
	s := &domain.Summary{ProjectsByStatus: map[string]int{}}
	err := r.db.QueryRow(ctx, summaryQuery, companyID, today.String()).Scan(
		&s.ProjectsByStatus,
		&s.OpenLeads,
		&s.PipelineValueCents,
		&s.OutstandingCents,
		&s.OverdueInvoices,
		&s.PendingChangeOrders,
		&s.PendingChangeOrderCents,
	)
	if err != nil {
		return nil, fmt.Errorf("load dashboard summary: %w", err)
	}
	return s, nil
}
