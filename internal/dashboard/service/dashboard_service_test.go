package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebuild/corebuild-backend/internal/dashboard/domain"
	"github.com/corebuild/corebuild-backend/internal/dashboard/repository"
	"github.com/corebuild/corebuild-backend/internal/platform"
)

type countingRepo struct {
	calls int
	err   error
	today platform.Date
}

func (r *countingRepo) Load(_ context.Context, companyID string, today platform.Date) (*domain.Summary, error) {
	r.calls++
	r.today = today
	if r.err != nil {
		return nil, r.err
	}
	return &domain.Summary{ProjectsByStatus: map[string]int{"active": r.calls}, OpenLeads: len(companyID)}, nil
}

func newService(t *testing.T, repo Repository) (*DashboardService, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	svc := NewDashboardService(repo, repository.NewSummaryCache(client, 60*time.Second))
	svc.now = func() time.Time { return time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC) }
	return svc, mr
}

func TestSummary_CachesPerCompany(t *testing.T) {
	repo := &countingRepo{}
	svc, mr := newService(t, repo)
	ctx := context.Background()

	first, err := svc.Summary(ctx, "co-1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.ProjectsByStatus["active"])
	assert.Equal(t, svc.now(), first.GeneratedAt)

	again, err := svc.Summary(ctx, "co-1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.ProjectsByStatus["active"])
	assert.Equal(t, 1, repo.calls)

	_, err = svc.Summary(ctx, "co-2")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)

	mr.FastForward(61 * time.Second)
	fresh, err := svc.Summary(ctx, "co-1")
	require.NoError(t, err)
	assert.Equal(t, 3, fresh.ProjectsByStatus["active"])
}

func TestSummary_RedisDownFallsBackToDatabase(t *testing.T) {
	repo := &countingRepo{}
	svc, mr := newService(t, repo)
	mr.Close()

	s, err := svc.Summary(context.Background(), "co-1")
	require.NoError(t, err)
	assert.NotNil(t, s)
	assert.Equal(t, 1, repo.calls)
}

func TestSummary_DatabaseError(t *testing.T) {
	svc, _ := newService(t, &countingRepo{err: errors.New("db down")})
	_, err := svc.Summary(context.Background(), "co-1")
	assert.Error(t, err)
}

func TestSummary_NoCache(t *testing.T) {
	repo := &countingRepo{}
	svc := NewDashboardService(repo, nil)
	_, err := svc.Summary(context.Background(), "co-1")
	require.NoError(t, err)
	_, err = svc.Summary(context.Background(), "co-1")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestSummary_OverdueUsesLocalDay(t *testing.T) {
	repo := &countingRepo{}
	svc := NewDashboardService(repo, nil)
	// 23:30 on May 6 in UTC-5 is already May 7 in UTC.
	local := time.FixedZone("UTC-5", -5*60*60)
	svc.now = func() time.Time { return time.Date(2024, 5, 6, 23, 30, 0, 0, local) }

	sum, err := svc.Summary(context.Background(), "co-1")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-06", repo.today.String())
	assert.Equal(t, time.UTC, sum.GeneratedAt.Location())
}
