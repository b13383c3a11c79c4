package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/corebuild/corebuild-backend/internal/dashboard/domain"
	"github.com/corebuild/corebuild-backend/internal/logging"
	"github.com/corebuild/corebuild-backend/internal/platform"
)

type Repository interface {
	Load(ctx context.Context, companyID string, today platform.Date) (*domain.Summary, error)
}

type Cache interface {
	Get(ctx context.Context, companyID string) (*domain.Summary, error)
	Set(ctx context.Context, companyID string, s *domain.Summary) error
}

type DashboardService struct {
	repo  Repository
	cache Cache
	now   func() time.Time
}

func NewDashboardService(repo Repository, cache Cache) *DashboardService {
	return &DashboardService{repo: repo, cache: cache, now: time.Now}
}

// Summary serves from cache when it can. Cache failures fall through to the
// database and are only logged.
func (s *DashboardService) Summary(ctx context.Context, companyID string) (*domain.Summary, error) {
	log := logging.FromContext(ctx)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, companyID)
		if err != nil {
			log.Warn("dashboard cache read failed", zap.Error(err))
		}
		if cached != nil {
			return cached, nil
		}
	}

	now := s.now()
	// Overdue follows the server's calendar day, as invoices do.
	sum, err := s.repo.Load(ctx, companyID, platform.DateOf(now))
	if err != nil {
		return nil, err
	}
	sum.GeneratedAt = now.UTC()

	if s.cache != nil {
		if err := s.cache.Set(ctx, companyID, sum); err != nil {
			log.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return sum, nil
}
