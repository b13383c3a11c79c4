package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/corebuild/corebuild-backend/internal/dashboard/domain"
)

const cacheKeyPrefix = "dashboard:summary:"

// SummaryCache keeps computed summaries in Redis for a short TTL.
type SummaryCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewSummaryCache(client redis.UniversalClient, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

// Get reports a miss as (nil, nil).
func (c *SummaryCache) Get(ctx context.Context, companyID string) (*domain.Summary, error) {
	raw, err := c.client.Get(ctx, cacheKeyPrefix+companyID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dashboard cache: %w", err)
	}

	var s domain.Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode dashboard cache: %w", err)
	}
	return &s, nil
}

func (c *SummaryCache) Set(ctx context.Context, companyID string, s *domain.Summary) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+companyID, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write dashboard cache: %w", err)
	}
	return nil
}
