package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/corebuild/corebuild-backend/internal/integrations/domain"
)

const stateKeyPrefix = "oauth:state:" // oauth:state:{nonce}

// StateStore keeps pending OAuth states in Redis until the callback consumes them.
type StateStore struct {
	client redis.UniversalClient
}

func NewStateStore(client redis.UniversalClient) *StateStore {
	return &StateStore{client: client}
}

func (s *StateStore) Save(ctx context.Context, st domain.OAuthState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal oauth state: %w", err)
	}
	if err := s.client.Set(ctx, stateKeyPrefix+st.Nonce, data, domain.StateTTL).Err(); err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

// Consume returns the state and deletes it, so a nonce is good for one callback.
func (s *StateStore) Consume(ctx context.Context, nonce string) (*domain.OAuthState, error) {
	data, err := s.client.GetDel(ctx, stateKeyPrefix+nonce).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrInvalidState
	}
	if err != nil {
		return nil, fmt.Errorf("load oauth state: %w", err)
	}

	var st domain.OAuthState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unmarshal oauth state: %w", err)
	}
	return &st, nil
}
