package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/corebuild/corebuild-backend/internal/integrations/domain"
	"github.com/corebuild/corebuild-backend/internal/logging"
)

// TokenSaver persists a refreshed token.
type TokenSaver interface {
	SaveToken(ctx context.Context, i *domain.Integration) error
}

// persistingSource wraps a refreshing token source and writes every new
// access token back to storage.
type persistingSource struct {
	ctx   context.Context
	base  oauth2.TokenSource
	saver TokenSaver

	mu          sync.Mutex
	integration domain.Integration
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken == s.integration.AccessToken {
		return tok, nil
	}

	s.integration.SetToken(tok)
	if err := s.saver.SaveToken(s.ctx, &s.integration); err != nil {
		// The token is still usable for this call.
		logging.FromContext(s.ctx).Warn("persist refreshed token",
			zap.String("company_id", s.integration.CompanyID),
			zap.String("provider", s.integration.Provider),
			zap.Error(err),
		)
	}
	return tok, nil
}

func newPersistingSource(ctx context.Context, cfg *oauth2.Config, i domain.Integration, saver TokenSaver) oauth2.TokenSource {
	tok := i.Token()
	src := &persistingSource{
		ctx:         ctx,
		base:        cfg.TokenSource(ctx, tok),
		saver:       saver,
		integration: i,
	}
	return oauth2.ReuseTokenSource(tok, src)
}
