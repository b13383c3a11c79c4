package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/corebuild/corebuild-backend/internal/integrations/domain"
	"github.com/corebuild/corebuild-backend/internal/logging"
)

type Repository interface {
	Get(ctx context.Context, companyID, provider string) (*domain.Integration, error)
	List(ctx context.Context, companyID string) ([]domain.Integration, error)
	ListConnected(ctx context.Context, provider string) ([]domain.Integration, error)
	Upsert(ctx context.Context, i *domain.Integration) error
	SaveToken(ctx context.Context, i *domain.Integration) error
	SetSetting(ctx context.Context, companyID, provider, key, value string) error
	RecordSync(ctx context.Context, companyID, provider string, at time.Time, errMsg string) error
	Disconnect(ctx context.Context, companyID, provider string) error
}

type StateStore interface {
	Save(ctx context.Context, st domain.OAuthState) error
	Consume(ctx context.Context, nonce string) (*domain.OAuthState, error)
}

type IntegrationService struct {
	repo      Repository
	states    StateStore
	providers Providers
	now       func() time.Time
}

func NewIntegrationService(repo Repository, states StateStore, providers Providers) *IntegrationService {
	return &IntegrationService{repo: repo, states: states, providers: providers, now: time.Now}
}

// List returns one entry per provider; providers never connected show as disconnected.
func (s *IntegrationService) List(ctx context.Context, companyID string) ([]domain.Integration, error) {
	stored, err := s.repo.List(ctx, companyID)
	if err != nil {
		return nil, err
	}
	byProvider := make(map[string]domain.Integration, len(stored))
	for _, i := range stored {
		byProvider[i.Provider] = i
	}

	out := make([]domain.Integration, 0, len(domain.Providers))
	for _, p := range domain.Providers {
		i, ok := byProvider[p]
		if !ok {
			i = domain.Integration{
				CompanyID: companyID,
				Provider:  p,
				Status:    domain.StatusDisconnected,
				Scopes:    []string{},
				Settings:  map[string]string{},
			}
		}
		out = append(out, i)
	}
	return out, nil
}

// Connect starts an authorization and returns the provider consent URL.
func (s *IntegrationService) Connect(ctx context.Context, companyID, userID, provider string) (string, error) {
	cfg, err := s.providers.config(provider)
	if err != nil {
		return "", err
	}

	nonce, err := newNonce()
	if err != nil {
		return "", err
	}
	if err := s.states.Save(ctx, domain.OAuthState{
		Nonce:     nonce,
		CompanyID: companyID,
		UserID:    userID,
		Provider:  provider,
		CreatedAt: s.now().UTC(),
	}); err != nil {
		return "", err
	}

	return cfg.AuthCodeURL(nonce, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

type CallbackParams struct {
	State   string
	Code    string
	RealmID string
	Error   string
}

// Callback finishes an authorization. The state is consumed even when the
// exchange fails.
func (s *IntegrationService) Callback(ctx context.Context, provider string, p CallbackParams) (*domain.Integration, error) {
	cfg, err := s.providers.config(provider)
	if err != nil {
		return nil, err
	}
	if p.State == "" {
		return nil, domain.ErrInvalidState
	}

	st, err := s.states.Consume(ctx, p.State)
	if err != nil {
		return nil, err
	}
	if st.Provider != provider {
		return nil, domain.ErrInvalidState
	}
	if p.Error != "" {
		return nil, fmt.Errorf("%w: provider returned %s", domain.ErrAuthorizationDenied, p.Error)
	}
	if p.Code == "" {
		return nil, fmt.Errorf("%w: missing code", domain.ErrAuthorizationDenied)
	}
	if provider == domain.ProviderQuickBooks && p.RealmID == "" {
		return nil, fmt.Errorf("%w: missing realmId", domain.ErrAuthorizationDenied)
	}

	tok, err := cfg.Exchange(ctx, p.Code)
	if err != nil {
		return nil, fmt.Errorf("exchange %s code: %w", provider, err)
	}

	i := &domain.Integration{
		CompanyID:         st.CompanyID,
		Provider:          provider,
		Status:            domain.StatusConnected,
		Scopes:            cfg.Scopes,
		ExternalAccountID: p.RealmID,
		Settings:          map[string]string{},
	}
	i.SetToken(tok)
	if i.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token granted", domain.ErrAuthorizationDenied)
	}
	if err := s.repo.Upsert(ctx, i); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("integration connected",
		zap.String("company_id", st.CompanyID),
		zap.String("provider", provider),
		zap.String("user_id", st.UserID),
	)
	return i, nil
}

func (s *IntegrationService) Disconnect(ctx context.Context, companyID, provider string) error {
	if !domain.ValidProvider(provider) {
		return domain.ErrUnknownProvider
	}
	return s.repo.Disconnect(ctx, companyID, provider)
}

// Client returns an HTTP client authorized for the company's provider account.
// Refreshed tokens are saved as they are issued.
func (s *IntegrationService) Client(ctx context.Context, companyID, provider string) (*http.Client, *domain.Integration, error) {
	cfg, err := s.providers.config(provider)
	if err != nil {
		return nil, nil, err
	}
	i, err := s.repo.Get(ctx, companyID, provider)
	if err != nil {
		return nil, nil, err
	}
	if !i.Connected() {
		return nil, nil, domain.ErrNotConnected
	}

	ts := newPersistingSource(ctx, cfg, *i, s.repo)
	return oauth2.NewClient(ctx, ts), i, nil
}

// Connected lists the connected integrations of provider across companies.
func (s *IntegrationService) Connected(ctx context.Context, provider string) ([]domain.Integration, error) {
	if _, err := s.providers.config(provider); err != nil {
		return nil, err
	}
	return s.repo.ListConnected(ctx, provider)
}

func (s *IntegrationService) SetSetting(ctx context.Context, companyID, provider, key, value string) error {
	return s.repo.SetSetting(ctx, companyID, provider, key, value)
}

// RecordSync stamps the outcome of a sync run. A nil syncErr clears the last error.
func (s *IntegrationService) RecordSync(ctx context.Context, companyID, provider string, syncErr error) error {
	msg := ""
	if syncErr != nil {
		msg = syncErr.Error()
	}
	return s.repo.RecordSync(ctx, companyID, provider, s.now().UTC(), msg)
}

func newNonce() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
