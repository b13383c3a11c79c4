package quickbooks

import (
	"context"
	"errors"
	"net/http"

	"github.com/corebuild/corebuild-backend/internal/integrations/domain"
	invoicedomain "github.com/corebuild/corebuild-backend/internal/invoices/domain"
)

// AccountSource hands out authorized clients for a company's integration.
type AccountSource interface {
	Client(ctx context.Context, companyID, provider string) (*http.Client, *domain.Integration, error)
}

// Syncer pushes invoices for any company with a connected QuickBooks account.
type Syncer struct {
	accounts AccountSource
	client   *Client
}

func NewSyncer(accounts AccountSource, client *Client) *Syncer {
	return &Syncer{accounts: accounts, client: client}
}

func (s *Syncer) PushInvoice(ctx context.Context, companyID string, inv *invoicedomain.Invoice, customerName string) (string, error) {
	httpClient, integ, err := s.accounts.Client(ctx, companyID, domain.ProviderQuickBooks)
	if errors.Is(err, domain.ErrIntegrationNotFound) {
		return "", domain.ErrNotConnected
	}
	if err != nil {
		return "", err
	}

	return s.client.PushInvoice(ctx, Account{
		HTTP:    httpClient,
		RealmID: integ.ExternalAccountID,
		ItemID:  integ.Setting(domain.SettingItemID),
	}, inv, customerName)
}
