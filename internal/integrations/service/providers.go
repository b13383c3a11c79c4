package service

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/drive/v3"

	"github.com/corebuild/corebuild-backend/config"
	"github.com/corebuild/corebuild-backend/internal/integrations/domain"
)

// QuickBooksEndpoint is Intuit's OAuth 2.0 endpoint.
var QuickBooksEndpoint = oauth2.Endpoint{
	AuthURL:   "https://appcenter.intuit.com/connect/oauth2",
	TokenURL:  "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer",
	AuthStyle: oauth2.AuthStyleInHeader,
}

const QuickBooksAccountingScope = "com.intuit.quickbooks.accounting"

// Providers holds the OAuth client of each configured provider.
type Providers map[string]*oauth2.Config

// NewProviders builds OAuth clients for every provider with credentials.
func NewProviders(cfg *config.Config) Providers {
	p := Providers{}
	if cfg.Google.ClientID != "" {
		p[domain.ProviderGoogle] = &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{drive.DriveFileScope, calendar.CalendarEventsScope},
		}
	}
	if cfg.QuickBooks.ClientID != "" {
		p[domain.ProviderQuickBooks] = &oauth2.Config{
			ClientID:     cfg.QuickBooks.ClientID,
			ClientSecret: cfg.QuickBooks.ClientSecret,
			RedirectURL:  cfg.QuickBooks.RedirectURL,
			Endpoint:     QuickBooksEndpoint,
			Scopes:       []string{QuickBooksAccountingScope},
		}
	}
	return p
}

func (p Providers) config(provider string) (*oauth2.Config, error) {
	if !domain.ValidProvider(provider) {
		return nil, domain.ErrUnknownProvider
	}
	cfg, ok := p[provider]
	if !ok {
		return nil, domain.ErrNotConfigured
	}
	return cfg, nil
}
