package domain

import (
	"time"

	"golang.org/x/oauth2"
)

const (
	ProviderGoogle     = "google"
	ProviderQuickBooks = "quickbooks"
)

var Providers = []string{ProviderGoogle, ProviderQuickBooks}

func ValidProvider(p string) bool {
	return p == ProviderGoogle || p == ProviderQuickBooks
}

const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusError        = "error"
)

// Settings keys.
const (
	SettingBackupFolderID = "backup_folder_id"
	SettingItemID         = "item_id"
)

// Integration is a company's OAuth connection to one provider. Tokens never
// leave the server.
type Integration struct {
	ID                string            `json:"id"`
	CompanyID         string            `json:"company_id"`
	Provider          string            `json:"provider"`
	Status            string            `json:"status"`
	AccessToken       string            `json:"-"`
	RefreshToken      string            `json:"-"`
	TokenType         string            `json:"-"`
	Expiry            *time.Time        `json:"expiry,omitempty"`
	Scopes            []string          `json:"scopes"`
	ExternalAccountID string            `json:"external_account_id"`
	Settings          map[string]string `json:"settings"`
	LastSyncedAt      *time.Time        `json:"last_synced_at,omitempty"`
	LastError         string            `json:"last_error"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func (i *Integration) Connected() bool {
	return i.Status == StatusConnected && i.RefreshToken != ""
}

func (i *Integration) Token() *oauth2.Token {
	t := &oauth2.Token{
		AccessToken:  i.AccessToken,
		RefreshToken: i.RefreshToken,
		TokenType:    i.TokenType,
	}
	if i.Expiry != nil {
		t.Expiry = *i.Expiry
	}
	return t
}

// SetToken copies t onto the integration. A refresh that omits the refresh
// token keeps the stored one.
func (i *Integration) SetToken(t *oauth2.Token) {
	i.AccessToken = t.AccessToken
	if t.RefreshToken != "" {
		i.RefreshToken = t.RefreshToken
	}
	i.TokenType = t.TokenType
	i.Expiry = nil
	if !t.Expiry.IsZero() {
		exp := t.Expiry
		i.Expiry = &exp
	}
}

func (i *Integration) Setting(key string) string {
	if i.Settings == nil {
		return ""
	}
	return i.Settings[key]
}

// OAuthState binds an authorization request to the tenant that started it.
type OAuthState struct {
	Nonce     string    `json:"nonce"`
	CompanyID string    `json:"company_id"`
	UserID    string    `json:"user_id"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}

// StateTTL bounds how long a user has to finish the provider consent screen.
const StateTTL = 10 * time.Minute
