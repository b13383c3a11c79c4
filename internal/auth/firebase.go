package auth

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/corebuild/corebuild-backend/config"
)

var errNoCredentials = errors.New("firebase: FIREBASE_CREDENTIALS_PATH is not set")

// Verifier checks the Firebase ID tokens sent by the web and mobile apps.
type Verifier struct {
	client       *fbauth.Client
	checkRevoked bool
}

// NewVerifier opens the Admin SDK with the service account at
// cfg.CredentialsPath.
func NewVerifier(ctx context.Context, cfg *config.FirebaseConfig) (*Verifier, error) {
	if cfg.CredentialsPath == "" {
		return nil, errNoCredentials
	}

	var appCfg *firebase.Config
	if cfg.ProjectID != "" {
		appCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	app, err := firebase.NewApp(ctx, appCfg, option.WithCredentialsFile(cfg.CredentialsPath))
	if err != nil {
		return nil, fmt.Errorf("firebase: open app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: auth client: %w", err)
	}
	return &Verifier{client: client, checkRevoked: cfg.CheckRevoked}, nil
}

// VerifyIDToken rejects revoked sessions too when revocation checks are on.
// That costs a round trip to Firebase per request.
func (v *Verifier) VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error) {
	if v.checkRevoked {
		return v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	}
	return v.client.VerifyIDToken(ctx, idToken)
}
