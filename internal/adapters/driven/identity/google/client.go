// Package google acquires tokens for the google provider via the OAuth
// device authorization grant and, for setup tooling, a local-callback
// browser flow.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/unical-cli/internal/core/domain"
	"github.com/custodia-labs/unical-cli/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.IdentityClient = (*Client)(nil)

// Google OAuth endpoints. Hardcoded rather than pulled from the Google
// API SDK; this module only speaks to the identity endpoints.
const (
	authURL       = "https://accounts.google.com/o/oauth2/auth"
	tokenURL      = "https://oauth2.googleapis.com/token"
	deviceAuthURL = "https://oauth2.googleapis.com/device/code"
)

// callbackTimeout bounds how long an interactive sign-in waits for the
// browser redirect.
const callbackTimeout = 5 * time.Minute

// Client drives Google sign-in flows. On success the token is persisted
// through the google credential store; token material never reaches the
// caller.
type Client struct {
	store driven.CredentialStore
}

// New creates an identity client persisting into store.
func New(store driven.CredentialStore) *Client {
	return &Client{store: store}
}

// AcquireByDeviceCode runs the device authorization grant. Per the
// identity-client contract the prompt receives a single human-readable
// sentence; the orchestrator recovers the code and URL from it.
func (c *Client) AcquireByDeviceCode(ctx context.Context, account *domain.Account, scopes []string, prompt driven.DevicePromptFunc) error {
	cfg := c.oauthConfig(account, scopes, "")

	resp, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return fmt.Errorf("requesting device code: %w", err)
	}

	message := fmt.Sprintf("To sign in, use a web browser to open the page %s and enter the code %s to authenticate.",
		resp.VerificationURI, resp.UserCode)
	if err := prompt(ctx, message); err != nil {
		return err
	}

	token, err := cfg.DeviceAccessToken(ctx, resp)
	if err != nil {
		return fmt.Errorf("device token exchange: %w", err)
	}
	return c.persist(ctx, account.ID, token)
}

// AcquireInteractive runs a blocking browser sign-in against a local
// callback server, with PKCE.
func (c *Client) AcquireInteractive(ctx context.Context, account *domain.Account, scopes []string) error {
	state, err := randomState()
	if err != nil {
		return err
	}

	server := newCallbackServer(0, state)
	if err := server.Start(); err != nil {
		return err
	}
	defer server.Stop() //nolint:errcheck // shutdown best effort

	cfg := c.oauthConfig(account, scopes, server.RedirectURI())
	verifier := oauth2.GenerateVerifier()
	url := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

	if err := openBrowser(url); err != nil {
		// Headless host: the operator can open the URL manually.
		fmt.Printf("Open this URL to sign in:\n%s\n", url)
	}

	code, err := server.WaitForCode(ctx, callbackTimeout)
	if err != nil {
		return err
	}

	token, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return fmt.Errorf("code exchange: %w", err)
	}
	return c.persist(ctx, account.ID, token)
}

func (c *Client) oauthConfig(account *domain.Account, scopes []string, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     account.ConfigValue(domain.ConfigKeyClientID),
		ClientSecret: account.ConfigValue(domain.ConfigKeyClientSecret),
		Endpoint: oauth2.Endpoint{
			AuthURL:       authURL,
			TokenURL:      tokenURL,
			DeviceAuthURL: deviceAuthURL,
		},
		Scopes:      scopes,
		RedirectURL: redirectURI,
	}
}

func (c *Client) persist(ctx context.Context, accountID string, token *oauth2.Token) error {
	artifact, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return c.store.Save(ctx, accountID, artifact)
}
