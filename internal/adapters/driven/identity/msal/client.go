// Package msal acquires tokens for the Microsoft directory providers
// (microsoft365, outlook) through the Azure identity SDK.
package msal

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/custodia-labs/unical-cli/internal/adapters/driven/credentials"
	"github.com/custodia-labs/unical-cli/internal/core/domain"
	"github.com/custodia-labs/unical-cli/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.IdentityClient = (*Client)(nil)

// Client drives MSAL sign-in flows. On success the resulting cache
// artifact is persisted through the MSAL credential store; token
// material never reaches the caller.
type Client struct {
	store driven.CredentialStore
}

// New creates an identity client persisting into store.
func New(store driven.CredentialStore) *Client {
	return &Client{store: store}
}

// AcquireByDeviceCode runs the device-code grant. The SDK's prompt
// callback is forwarded as the free-text message only; the orchestrator
// recovers the code and URL from the sentence. The call blocks polling
// the token endpoint until sign-in completes, the code expires, or ctx
// is cancelled (honored between poll attempts).
func (c *Client) AcquireByDeviceCode(ctx context.Context, account *domain.Account, scopes []string, prompt driven.DevicePromptFunc) error {
	cred, err := azidentity.NewDeviceCodeCredential(&azidentity.DeviceCodeCredentialOptions{
		ClientID: account.ConfigValue(domain.ConfigKeyClientID),
		TenantID: account.ConfigValue(domain.ConfigKeyTenantID),
		UserPrompt: func(pctx context.Context, message azidentity.DeviceCodeMessage) error {
			return prompt(pctx, message.Message)
		},
	})
	if err != nil {
		return err
	}
	return c.acquire(ctx, cred, account, scopes)
}

// AcquireInteractive runs a blocking browser-based sign-in.
func (c *Client) AcquireInteractive(ctx context.Context, account *domain.Account, scopes []string) error {
	cred, err := azidentity.NewInteractiveBrowserCredential(&azidentity.InteractiveBrowserCredentialOptions{
		ClientID: account.ConfigValue(domain.ConfigKeyClientID),
		TenantID: account.ConfigValue(domain.ConfigKeyTenantID),
	})
	if err != nil {
		return err
	}
	return c.acquire(ctx, cred, account, scopes)
}

// acquire drives the credential and persists the cache artifact.
func (c *Client) acquire(ctx context.Context, cred azcore.TokenCredential, account *domain.Account, scopes []string) error {
	token, err := cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: scopes})
	if err != nil {
		return err
	}
	// The refresh token stays in the SDK's in-memory cache; only the
	// issued access token and its expiry are persisted, so the offline
	// usable-credential check never overstates what is on disk.
	artifact, err := credentials.EncodeMSALArtifact(token.Token, token.ExpiresOn)
	if err != nil {
		return err
	}
	return c.store.Save(ctx, account.ID, artifact)
}
