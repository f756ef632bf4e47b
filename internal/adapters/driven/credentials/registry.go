package credentials

import (
	"context"

	"github.com/custodia-labs/unical-cli/internal/core/domain"
	"github.com/custodia-labs/unical-cli/internal/core/ports/driven"
	"github.com/custodia-labs/unical-cli/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.CredentialBroker = (*Registry)(nil)

// Registry dispatches credential operations to the provider family's
// store. Feeds and file accounts never hold credentials of their own.
type Registry struct {
	msal   driven.CredentialStore
	google driven.CredentialStore
}

// NewRegistry creates a broker over the family stores.
func NewRegistry(msal, google driven.CredentialStore) *Registry {
	return &Registry{msal: msal, google: google}
}

// For returns the store owning the provider's credentials.
func (r *Registry) For(provider domain.Provider) (driven.CredentialStore, bool) {
	switch provider {
	case domain.ProviderMicrosoft365, domain.ProviderOutlook:
		return r.msal, r.msal != nil
	case domain.ProviderGoogle:
		return r.google, r.google != nil
	case domain.ProviderICS, domain.ProviderJSON:
		return nil, false
	}
	return nil, false
}

// Exists reports whether the account has a usable cached credential.
func (r *Registry) Exists(ctx context.Context, account *domain.Account) (bool, error) {
	store, ok := r.For(account.Provider)
	if !ok {
		return false, nil
	}
	return store.Exists(ctx, account.ID)
}

// Clear best-effort deletes the account's credentials. Failures are
// logged and swallowed: a stray leftover secret is recoverable later, a
// blocked account removal is not.
func (r *Registry) Clear(ctx context.Context, account *domain.Account) {
	store, ok := r.For(account.Provider)
	if !ok {
		return
	}
	if err := store.Clear(ctx, account.ID); err != nil {
		logger.Warn("failed to clear credentials for %s: %v", account.ID, err)
	}
}
