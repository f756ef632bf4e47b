package driven

import (
	"context"

	"github.com/custodia-labs/unical-cli/internal/core/domain"
)

// CredentialStore persists opaque secret material for one provider
// family, keyed by account id. The rest of the system only ever sees
// existence; token contents never cross this interface outward.
type CredentialStore interface {
	// Save stores the credential artifact for the account, replacing
	// any previous artifact.
	Save(ctx context.Context, accountID string, artifact []byte) error

	// Exists reports whether a usable cached credential is present:
	// unexpired, or silently refreshable. Offline check only - no
	// network validation.
	Exists(ctx context.Context, accountID string) (bool, error)

	// Clear deletes the account's credential artifact. Idempotent;
	// absence is not an error.
	Clear(ctx context.Context, accountID string) error
}

// CredentialBroker dispatches credential operations to the right
// provider family's store. Clear failures are logged by the broker and
// never escalated - a stray leftover secret is recoverable later, a
// blocked account removal is not.
type CredentialBroker interface {
	// For returns the store owning the provider's credentials, or
	// false for providers that never hold credentials (ics, json).
	For(provider domain.Provider) (CredentialStore, bool)

	// Exists reports whether the account has a usable cached credential.
	// Always false for providers without a store.
	Exists(ctx context.Context, account *domain.Account) (bool, error)

	// Clear best-effort deletes the account's credentials. Never
	// returns an error for providers without a store.
	Clear(ctx context.Context, account *domain.Account)
}
