package driving

import (
	"context"

	"github.com/custodia-labs/unical-cli/internal/core/domain"
)

// AccountService manages account configurations. All mutations are
// validated before they reach the store.
type AccountService interface {
	// Add creates a new account. Returns domain.ErrInvalidInput or
	// domain.ErrUnknownProvider on validation failure,
	// domain.ErrAlreadyExists on a duplicate id.
	Add(ctx context.Context, account domain.Account) error

	// Get retrieves an account by id.
	Get(ctx context.Context, id string) (*domain.Account, error)

	// List returns all configured accounts in document order.
	List(ctx context.Context) ([]domain.Account, error)

	// Update modifies an existing account. The provider is immutable;
	// attempts to change it fail with domain.ErrProviderImmutable.
	Update(ctx context.Context, account domain.Account) error

	// Remove deletes an account. With clearCredentials, the account's
	// stored credentials are best-effort deleted as well; credential
	// deletion failures never fail the removal.
	Remove(ctx context.Context, id string, clearCredentials bool) error

	// Logout clears the account's stored credentials without removing
	// the record.
	Logout(ctx context.Context, id string) error

	// Authenticated reports whether a usable cached credential exists
	// for the account. Offline check only.
	Authenticated(ctx context.Context, account *domain.Account) bool

	// RequiresAuth resolves whether the account needs its own sign-in,
	// following the delegate reference if present. A delegate that is
	// missing or cannot hold credentials counts as "auth required".
	RequiresAuth(ctx context.Context, account *domain.Account) bool
}
