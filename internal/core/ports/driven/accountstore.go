package driven

import (
	"context"

	"github.com/custodia-labs/unical-cli/internal/core/domain"
)

// AccountStore persists account configuration records.
//
// Implementations must serialize every operation - reads included -
// behind a single process-wide lock and perform a full
// read-modify-write pass per call, so concurrent callers never observe
// a partially written document and concurrent writers never lose each
// other's update. Consistency is guaranteed within one process only.
type AccountStore interface {
	// List returns all accounts in document order.
	List(ctx context.Context) ([]domain.Account, error)

	// Get retrieves an account by id. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Account, error)

	// Add appends a new account. Returns domain.ErrAlreadyExists if the
	// id is taken; the document is left unchanged.
	Add(ctx context.Context, account domain.Account) error

	// Update replaces the account with the same id. Returns
	// domain.ErrNotFound if absent; the document is left unchanged.
	Update(ctx context.Context, account domain.Account) error

	// Remove deletes the account by id. Returns domain.ErrNotFound if
	// absent; the document is left unchanged.
	Remove(ctx context.Context, id string) error

	// Exists reports whether an account with the id is configured.
	Exists(ctx context.Context, id string) (bool, error)
}
