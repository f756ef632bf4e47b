package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/unical-cli/internal/core/domain"
	"github.com/custodia-labs/unical-cli/internal/core/ports/driven"
	"github.com/custodia-labs/unical-cli/internal/core/ports/driving"
	"github.com/custodia-labs/unical-cli/internal/logger"
)

// Ensure AccountService implements the interface.
var _ driving.AccountService = (*AccountService)(nil)

// AccountService manages account configurations. Validation runs here,
// before any store mutation; the store itself never validates.
type AccountService struct {
	store       driven.AccountStore
	credentials driven.CredentialBroker
}

// NewAccountService creates a new account service.
func NewAccountService(store driven.AccountStore, credentials driven.CredentialBroker) *AccountService {
	return &AccountService{
		store:       store,
		credentials: credentials,
	}
}

// Add creates a new account configuration.
func (s *AccountService) Add(ctx context.Context, account domain.Account) error {
	if err := s.validate(&account); err != nil {
		return err
	}
	return s.store.Add(ctx, account)
}

// Get retrieves an account by id.
func (s *AccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	return s.store.Get(ctx, id)
}

// List returns all configured accounts in document order.
func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	return s.store.List(ctx)
}

// Update modifies an existing account. The provider is immutable.
func (s *AccountService) Update(ctx context.Context, account domain.Account) error {
	existing, err := s.store.Get(ctx, account.ID)
	if err != nil {
		return err
	}
	if account.Provider != "" && account.Provider != existing.Provider {
		return fmt.Errorf("%w: account %q is %q", domain.ErrProviderImmutable, account.ID, existing.Provider)
	}
	account.Provider = existing.Provider
	if err := s.validate(&account); err != nil {
		return err
	}
	return s.store.Update(ctx, account)
}

// Remove deletes an account. With clearCredentials, stored credentials
// are best-effort deleted as well; a failed credential deletion never
// blocks the removal.
func (s *AccountService) Remove(ctx context.Context, id string, clearCredentials bool) error {
	account, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Remove(ctx, id); err != nil {
		return err
	}
	if clearCredentials && s.credentials != nil {
		s.credentials.Clear(ctx, account)
	}
	return nil
}

// Logout clears the account's stored credentials without removing the record.
func (s *AccountService) Logout(ctx context.Context, id string) error {
	account, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if s.credentials != nil {
		s.credentials.Clear(ctx, account)
	}
	return nil
}

// Authenticated reports whether a usable cached credential exists for
// the account. Offline check only, so listing stays cheap.
func (s *AccountService) Authenticated(ctx context.Context, account *domain.Account) bool {
	if s.credentials == nil {
		return false
	}
	ok, err := s.credentials.Exists(ctx, account)
	if err != nil {
		logger.Warn("credential check for %s failed: %v", account.ID, err)
		return false
	}
	return ok
}

// RequiresAuth resolves whether the account needs its own sign-in.
// A delegate reference only satisfies the requirement when it resolves
// to an existing account that can hold credentials itself; anything
// else falls back to "auth required", never silently skipped.
func (s *AccountService) RequiresAuth(ctx context.Context, account *domain.Account) bool {
	if domain.RequiresAuth(account) {
		return true
	}
	delegateID := domain.AuthDelegate(account)
	if delegateID == "" {
		return false
	}
	delegate, err := s.store.Get(ctx, delegateID)
	if err != nil {
		logger.Warn("account %s delegates auth to missing account %q", account.ID, delegateID)
		return true
	}
	// Only directory accounts can satisfy a OneDrive delegate. Anything
	// else (a feed, another file account) would chain or cycle; treat
	// as unresolved.
	if !delegate.Provider.IsDirectory() {
		logger.Warn("account %s delegates auth to %q (%s), which cannot serve OneDrive credentials",
			account.ID, delegateID, delegate.Provider)
		return true
	}
	return false
}

// validate runs the pure domain rules over a mutation candidate.
func (s *AccountService) validate(account *domain.Account) error {
	if err := domain.ValidateID(account.ID); err != nil {
		return err
	}
	provider, err := domain.ParseProvider(string(account.Provider))
	if err != nil {
		return err
	}
	account.Provider = provider
	return domain.ValidateConfig(provider, account.Config)
}
