// Package memory provides in-memory implementations of driven port
// interfaces, used in tests and ephemeral setups.
package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/unical-cli/internal/core/domain"
	"github.com/custodia-labs/unical-cli/internal/core/ports/driven"
)

// Ensure AccountStore implements the interface.
var _ driven.AccountStore = (*AccountStore)(nil)

// AccountStore is an in-memory implementation of driven.AccountStore.
// A single mutex serializes all operations, matching the file store's
// consistency contract.
type AccountStore struct {
	mu       sync.Mutex
	accounts []domain.Account
}

// NewAccountStore creates a new in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{}
}

// List returns all accounts in insertion order.
func (s *AccountStore) List(_ context.Context) ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Account, 0, len(s.accounts))
	for i := range s.accounts {
		out = append(out, s.accounts[i].Clone())
	}
	return out, nil
}

// Get retrieves an account by id.
func (s *AccountStore) Get(_ context.Context, id string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			account := s.accounts[i].Clone()
			return &account, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Add appends a new account.
func (s *AccountStore) Add(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == account.ID {
			return domain.ErrAlreadyExists
		}
	}
	s.accounts = append(s.accounts, account.Clone())
	return nil
}

// Update replaces the account with the same id.
func (s *AccountStore) Update(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == account.ID {
			s.accounts[i] = account.Clone()
			return nil
		}
	}
	return domain.ErrNotFound
}

// Remove deletes the account by id.
func (s *AccountStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// Exists reports whether an account with the id is configured.
func (s *AccountStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			return true, nil
		}
	}
	return false, nil
}
