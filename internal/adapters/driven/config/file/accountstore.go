package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/unical-cli/internal/core/domain"
	"github.com/custodia-labs/unical-cli/internal/core/ports/driven"
)

// Ensure AccountStore implements the interface.
var _ driven.AccountStore = (*AccountStore)(nil)

// accountsKey is the canonical document section holding the account
// list. legacyAccountsKey is the casing written by older tool versions;
// reads tolerate it, writes normalize it away.
const (
	accountsKey       = "accounts"
	legacyAccountsKey = "Accounts"
)

// AccountStore is a file-based implementation of driven.AccountStore
// using TOML. The configuration document is shared with unrelated
// settings and is hand-editable, so every operation - reads included -
// takes the store lock and re-reads the file before acting. Unknown
// top-level sections are carried through every write untouched; only
// the accounts section is ever replaced.
//
// Atomicity is guaranteed within this process only. Multi-process
// coordination is a known limitation.
type AccountStore struct {
	mu       sync.Mutex
	filePath string
}

// NewAccountStore creates a TOML-based account store.
// If configDir is empty, defaults to ~/.unical/config.toml.
func NewAccountStore(configDir string) (*AccountStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".unical")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &AccountStore{
		filePath: filepath.Join(configDir, "config.toml"),
	}, nil
}

// Path returns the configuration file path.
func (s *AccountStore) Path() string {
	return s.filePath
}

// List returns all accounts in document order.
func (s *AccountStore) List(_ context.Context) ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return decodeAccounts(doc), nil
}

// Get retrieves an account by id.
func (s *AccountStore) Get(_ context.Context, id string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, account := range decodeAccounts(doc) {
		if account.ID == id {
			return &account, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Add appends a new account. The document is left unchanged on conflict.
func (s *AccountStore) Add(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	accounts := decodeAccounts(doc)
	for i := range accounts {
		if accounts[i].ID == account.ID {
			return domain.ErrAlreadyExists
		}
	}
	accounts = append(accounts, account)
	return s.save(doc, accounts)
}

// Update replaces the account with the same id. The document is left
// unchanged when the id is missing.
func (s *AccountStore) Update(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	accounts := decodeAccounts(doc)
	for i := range accounts {
		if accounts[i].ID == account.ID {
			accounts[i] = account
			return s.save(doc, accounts)
		}
	}
	return domain.ErrNotFound
}

// Remove deletes the account by id. The document is left unchanged when
// the id is missing.
func (s *AccountStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	accounts := decodeAccounts(doc)
	for i := range accounts {
		if accounts[i].ID == id {
			accounts = append(accounts[:i], accounts[i+1:]...)
			return s.save(doc, accounts)
		}
	}
	return domain.ErrNotFound
}

// Exists reports whether an account with the id is configured.
func (s *AccountStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return false, err
	}
	for _, account := range decodeAccounts(doc) {
		if account.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// load reads the whole document. A missing file is an empty document;
// the accounts section is scaffolded on the next write, never raised as
// an error. Caller must hold the lock.
func (s *AccountStore) load() (map[string]any, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]any), nil
		}
		return nil, err
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = make(map[string]any)
	}
	return doc, nil
}

// save writes the document back, replacing only the accounts section
// and normalizing its key to canonical casing. Caller must hold the lock.
func (s *AccountStore) save(doc map[string]any, accounts []domain.Account) error {
	encoded := make([]map[string]any, 0, len(accounts))
	for i := range accounts {
		encoded = append(encoded, encodeAccount(&accounts[i]))
	}
	delete(doc, legacyAccountsKey)
	doc[accountsKey] = encoded

	data, err := toml.Marshal(doc)
	if err != nil {
		return err
	}

	// Write with restricted permissions
	return os.WriteFile(s.filePath, data, 0600)
}
