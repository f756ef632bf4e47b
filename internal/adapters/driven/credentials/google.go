package credentials

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/unical-cli/internal/core/ports/driven"
)

// Ensure GoogleStore implements the interface.
var _ driven.CredentialStore = (*GoogleStore)(nil)

// tokenFile is the artifact name inside each account's directory.
const tokenFile = "token.json"

// GoogleStore persists OAuth tokens for the google provider. One
// directory per account id, so removing the directory removes
// everything the account ever stored.
type GoogleStore struct {
	dir string
}

// NewGoogleStore creates a store rooted at dir.
func NewGoogleStore(dir string) *GoogleStore {
	return &GoogleStore{dir: dir}
}

// Save stores the token artifact for the account.
func (s *GoogleStore) Save(_ context.Context, accountID string, artifact []byte) error {
	accountDir := filepath.Join(s.dir, accountID)
	if err := os.MkdirAll(accountDir, 0700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(accountDir, tokenFile), artifact, 0600)
}

// Exists reports whether a usable cached token is present: valid, or
// refreshable via a stored refresh token. Offline check only.
func (s *GoogleStore) Exists(_ context.Context, accountID string) (bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, accountID, tokenFile))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return false, nil
	}
	return token.RefreshToken != "" || token.Valid(), nil
}

// Clear removes the account's credential directory. Idempotent.
func (s *GoogleStore) Clear(_ context.Context, accountID string) error {
	return os.RemoveAll(filepath.Join(s.dir, accountID))
}
