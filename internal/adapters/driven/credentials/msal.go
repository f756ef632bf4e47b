package credentials

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/unical-cli/internal/core/ports/driven"
)

// Ensure MSALStore implements the interface.
var _ driven.CredentialStore = (*MSALStore)(nil)

// MSALStore persists token cache artifacts for the Microsoft directory
// providers (microsoft365, outlook). One cache file per account id.
type MSALStore struct {
	dir string
}

// NewMSALStore creates a store rooted at dir.
func NewMSALStore(dir string) *MSALStore {
	return &MSALStore{dir: dir}
}

// msalArtifact is the cache record this family writes: the acquired
// access token and its expiry. The format is owned by this package;
// nothing outside reads it.
type msalArtifact struct {
	AccessToken string    `json:"access_token"`
	ExpiresOn   time.Time `json:"expires_on"`
}

// EncodeMSALArtifact builds the artifact the MSAL identity adapter
// hands to Save after a successful acquisition.
func EncodeMSALArtifact(accessToken string, expiresOn time.Time) ([]byte, error) {
	return json.Marshal(msalArtifact{AccessToken: accessToken, ExpiresOn: expiresOn})
}

// Save stores the artifact for the account, replacing any previous one.
func (s *MSALStore) Save(_ context.Context, accountID string, artifact []byte) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return err
	}
	return os.WriteFile(s.path(accountID), artifact, 0600)
}

// Exists reports whether a usable cached token is present: token
// material on disk that has not expired. Offline check only. Refresh
// tokens never leave the identity SDK's in-memory cache, so an expired
// artifact means a fresh sign-in is needed.
func (s *MSALStore) Exists(_ context.Context, accountID string) (bool, error) {
	data, err := os.ReadFile(s.path(accountID))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	var artifact msalArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		// An unreadable cache is as good as no cache.
		return false, nil
	}
	return artifact.AccessToken != "" && artifact.ExpiresOn.After(time.Now()), nil
}

// Clear deletes the account's cache file. Idempotent.
func (s *MSALStore) Clear(_ context.Context, accountID string) error {
	err := os.Remove(s.path(accountID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *MSALStore) path(accountID string) string {
	return filepath.Join(s.dir, accountID+".json")
}
