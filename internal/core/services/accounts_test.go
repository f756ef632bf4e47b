package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/unical-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/unical-cli/internal/core/domain"
	"github.com/custodia-labs/unical-cli/internal/core/ports/driven"
)

// fakeBroker records credential operations for assertions.
type fakeBroker struct {
	existing map[string]bool
	cleared  []string
}

var _ driven.CredentialBroker = (*fakeBroker)(nil)

func (b *fakeBroker) For(domain.Provider) (driven.CredentialStore, bool) { return nil, false }

func (b *fakeBroker) Exists(_ context.Context, account *domain.Account) (bool, error) {
	return b.existing[account.ID], nil
}

func (b *fakeBroker) Clear(_ context.Context, account *domain.Account) {
	b.cleared = append(b.cleared, account.ID)
}

func directoryAccount(id string) domain.Account {
	return domain.Account{
		ID:       id,
		Provider: domain.ProviderMicrosoft365,
		Enabled:  true,
		Config:   map[string]string{"ClientId": "abc", "TenantId": "common"},
	}
}

func TestAccountService_Add(t *testing.T) {
	svc := NewAccountService(memory.NewAccountStore(), &fakeBroker{})
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, directoryAccount("work")))

	got, err := svc.Get(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderMicrosoft365, got.Provider)
}

func TestAccountService_Add_Duplicate(t *testing.T) {
	svc := NewAccountService(memory.NewAccountStore(), &fakeBroker{})
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, directoryAccount("work")))
	err := svc.Add(ctx, directoryAccount("work"))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestAccountService_Add_Invalid(t *testing.T) {
	svc := NewAccountService(memory.NewAccountStore(), &fakeBroker{})
	ctx := context.Background()

	tests := []struct {
		name    string
		account domain.Account
		wantErr error
	}{
		{"bad id", domain.Account{ID: "Bad ID", Provider: domain.ProviderICS,
			Config: map[string]string{"IcsUrl": "https://x/y.ics"}}, domain.ErrInvalidInput},
		{"unknown provider", domain.Account{ID: "x", Provider: "exchange"}, domain.ErrUnknownProvider},
		{"missing config", domain.Account{ID: "x", Provider: domain.ProviderGoogle,
			Config: map[string]string{"ClientId": "abc"}}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Add(ctx, tt.account)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			// A rejected add leaves nothing behind.
			_, err = svc.Get(ctx, tt.account.ID)
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestAccountService_Add_NormalizesProviderCase(t *testing.T) {
	svc := NewAccountService(memory.NewAccountStore(), &fakeBroker{})
	ctx := context.Background()

	account := directoryAccount("work")
	account.Provider = "Microsoft365"
	require.NoError(t, svc.Add(ctx, account))

	got, err := svc.Get(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderMicrosoft365, got.Provider)
}

func TestAccountService_Update(t *testing.T) {
	svc := NewAccountService(memory.NewAccountStore(), &fakeBroker{})
	ctx := context.Background()
	require.NoError(t, svc.Add(ctx, directoryAccount("work")))

	updated := directoryAccount("work")
	updated.DisplayName = "Work Calendar"
	updated.Priority = 5
	require.NoError(t, svc.Update(ctx, updated))

	got, err := svc.Get(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, "Work Calendar", got.DisplayName)
	assert.Equal(t, 5, got.Priority)
}

func TestAccountService_Update_ProviderImmutable(t *testing.T) {
	svc := NewAccountService(memory.NewAccountStore(), &fakeBroker{})
	ctx := context.Background()
	require.NoError(t, svc.Add(ctx, directoryAccount("work")))

	changed := directoryAccount("work")
	changed.Provider = domain.ProviderGoogle
	err := svc.Update(ctx, changed)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderImmutable)

	// An empty provider means "keep the current one".
	kept := directoryAccount("work")
	kept.Provider = ""
	assert.NoError(t, svc.Update(ctx, kept))
}

func TestAccountService_Update_NotFound(t *testing.T) {
	svc := NewAccountService(memory.NewAccountStore(), &fakeBroker{})
	err := svc.Update(context.Background(), directoryAccount("missing"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccountService_Remove(t *testing.T) {
	broker := &fakeBroker{}
	svc := NewAccountService(memory.NewAccountStore(), broker)
	ctx := context.Background()
	require.NoError(t, svc.Add(ctx, directoryAccount("work")))

	require.NoError(t, svc.Remove(ctx, "work", false))
	assert.Empty(t, broker.cleared)

	_, err := svc.Get(ctx, "work")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccountService_Remove_ClearsCredentials(t *testing.T) {
	broker := &fakeBroker{}
	svc := NewAccountService(memory.NewAccountStore(), broker)
	ctx := context.Background()
	require.NoError(t, svc.Add(ctx, directoryAccount("work")))

	require.NoError(t, svc.Remove(ctx, "work", true))
	assert.Equal(t, []string{"work"}, broker.cleared)
}

func TestAccountService_Remove_NotFound(t *testing.T) {
	broker := &fakeBroker{}
	svc := NewAccountService(memory.NewAccountStore(), broker)
	err := svc.Remove(context.Background(), "missing", true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, broker.cleared)
}

func TestAccountService_Logout(t *testing.T) {
	broker := &fakeBroker{}
	svc := NewAccountService(memory.NewAccountStore(), broker)
	ctx := context.Background()
	require.NoError(t, svc.Add(ctx, directoryAccount("work")))

	require.NoError(t, svc.Logout(ctx, "work"))
	assert.Equal(t, []string{"work"}, broker.cleared)

	// The record itself stays.
	_, err := svc.Get(ctx, "work")
	assert.NoError(t, err)
}

func TestAccountService_Authenticated(t *testing.T) {
	broker := &fakeBroker{existing: map[string]bool{"work": true}}
	svc := NewAccountService(memory.NewAccountStore(), broker)
	ctx := context.Background()

	work := directoryAccount("work")
	personal := directoryAccount("personal")
	assert.True(t, svc.Authenticated(ctx, &work))
	assert.False(t, svc.Authenticated(ctx, &personal))
}

func TestAccountService_RequiresAuth_Delegation(t *testing.T) {
	svc := NewAccountService(memory.NewAccountStore(), &fakeBroker{})
	ctx := context.Background()
	require.NoError(t, svc.Add(ctx, directoryAccount("work")))
	require.NoError(t, svc.Add(ctx, domain.Account{
		ID: "feed", Provider: domain.ProviderICS,
		Config: map[string]string{"IcsUrl": "https://x/y.ics"},
	}))

	jsonAccount := func(delegate string) *domain.Account {
		return &domain.Account{
			ID: "files", Provider: domain.ProviderJSON,
			Config: map[string]string{
				"Source": "onedrive", "OneDrivePath": "/cal.json", "AuthAccountId": delegate,
			},
		}
	}

	// Delegate resolves to a directory account: no own sign-in needed.
	assert.False(t, svc.RequiresAuth(ctx, jsonAccount("work")))

	// Dangling delegate: fall back to requiring auth.
	assert.True(t, svc.RequiresAuth(ctx, jsonAccount("ghost")))

	// Delegate that cannot hold OneDrive credentials.
	assert.True(t, svc.RequiresAuth(ctx, jsonAccount("feed")))

	// Directory accounts always need their own sign-in.
	work := directoryAccount("work")
	assert.True(t, svc.RequiresAuth(ctx, &work))
}
