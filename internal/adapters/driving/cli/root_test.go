package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/unical-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/unical-cli/internal/core/domain"
	"github.com/custodia-labs/unical-cli/internal/core/services"
)

func TestAccountCommands_AgainstInjectedApp(t *testing.T) {
	store := memory.NewAccountStore()
	SetApp(&App{
		Accounts:  services.NewAccountService(store, nil),
		AuthFlows: services.NewAuthFlowService(store, nil),
		Store:     store,
	})
	defer SetApp(nil)
	ctx := context.Background()

	rootCmd.SetArgs([]string{"account", "add",
		"--id", "work", "--name", "Work", "--provider", "microsoft365",
		"-c", "ClientId=abc", "-c", "TenantId=common"})
	require.NoError(t, rootCmd.Execute())

	got, err := app.Store.Get(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderMicrosoft365, got.Provider)
	assert.Equal(t, "Work", got.DisplayName)
	assert.Equal(t, "abc", got.ConfigValue(domain.ConfigKeyClientID))

	rootCmd.SetArgs([]string{"account", "update", "work", "--name", "Work Calendar"})
	require.NoError(t, rootCmd.Execute())

	got, err = app.Store.Get(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, "Work Calendar", got.DisplayName)

	rootCmd.SetArgs([]string{"account", "remove", "work"})
	require.NoError(t, rootCmd.Execute())

	_, err = app.Store.Get(ctx, "work")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
