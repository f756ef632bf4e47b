// Package cli implements the cobra command tree for unical.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/unical-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/unical-cli/internal/adapters/driven/credentials"
	googleid "github.com/custodia-labs/unical-cli/internal/adapters/driven/identity/google"
	"github.com/custodia-labs/unical-cli/internal/adapters/driven/identity/msal"
	"github.com/custodia-labs/unical-cli/internal/core/domain"
	"github.com/custodia-labs/unical-cli/internal/core/ports/driven"
	"github.com/custodia-labs/unical-cli/internal/core/services"
	"github.com/custodia-labs/unical-cli/internal/logger"
)

// App holds the wired services the commands run against. Built by
// buildApp on first use, or injected by tests via SetApp.
type App struct {
	Accounts   *services.AccountService
	AuthFlows  *services.AuthFlowService
	Store      driven.AccountStore
	ConfigPath string
}

var (
	app         *App
	verboseFlag bool
	configDir   string
)

var rootCmd = &cobra.Command{
	Use:   "unical",
	Short: "Manage aggregated calendar and email accounts",
	Long: `unical aggregates several calendar/email accounts - Microsoft 365
tenants, personal Microsoft accounts, a Google account, public ICS
feeds and JSON calendar files - behind one configuration store.

This CLI manages the account configuration and drives sign-in flows.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		if app == nil {
			built, err := buildApp(configDir)
			if err != nil {
				return err
			}
			app = built
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(
		&verboseFlag, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(
		&configDir, "config-dir", "", "Configuration directory (default ~/.unical)")
}

// SetApp injects pre-wired services. Used by tests.
func SetApp(a *App) {
	app = a
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// buildApp wires the production adapters and services.
func buildApp(configDir string) (*App, error) {
	store, err := file.NewAccountStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening configuration store: %w", err)
	}

	credentialsDir := filepath.Join(filepath.Dir(store.Path()), "credentials")
	msalStore := credentials.NewMSALStore(filepath.Join(credentialsDir, "msal"))
	googleStore := credentials.NewGoogleStore(filepath.Join(credentialsDir, "google"))
	broker := credentials.NewRegistry(msalStore, googleStore)

	msalClient := msal.New(msalStore)
	clients := map[domain.Provider]driven.IdentityClient{
		domain.ProviderMicrosoft365: msalClient,
		domain.ProviderOutlook:      msalClient,
		domain.ProviderGoogle:       googleid.New(googleStore),
	}

	return &App{
		Accounts:   services.NewAccountService(store, broker),
		AuthFlows:  services.NewAuthFlowService(store, clients),
		Store:      store,
		ConfigPath: store.Path(),
	}, nil
}
