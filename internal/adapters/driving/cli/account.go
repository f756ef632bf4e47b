package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/unical-cli/internal/core/domain"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage configured accounts",
	Long: `Add, list, update and remove account configurations.

Examples:
  # Add a Microsoft 365 work account
  unical account add --id work --name "Work" --provider microsoft365 \
    -c ClientId=xxx -c TenantId=yyy

  # Add a public ICS feed
  unical account add --id holidays --provider ics \
    -c IcsUrl=https://example.org/holidays.ics

  # Add a OneDrive-hosted JSON calendar reusing the work sign-in
  unical account add --id shared --provider json \
    -c Source=onedrive -c OneDrivePath=/calendars/shared.json \
    -c AuthAccountId=work

  # List accounts with their credential state
  unical account list`,
}

var accountAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new account",
	RunE:  runAccountAdd,
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured accounts",
	RunE:  runAccountList,
}

var accountUpdateCmd = &cobra.Command{
	Use:   "update [account-id]",
	Short: "Update an existing account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountUpdate,
}

var accountRemoveCmd = &cobra.Command{
	Use:   "remove [account-id]",
	Short: "Remove an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountRemove,
}

var accountLogoutCmd = &cobra.Command{
	Use:   "logout [account-id]",
	Short: "Clear an account's stored credentials",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountLogout,
}

// Flags for account commands.
var (
	accountID       string
	accountName     string
	accountProvider string
	accountPriority int
	accountDomains  string
	accountEnabled  bool
	accountConfig   []string
	removeLogout    bool
)

func init() {
	accountAddCmd.Flags().StringVar(&accountID, "id", "", "Account id (slug)")
	accountAddCmd.Flags().StringVar(&accountName, "name", "", "Display name")
	accountAddCmd.Flags().StringVar(&accountProvider, "provider", "", "Provider (microsoft365, outlook, google, ics, json)")
	accountAddCmd.Flags().IntVar(&accountPriority, "priority", 0, "Cross-account ordering priority (lower wins)")
	accountAddCmd.Flags().StringVar(&accountDomains, "domains", "", "Comma-separated email domains routed to this account")
	accountAddCmd.Flags().BoolVar(&accountEnabled, "enabled", true, "Whether the account is enabled")
	accountAddCmd.Flags().StringArrayVarP(&accountConfig, "config", "c", nil, "Provider config key=value (repeatable)")

	accountUpdateCmd.Flags().StringVar(&accountName, "name", "", "Display name")
	accountUpdateCmd.Flags().IntVar(&accountPriority, "priority", 0, "Cross-account ordering priority (lower wins)")
	accountUpdateCmd.Flags().StringVar(&accountDomains, "domains", "", "Comma-separated email domains routed to this account")
	accountUpdateCmd.Flags().BoolVar(&accountEnabled, "enabled", true, "Whether the account is enabled")
	accountUpdateCmd.Flags().StringArrayVarP(&accountConfig, "config", "c", nil, "Provider config key=value (repeatable)")

	accountRemoveCmd.Flags().BoolVar(&removeLogout, "logout", false, "Also clear stored credentials")

	accountCmd.AddCommand(accountAddCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountUpdateCmd)
	accountCmd.AddCommand(accountRemoveCmd)
	accountCmd.AddCommand(accountLogoutCmd)
	rootCmd.AddCommand(accountCmd)
}

func runAccountAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	config, err := parseConfigPairs(accountConfig)
	if err != nil {
		return err
	}

	provider, err := domain.ParseProvider(accountProvider)
	if err != nil {
		return err
	}

	// The Google client secret is sensitive; prompt for it rather than
	// requiring it on the command line when running interactively.
	if provider == domain.ProviderGoogle && lookupConfig(config, domain.ConfigKeyClientSecret) == "" {
		secret, err := promptSecret("Client secret: ")
		if err == nil && secret != "" {
			config[domain.ConfigKeyClientSecret] = secret
		}
	}

	name := accountName
	if name == "" {
		name = accountID
	}

	account := domain.Account{
		ID:          accountID,
		DisplayName: name,
		Provider:    provider,
		Enabled:     accountEnabled,
		Priority:    accountPriority,
		Domains:     splitDomains(accountDomains),
		Config:      config,
	}
	if err := app.Accounts.Add(ctx, account); err != nil {
		return err
	}
	fmt.Printf("Added account %q (%s)\n", account.ID, account.Provider)
	return nil
}

func runAccountList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	accounts, err := app.Accounts.List(ctx)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Println("No accounts configured.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPROVIDER\tENABLED\tPRIORITY\tAUTH")
	for i := range accounts {
		account := &accounts[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\t%s\n",
			account.ID, account.DisplayName, account.Provider,
			account.Enabled, account.Priority, authState(ctx, account))
	}
	return w.Flush()
}

func authState(ctx context.Context, account *domain.Account) string {
	if !app.Accounts.RequiresAuth(ctx, account) {
		if delegate := domain.AuthDelegate(account); delegate != "" {
			return "via " + delegate
		}
		return "n/a"
	}
	if app.Accounts.Authenticated(ctx, account) {
		return "signed in"
	}
	return "signed out"
}

func runAccountUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	account, err := app.Accounts.Get(ctx, args[0])
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("name") {
		account.DisplayName = accountName
	}
	if flags.Changed("priority") {
		account.Priority = accountPriority
	}
	if flags.Changed("domains") {
		account.Domains = splitDomains(accountDomains)
	}
	if flags.Changed("enabled") {
		account.Enabled = accountEnabled
	}
	if flags.Changed("config") {
		config, err := parseConfigPairs(accountConfig)
		if err != nil {
			return err
		}
		if account.Config == nil {
			account.Config = make(map[string]string)
		}
		for k, v := range config {
			account.Config[k] = v
		}
	}

	if err := app.Accounts.Update(ctx, *account); err != nil {
		return err
	}
	fmt.Printf("Updated account %q\n", account.ID)
	return nil
}

func runAccountRemove(cmd *cobra.Command, args []string) error {
	if err := app.Accounts.Remove(cmd.Context(), args[0], removeLogout); err != nil {
		return err
	}
	fmt.Printf("Removed account %q\n", args[0])
	return nil
}

func runAccountLogout(cmd *cobra.Command, args []string) error {
	if err := app.Accounts.Logout(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Cleared credentials for %q\n", args[0])
	return nil
}

// parseConfigPairs turns repeated key=value flags into a config map.
func parseConfigPairs(pairs []string) (map[string]string, error) {
	config := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: config entry %q must be key=value", domain.ErrInvalidInput, pair)
		}
		config[key] = value
	}
	return config, nil
}

func splitDomains(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func lookupConfig(config map[string]string, key string) string {
	for k, v := range config {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// promptSecret reads a secret from the terminal without echo.
func promptSecret(label string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("stdin is not a terminal")
	}
	fmt.Print(label)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(secret)), nil
}
