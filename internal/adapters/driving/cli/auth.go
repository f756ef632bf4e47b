package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/unical-cli/internal/core/domain"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign accounts in and out",
	Long: `Drive authentication flows for configured accounts.

The default is the headless device-code flow: a short code and URL are
printed, sign-in completes on any browser, and the command waits for
the flow to finish. Use --interactive to open a local browser instead.

Examples:
  unical auth login work
  unical auth login personal --interactive
  unical auth status work
  unical auth cancel work`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login [account-id]",
	Short: "Sign an account in",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthLogin,
}

var authStatusCmd = &cobra.Command{
	Use:   "status [account-id]",
	Short: "Show the account's current sign-in flow",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthStatus,
}

var authCancelCmd = &cobra.Command{
	Use:   "cancel [account-id]",
	Short: "Cancel the account's active sign-in flow",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthCancel,
}

var authInteractive bool

func init() {
	authLoginCmd.Flags().BoolVar(
		&authInteractive, "interactive", false, "Use a local browser instead of the device-code flow")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authCancelCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	accountID := args[0]

	if authInteractive {
		if err := app.AuthFlows.LoginInteractive(ctx, accountID); err != nil {
			return err
		}
		fmt.Printf("Account %q signed in.\n", accountID)
		return nil
	}

	prompt, err := app.AuthFlows.StartDeviceFlow(ctx, accountID)
	if err != nil {
		return err
	}

	fmt.Println(prompt.Message)
	fmt.Printf("\n  Code: %s\n  URL:  %s\n\n", prompt.UserCode, prompt.VerificationURL)
	fmt.Println("Waiting for sign-in to complete...")

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		flow, err := app.AuthFlows.Status(accountID)
		if err != nil {
			if errors.Is(err, domain.ErrFlowNotFound) {
				return err
			}
			continue
		}
		if !flow.Status.Terminal() {
			continue
		}
		switch flow.Status {
		case domain.FlowCompleted:
			fmt.Printf("Account %q signed in.\n", accountID)
			return nil
		case domain.FlowCancelled:
			return fmt.Errorf("sign-in cancelled")
		default:
			return fmt.Errorf("sign-in failed: %s", flow.Message)
		}
	}
}

func runAuthStatus(_ *cobra.Command, args []string) error {
	flow, err := app.AuthFlows.Status(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Account:  %s\nStatus:   %s\nStarted:  %s\n",
		flow.AccountID, flow.Status, flow.StartedAt.Format(time.RFC3339))
	if flow.UserCode != "" {
		fmt.Printf("Code:     %s\nURL:      %s\n", flow.UserCode, flow.VerificationURL)
	}
	if flow.Message != "" {
		fmt.Printf("Message:  %s\n", flow.Message)
	}
	if !flow.CompletedAt.IsZero() {
		fmt.Printf("Finished: %s\n", flow.CompletedAt.Format(time.RFC3339))
	}
	return nil
}

func runAuthCancel(_ *cobra.Command, args []string) error {
	if !app.AuthFlows.Cancel(args[0]) {
		return domain.ErrFlowNotFound
	}
	fmt.Printf("Cancelled sign-in flow for %q\n", args[0])
	return nil
}
