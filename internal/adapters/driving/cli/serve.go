package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/unical-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/unical-cli/internal/adapters/driving/httpadmin"
	"github.com/custodia-labs/unical-cli/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the administrative HTTP server",
	Long: `Run the admin HTTP server exposing account CRUD and sign-in
flow control.

The server is gated by a shared admin token (--admin-token or the
UNICAL_ADMIN_TOKEN environment variable). Without a token the surface
is open - acceptable for local use only.`,
	RunE: runServe,
}

var (
	serveListen string
	serveToken  string
)

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "127.0.0.1:8787", "Listen address")
	serveCmd.Flags().StringVar(&serveToken, "admin-token", "", "Shared admin secret (default $UNICAL_ADMIN_TOKEN)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token := serveToken
	if token == "" {
		token = os.Getenv("UNICAL_ADMIN_TOKEN")
	}
	if token == "" {
		logger.Warn("no admin token configured; the admin surface is open")
	}

	// The configuration document is hand-editable; log edits made
	// behind the server's back. The store re-reads on every operation,
	// so no reload is needed.
	if app.ConfigPath != "" {
		watcher, err := file.NewWatcher(app.ConfigPath)
		if err != nil {
			logger.Warn("config watcher unavailable: %v", err)
		} else {
			defer watcher.Close() //nolint:errcheck // shutdown best effort
			go watcher.Run(ctx, func() {
				logger.Info("configuration document changed on disk")
			})
		}
	}

	server := httpadmin.NewServer(app.Accounts, app.AuthFlows, token)
	return server.ListenAndServe(ctx, serveListen)
}
