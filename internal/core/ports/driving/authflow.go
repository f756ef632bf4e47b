package driving

import (
	"context"

	"github.com/custodia-labs/unical-cli/internal/core/domain"
)

// AuthFlowService orchestrates authentication flows against external
// identity providers. One flow is active per account at a time;
// starting a new flow cancels and replaces the previous one.
type AuthFlowService interface {
	// StartDeviceFlow begins a headless device-code flow for the
	// account and blocks until the provider issues a code, but only up
	// to a bounded wait. Returns domain.ErrNotFound for an unknown
	// account, domain.ErrAuthNotSupported for providers without a
	// sign-in flow, domain.ErrCodeTimeout if no code arrived in time.
	// The flow continues in the background either way; poll Status.
	StartDeviceFlow(ctx context.Context, accountID string) (*domain.DeviceCodePrompt, error)

	// Status returns a snapshot of the account's current flow, or
	// domain.ErrFlowNotFound. Never touches the network.
	Status(accountID string) (*domain.AuthFlow, error)

	// Cancel cancels the account's active flow. Returns false if no
	// flow exists or the flow is already terminal. Never touches the
	// network.
	Cancel(accountID string) bool

	// LoginInteractive runs a blocking browser sign-in for the account.
	// No flow state is tracked; the caller waits for the full duration.
	LoginInteractive(ctx context.Context, accountID string) error
}
