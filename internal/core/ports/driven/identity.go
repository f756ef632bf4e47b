package driven

import (
	"context"

	"github.com/custodia-labs/unical-cli/internal/core/domain"
)

// DevicePromptFunc delivers the identity provider's device-code
// instruction to whoever started the flow. The message is the
// provider's only callback signal: a free-text human-readable sentence
// containing the user code and verification URL. Returning an error
// aborts the acquisition.
type DevicePromptFunc func(ctx context.Context, message string) error

// IdentityClient acquires tokens from an external identity provider on
// behalf of one account. Implementations persist the resulting
// credential artifact through their family's CredentialStore; callers
// never receive token material.
type IdentityClient interface {
	// AcquireInteractive runs a blocking browser-based sign-in. Used by
	// setup tooling where the caller waits for the full duration.
	AcquireInteractive(ctx context.Context, account *domain.Account, scopes []string) error

	// AcquireByDeviceCode runs the headless device-code grant. The
	// prompt is invoked once the provider issues a code; the call then
	// blocks polling for completion until the operator finishes
	// sign-in, the code expires, or ctx is cancelled. Cancellation is
	// cooperative: it is honored between poll attempts, so an exchange
	// already in flight may still complete and persist a credential.
	AcquireByDeviceCode(ctx context.Context, account *domain.Account, scopes []string, prompt DevicePromptFunc) error
}
