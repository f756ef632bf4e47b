package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownProvider indicates a provider outside the supported set.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrProviderImmutable indicates an attempt to change an account's
	// provider after creation.
	ErrProviderImmutable = errors.New("provider is immutable")

	// Authentication Errors.

	// ErrAuthNotSupported indicates the account's provider has no
	// sign-in flow (feeds, local files, delegated accounts).
	ErrAuthNotSupported = errors.New("authentication not supported for provider")

	// ErrCodeTimeout indicates no device code was issued within the
	// bounded wait. The flow itself may still be running.
	ErrCodeTimeout = errors.New("timed out waiting for device code")

	// ErrPromptParse indicates the device-code prompt sentence could not
	// be parsed into a user code and verification URL.
	ErrPromptParse = errors.New("could not parse device code prompt")

	// ErrFlowSuperseded indicates the flow was cancelled because a newer
	// sign-in attempt for the same account replaced it.
	ErrFlowSuperseded = errors.New("sign-in flow superseded by a newer attempt")

	// ErrFlowNotFound indicates no authentication flow exists for the account.
	ErrFlowNotFound = errors.New("no authentication flow for account")
)
