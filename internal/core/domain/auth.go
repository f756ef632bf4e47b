package domain

import "time"

// FlowStatus is the lifecycle state of one authentication flow.
type FlowStatus string

const (
	// FlowPending means the flow is registered but no device code has
	// been issued yet.
	FlowPending FlowStatus = "pending"
	// FlowAwaitingUser means a device code was issued and the flow is
	// waiting for the operator to complete sign-in on another device.
	FlowAwaitingUser FlowStatus = "awaiting_user"
	// FlowCompleted means token acquisition succeeded.
	FlowCompleted FlowStatus = "completed"
	// FlowFailed means token acquisition failed with a non-cancellation error.
	FlowFailed FlowStatus = "failed"
	// FlowCancelled means the flow was cancelled explicitly or replaced
	// by a newer flow for the same account.
	FlowCancelled FlowStatus = "cancelled"
)

// Terminal returns true once the flow can no longer change state.
func (s FlowStatus) Terminal() bool {
	switch s {
	case FlowCompleted, FlowFailed, FlowCancelled:
		return true
	}
	return false
}

// AuthFlow is the ephemeral, in-memory record of one authentication
// attempt for one account. Flows do not survive a process restart.
type AuthFlow struct {
	// ID is a unique identifier for this attempt (UUID).
	ID string
	// AccountID is the account being authenticated.
	AccountID string
	// Status is the current lifecycle state.
	Status FlowStatus
	// Message is a human-readable progress or failure description.
	// Never contains secret material.
	Message string
	// UserCode is the short code the operator enters on the
	// verification page. Empty until the code is issued.
	UserCode string
	// VerificationURL is the page where the operator enters UserCode.
	VerificationURL string
	// StartedAt is when the flow was registered.
	StartedAt time.Time
	// CompletedAt is when the flow reached a terminal state.
	CompletedAt time.Time
}

// DeviceCodePrompt is what a caller starting a device-code flow receives
// once the identity provider issues a code.
type DeviceCodePrompt struct {
	// AccountID is the account the prompt belongs to.
	AccountID string
	// UserCode is the short code to enter on the verification page.
	UserCode string
	// VerificationURL is the page where the code is entered.
	VerificationURL string
	// Message is the provider's original human-readable instruction.
	Message string
	// ExpiresIn is how long the code remains valid.
	ExpiresIn time.Duration
}
