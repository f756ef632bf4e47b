// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - AccountStore: Account configuration persistence
//   - CredentialStore: Per-provider-family secret persistence
//   - CredentialBroker: Provider-dispatching credential existence/clear
//   - IdentityClient: External identity-provider token acquisition
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
