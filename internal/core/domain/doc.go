// Package domain defines the core business entities for unical.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Account: A configured calendar/email source
//   - Provider: The closed set of supported backends
//   - AuthFlow: The in-memory state of one authentication attempt
//
// Validation lives here too (validate.go): pure rules for account ids,
// provider membership, provider-specific config schemas and the
// auth-requirement/delegation predicates. Callers validate before
// mutating stores; stores never validate.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
