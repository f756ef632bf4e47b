package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Validation is pure and stateless. Callers run it before mutating the
// account store; the store itself never validates.

// idPattern: lowercase letters, digits, hyphen and underscore, starting
// with a letter or digit.
var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateID checks that id is a well-formed account slug.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id must not be empty", ErrInvalidInput)
	}
	if strings.ContainsAny(id, " \t\n\r") {
		return fmt.Errorf("%w: id must not contain whitespace", ErrInvalidInput)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: id %q must be lowercase letters, digits, '-' or '_' and start with a letter or digit", ErrInvalidInput, id)
	}
	return nil
}

// ParseProvider resolves a provider name case-insensitively to its
// canonical form.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q (supported: %v)", ErrUnknownProvider, name, Providers())
	}
	return p, nil
}

// ValidateConfig checks that config carries the keys the provider
// requires. Key lookup and enum-like values are case-insensitive;
// structured values (URLs) are checked for shape as well as presence.
func ValidateConfig(provider Provider, config map[string]string) error {
	switch provider {
	case ProviderMicrosoft365, ProviderOutlook:
		return requireKeys(config, ConfigKeyClientID, ConfigKeyTenantID)

	case ProviderGoogle:
		return requireKeys(config, ConfigKeyClientID, ConfigKeyClientSecret)

	case ProviderICS:
		if err := requireKeys(config, ConfigKeyICSURL); err != nil {
			return err
		}
		raw := configValue(config, ConfigKeyICSURL)
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %s must be an absolute http(s) URL, got %q", ErrInvalidInput, ConfigKeyICSURL, raw)
		}
		return nil

	case ProviderJSON:
		if err := requireKeys(config, ConfigKeySource); err != nil {
			return err
		}
		switch strings.ToLower(configValue(config, ConfigKeySource)) {
		case JSONSourceLocal:
			return requireKeys(config, ConfigKeyFilePath)
		case JSONSourceOneDrive:
			return requireKeys(config, ConfigKeyOneDrivePath)
		default:
			return fmt.Errorf("%w: %s must be %q or %q, got %q",
				ErrInvalidInput, ConfigKeySource, JSONSourceLocal, JSONSourceOneDrive,
				configValue(config, ConfigKeySource))
		}

	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}

// RequiresAuth reports whether the account needs its own credential.
// Feeds never authenticate; local json files never authenticate; a
// onedrive json file that names a delegate reuses that account's
// credential instead of acquiring one.
func RequiresAuth(account *Account) bool {
	switch account.Provider {
	case ProviderICS:
		return false
	case ProviderJSON:
		switch account.JSONSource() {
		case JSONSourceLocal:
			return false
		case JSONSourceOneDrive:
			return AuthDelegate(account) == ""
		}
		return true
	case ProviderMicrosoft365, ProviderOutlook, ProviderGoogle:
		return true
	}
	return true
}

// AuthDelegate returns the id of the account whose credential this
// account reuses, or empty string. Only json onedrive accounts may
// delegate. The reference is not checked for existence here; an
// unresolvable delegate must be treated as "auth required" by callers.
func AuthDelegate(account *Account) string {
	if account.Provider != ProviderJSON || account.JSONSource() != JSONSourceOneDrive {
		return ""
	}
	return account.ConfigValue(ConfigKeyAuthAccountID)
}

// requireKeys checks presence of each key (case-insensitive) with a
// non-empty value. The error names the first missing key.
func requireKeys(config map[string]string, keys ...string) error {
	for _, key := range keys {
		if configValue(config, key) == "" {
			return fmt.Errorf("%w: missing required config key %q", ErrInvalidInput, key)
		}
	}
	return nil
}

func configValue(config map[string]string, key string) string {
	if v, ok := config[key]; ok {
		return v
	}
	for k, v := range config {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
