package domain

import "strings"

// Provider identifies which backend serves an account. The set is
// closed: adding a provider means new code, not new configuration.
type Provider string

const (
	// ProviderMicrosoft365 is a Microsoft 365 / Entra ID work or school
	// directory account (calendar and mail via Graph).
	ProviderMicrosoft365 Provider = "microsoft365"
	// ProviderOutlook is a personal Microsoft account. Same directory
	// machinery as microsoft365, different tenant conventions.
	ProviderOutlook Provider = "outlook"
	// ProviderGoogle is a Google account (Calendar and Gmail).
	ProviderGoogle Provider = "google"
	// ProviderICS is a read-only ICS feed fetched over HTTP(S).
	ProviderICS Provider = "ics"
	// ProviderJSON is a JSON calendar file, either on local disk or in
	// OneDrive.
	ProviderJSON Provider = "json"
)

// Providers returns all supported providers.
func Providers() []Provider {
	return []Provider{
		ProviderMicrosoft365,
		ProviderOutlook,
		ProviderGoogle,
		ProviderICS,
		ProviderJSON,
	}
}

// Valid reports whether p is a member of the provider set.
func (p Provider) Valid() bool {
	switch p {
	case ProviderMicrosoft365, ProviderOutlook, ProviderGoogle, ProviderICS, ProviderJSON:
		return true
	}
	return false
}

// IsDirectory reports whether p is a Microsoft directory provider.
// Directory accounts hold MSAL token caches and can serve as auth
// delegates for OneDrive-hosted json accounts.
func (p Provider) IsDirectory() bool {
	return p == ProviderMicrosoft365 || p == ProviderOutlook
}

// Provider config keys. Stored in PascalCase for continuity with
// documents written by earlier tool versions; all lookups are
// case-insensitive regardless.
const (
	ConfigKeyClientID      = "ClientId"
	ConfigKeyTenantID      = "TenantId"
	ConfigKeyClientSecret  = "ClientSecret"
	ConfigKeyICSURL        = "IcsUrl"
	ConfigKeySource        = "Source"
	ConfigKeyFilePath      = "FilePath"
	ConfigKeyOneDrivePath  = "OneDrivePath"
	ConfigKeyAuthAccountID = "AuthAccountId"
)

// Values of the json provider's Source discriminator.
const (
	JSONSourceLocal    = "local"
	JSONSourceOneDrive = "onedrive"
)

// Account is one configured calendar/email source.
type Account struct {
	// ID is the stable slug identifying the account. Immutable.
	ID string
	// DisplayName is the human-facing label.
	DisplayName string
	// Provider is the backend serving this account. Immutable after
	// creation.
	Provider Provider
	// Enabled gates whether the aggregator reads from this account.
	// Disabled accounts keep their configuration and credentials.
	Enabled bool
	// Priority orders accounts across the aggregate; lower wins.
	Priority int
	// Domains are email domains routed to this account when composing.
	Domains []string
	// Config holds the provider-specific settings. Values may be
	// secrets (ClientSecret); treat the whole map as sensitive.
	Config map[string]string
}

// ConfigValue returns the config value for key, matching the key
// case-insensitively. Missing keys yield the empty string.
func (a *Account) ConfigValue(key string) string {
	if v, ok := a.Config[key]; ok {
		return v
	}
	for k, v := range a.Config {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// JSONSource returns the normalized Source discriminator for json
// accounts, empty for every other provider.
func (a *Account) JSONSource() string {
	if a.Provider != ProviderJSON {
		return ""
	}
	return strings.ToLower(a.ConfigValue(ConfigKeySource))
}

// Clone returns a deep copy. Stores hand out clones so callers can
// never mutate shared state through a returned account.
func (a *Account) Clone() Account {
	clone := *a
	if a.Domains != nil {
		clone.Domains = append([]string(nil), a.Domains...)
	}
	if a.Config != nil {
		clone.Config = make(map[string]string, len(a.Config))
		for k, v := range a.Config {
			clone.Config[k] = v
		}
	}
	return clone
}
