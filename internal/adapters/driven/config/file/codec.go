package file

import (
	"github.com/custodia-labs/unical-cli/internal/core/domain"
)

// Account fields may appear in the document under either of two casing
// conventions: the canonical lower_snake keys written by this tool, or
// the PascalCase keys produced by older tool versions and hand edits.
// Lookup tries canonical first, then legacy; writes always emit
// canonical casing.

// decodeAccounts extracts the account list from the document. A missing
// or unparsable accounts section is treated as empty.
func decodeAccounts(doc map[string]any) []domain.Account {
	raw, ok := doc[accountsKey]
	if !ok {
		raw, ok = doc[legacyAccountsKey]
	}
	if !ok {
		return nil
	}

	tables := asTableList(raw)
	accounts := make([]domain.Account, 0, len(tables))
	for _, tbl := range tables {
		accounts = append(accounts, decodeAccount(tbl))
	}
	return accounts
}

func decodeAccount(tbl map[string]any) domain.Account {
	return domain.Account{
		ID:          asString(field(tbl, "id", "Id")),
		DisplayName: asString(field(tbl, "display_name", "DisplayName")),
		Provider:    domain.Provider(asString(field(tbl, "provider", "Provider"))),
		Enabled:     asBool(field(tbl, "enabled", "Enabled")),
		Priority:    asInt(field(tbl, "priority", "Priority")),
		Domains:     asStringSlice(field(tbl, "domains", "Domains")),
		Config:      asStringMap(field(tbl, "config", "Config")),
	}
}

func encodeAccount(account *domain.Account) map[string]any {
	tbl := map[string]any{
		"id":           account.ID,
		"display_name": account.DisplayName,
		"provider":     string(account.Provider),
		"enabled":      account.Enabled,
		"priority":     int64(account.Priority),
	}
	if len(account.Domains) > 0 {
		tbl["domains"] = account.Domains
	}
	if len(account.Config) > 0 {
		tbl["config"] = account.Config
	}
	return tbl
}

// field looks a key up under the canonical casing, then the legacy one.
func field(tbl map[string]any, canonical, legacy string) any {
	if v, ok := tbl[canonical]; ok {
		return v
	}
	return tbl[legacy]
}

// asTableList normalizes the shapes go-toml produces for an array of
// tables. Anything else is an unparsable section, treated as empty.
func asTableList(raw any) []map[string]any {
	switch v := raw.(type) {
	case []map[string]any:
		return v
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if tbl, ok := item.(map[string]any); ok {
				out = append(out, tbl)
			}
		}
		return out
	default:
		return nil
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asInt(v any) int {
	// TOML integers are parsed as int64
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

func asStringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

func asStringMap(v any) map[string]string {
	switch m := v.(type) {
	case map[string]string:
		return m
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, val := range m {
			if str, ok := val.(string); ok {
				out[k] = str
			}
		}
		return out
	default:
		return nil
	}
}
