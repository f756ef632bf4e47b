package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/unical-cli/internal/core/domain"
)

func TestParseConfigPairs(t *testing.T) {
	config, err := parseConfigPairs([]string{
		"ClientId=abc",
		"TenantId=common",
		"IcsUrl=https://x/y.ics?key=1",
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", config["ClientId"])
	assert.Equal(t, "common", config["TenantId"])
	// Only the first "=" splits; values may contain more.
	assert.Equal(t, "https://x/y.ics?key=1", config["IcsUrl"])
}

func TestParseConfigPairs_Invalid(t *testing.T) {
	for _, pair := range []string{"novalue", "=orphan"} {
		_, err := parseConfigPairs([]string{pair})
		require.Error(t, err, "pair %q", pair)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
}

func TestSplitDomains(t *testing.T) {
	assert.Nil(t, splitDomains(""))
	assert.Equal(t, []string{"example.com"}, splitDomains("example.com"))
	assert.Equal(t,
		[]string{"example.com", "example.org"},
		splitDomains(" example.com , example.org ,"))
}

func TestLookupConfig(t *testing.T) {
	config := map[string]string{"clientsecret": "xyz"}
	assert.Equal(t, "xyz", lookupConfig(config, domain.ConfigKeyClientSecret))
	assert.Empty(t, lookupConfig(config, domain.ConfigKeyClientID))
}
