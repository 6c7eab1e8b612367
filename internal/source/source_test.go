package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryKeepsOrderAndTrims(t *testing.T) {
	reg, err := NewRegistry([]Descriptor{
		{Name: " Notion ", Kind: KindLever, Locator: " notion"},
		{Name: "Pinterest", Kind: KindGreenhouse, Locator: "pinterest"},
		{Name: "Stripe", Kind: KindPage, Locator: "https://stripe.com/jobs"},
	})
	require.NoError(t, err)

	entries := reg.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, Descriptor{Name: "Notion", Kind: KindLever, Locator: "notion"}, entries[0])
	assert.Equal(t, "Pinterest", entries[1].Name)
	assert.Equal(t, "Stripe", entries[2].Name)

	entries[0].Name = "mutated"
	assert.Equal(t, "Notion", reg.Entries()[0].Name)
}

func TestNewRegistryRejectsMalformedEntries(t *testing.T) {
	tests := []struct {
		name string
		desc Descriptor
		want string
	}{
		{"missing name", Descriptor{Kind: KindLever, Locator: "x"}, "name is required"},
		{"unknown kind", Descriptor{Name: "A", Kind: "workday", Locator: "x"}, "unknown adapter kind"},
		{"missing locator", Descriptor{Name: "A", Kind: KindGreenhouse}, "locator is required"},
		{"slug with path", Descriptor{Name: "A", Kind: KindLever, Locator: "acme/jobs"}, "bare board name"},
		{"relative page", Descriptor{Name: "A", Kind: KindPage, Locator: "/careers"}, "absolute http(s)"},
		{"ftp page", Descriptor{Name: "A", Kind: KindPage, Locator: "ftp://example.com/jobs"}, "absolute http(s)"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRegistry([]Descriptor{tc.desc})

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, cfgErr.Error(), tc.want)
		})
	}
}

func TestNewRegistryReportsEveryProblem(t *testing.T) {
	_, err := NewRegistry([]Descriptor{
		{Name: "A", Kind: "bogus", Locator: "a"},
		{Name: "B", Kind: KindLever, Locator: "b"},
		{Name: "", Kind: KindPage, Locator: "not a url"},
	})

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Len(t, cfgErr.Problems, 3)
}

func TestDuplicateNames(t *testing.T) {
	reg, err := NewRegistry([]Descriptor{
		{Name: "Acme", Kind: KindLever, Locator: "acme"},
		{Name: "Globex", Kind: KindLever, Locator: "globex"},
		{Name: "Acme", Kind: KindPage, Locator: "https://acme.example.com/careers"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, reg.Len())
	assert.Equal(t, []string{"Acme"}, reg.DuplicateNames())
}

func TestNilRegistry(t *testing.T) {
	var reg *Registry
	assert.Zero(t, reg.Len())
	assert.Empty(t, reg.Entries())
	assert.Empty(t, reg.DuplicateNames())
}
