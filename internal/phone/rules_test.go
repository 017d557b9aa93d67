package phone

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules(t *testing.T) {
	r := DefaultRules()

	assert.True(t, r.AllowsPhonewords("US"))
	assert.False(t, r.AllowsPhonewords("DE"))
	assert.True(t, r.HasDINExtensions("DE"))
	assert.False(t, r.HasDINExtensions("GB"))
	assert.Equal(t, []string{"wewn", "wew"}, r.MarkersFor("PL"))
	assert.Nil(t, r.MarkersFor("GB"))
	assert.True(t, r.IsMobileOnlyField("contact:mobile"))
	assert.False(t, r.IsMobileOnlyField("phone"))
	assert.Contains(t, r.KnownFields(), "contact:whatsapp")
}

func TestLoadRules_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
phoneword_countries: [NZ]
exclusions:
  - country: GB
    number: "118500"
    required_tags:
      office: directory
    policy: valid
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r, err := LoadRules(path)
	require.NoError(t, err)

	assert.True(t, r.AllowsPhonewords("NZ"))
	assert.False(t, r.AllowsPhonewords("US"), "file replaces the default list")
	// Untouched sections keep their defaults.
	assert.True(t, r.HasDINExtensions("DE"))
	require.Len(t, r.Exclusions, 1)
	assert.Equal(t, ExclusionValid, r.Exclusions[0].Policy)
}

func TestLoadRules_MissingFile(t *testing.T) {
	_, err := LoadRules("/does/not/exist.yaml")
	assert.Error(t, err)
}
