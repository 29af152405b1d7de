package campaign

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/gtm-cli/internal/edp"
)

func TestDefaultTemplatesCoverCadence(t *testing.T) {
	t.Parallel()

	tmpl := DefaultTemplates()
	for _, touch := range DefaultCadence() {
		assert.NotEmpty(t, tmpl.Stages[touch.Stage], touch.Stage)
	}
	for _, id := range edp.Default().IDs() {
		c := tmpl.For(id)
		assert.NotEmpty(t, c.Hooks, id)
		assert.NotEmpty(t, c.ValueProps, id)
		assert.Len(t, c.Ads, len(AdPlatforms), id)
	}
	assert.Equal(t, tmpl.Default, tmpl.For("EDP9_Unknown"))
}

func TestLoadTemplatesOverride(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "copy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
stages:
  intro:
    - subject: "Hello {{company}}"
      body: "Custom intro for {{company}}"
edps:
  EDP7_Sales_Enablement:
    hooks: ["Custom hook"]
    value_props: ["Custom value"]
    proof: ["Custom proof"]
`), 0o600))

	tmpl, err := LoadTemplates(path)
	require.NoError(t, err)
	require.Len(t, tmpl.Stages[StageIntro], 1)
	assert.Equal(t, "Custom intro for {{company}}", tmpl.Stages[StageIntro][0].Body)
	assert.Len(t, tmpl.Stages[StageBreakup], 2, "untouched stages keep built-ins")
	assert.Equal(t, []string{"Custom hook"}, tmpl.For(edp.SalesEnablement).Hooks)
	assert.NotEmpty(t, tmpl.For(edp.CatalogComplexity).Ads)
}

func TestLoadTemplatesErrors(t *testing.T) {
	t.Parallel()

	tmpl, err := LoadTemplates(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, tmpl.Stages)

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("stages: [unclosed"), 0o600))
	_, err = LoadTemplates(bad)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("stages:\n  intro: []\n"), 0o600))
	_, err = LoadTemplates(empty)
	assert.Error(t, err)
}
