package qualify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultRulesValid(t *testing.T) {
	t.Parallel()

	r := DefaultRules()
	require.NoError(t, r.Validate())
	assert.Len(t, r.Disqualifiers, 3)
	assert.Len(t, r.Tier1, 5)
	assert.Len(t, r.Tier2, 6)
}

func TestLoadRulesYAML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "rules.yaml", `
disqualifiers:
  - {field: b2c_only, op: "==", value: true}
tier1:
  - {field: industry, op: in, value: [distribution, wholesale]}
tier2:
  - {field: rep_count, op: ">=", value: 3, weight: 1}
tier2_min_met: 1
`)
	r, err := LoadRules(path)
	require.NoError(t, err)
	assert.Len(t, r.Tier1, 1)
	assert.Equal(t, 1, r.Tier2MinMet)
	assert.Equal(t, 0.5, r.Tier2MinScore, "zero thresholds keep defaults")

	c := idealCompany()
	c.Industry = "Wholesale"
	q := NewScorer(r, WithClock(clock)).Qualify(c)
	assert.Equal(t, "tier_1", string(q.Tier))
}

func TestLoadRulesFallbacksAndErrors(t *testing.T) {
	t.Parallel()

	r, err := LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), r)

	r, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Len(t, r.Tier1, 5)

	_, err = LoadRules(writeFile(t, "bad.json", "{not json"))
	assert.Error(t, err)

	_, err = LoadRules(writeFile(t, "badop.yaml", "tier1:\n  - {field: x, op: \"!=\", value: 1}\ntier2:\n  - {field: x, op: \">=\", value: 1}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operator")
}
