package model

import (
	"testing"
	"time"

	"github.com/sells-group/gtm-cli/internal/edp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"acme.com", "acme.com"},
		{"https://www.Acme.com/products?x=1", "acme.com"},
		{"http://acme.com:8080", "acme.com"},
		{"  WWW.acme.com  ", "acme.com"},
		{"acme.com#top", "acme.com"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeDomain(tt.in))
		})
	}
}

func TestCompanyAttribute(t *testing.T) {
	t.Parallel()

	shown := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c := &Company{
		Name:            "Acme",
		EmployeeCount:   IntPtr(120),
		B2COnly:         BoolPtr(false),
		Industry:        "manufacturing",
		LastTradeShowAt: &shown,
	}

	v, ok := c.Attribute("employee_count")
	require.True(t, ok)
	assert.Equal(t, 120, v)

	v, ok = c.Attribute("b2c_only")
	require.True(t, ok)
	assert.Equal(t, false, v)

	v, ok = c.Attribute("last_trade_show_at")
	require.True(t, ok)
	assert.Equal(t, shown, v)

	_, ok = c.Attribute("catalog_sku_count")
	assert.False(t, ok, "nil pointer is unknown")

	_, ok = c.Attribute("current_erp")
	assert.False(t, ok, "blank string is unknown")

	_, ok = c.Attribute("no_such_field")
	assert.False(t, ok)
}

func TestCompanyApplyScores(t *testing.T) {
	t.Parallel()

	c := &Company{Domain: "acme.com"}
	scores := &PainScores{
		EDPScores:          map[string]float64{edp.SalesEnablement: 80},
		WeightedPSI:        55,
		AveragedPSI:        40,
		PrimaryEDPWeighted: edp.SalesEnablement,
		PrimaryEDPAveraged: edp.SalesEnablement,
		TierWeighted:       "TIER_B_ACTIVE",
		TierAveraged:       "TIER_B_ACTIVE",
	}
	c.ApplyScores(scores)
	c.ApplyQualification(Qualification{Qualified: true, Tier: QualTier2, Score: 0.6})

	assert.Equal(t, 80.0, c.EDPScores[edp.SalesEnablement])
	assert.Equal(t, "TIER_B_ACTIVE", c.TAMTier)
	assert.Equal(t, 55.0, c.PSIScore)
	assert.True(t, c.Qualified)
	assert.Equal(t, QualTier2, c.QualificationTier)

	// Mutating the scores afterwards does not leak into the company.
	scores.EDPScores[edp.SalesEnablement] = 1
	assert.Equal(t, 80.0, c.EDPScores[edp.SalesEnablement])

	c.ApplyScores(nil)
	assert.Equal(t, 55.0, c.PSIScore)
}

func TestDisplayName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Acme", (&Company{Name: " Acme ", Domain: "acme.com"}).DisplayName())
	assert.Equal(t, "acme.com", (&Company{Domain: "acme.com"}).DisplayName())
}

func TestEvidenceBundleAdd(t *testing.T) {
	t.Parallel()

	b := NewEvidenceBundle("acme.com")
	b.Add(Indicator{Key: "EDP7_No_Search", EDP: edp.SalesEnablement, State: StatePresent, Points: 30, Evidence: "No product search functionality"})
	b.Add(Indicator{Key: "EDP7_No_Mobile", EDP: edp.SalesEnablement, State: StateAbsent, Points: 20, Evidence: "No mobile"})
	b.Add(Indicator{Key: "EDP3_Old_Copyright", EDP: edp.TechnologyObsolescence, State: StateUnknown, Points: 20})
	b.Add(Indicator{Key: "EDP3_Slow_Or_Heavy", EDP: edp.TechnologyObsolescence, State: StateAbsent, Points: 15, Value: 2048})

	assert.Equal(t, []string{"No product search functionality"}, b.Findings[edp.SalesEnablement])
	assert.Empty(t, b.Findings[edp.TechnologyObsolescence])
	assert.Empty(t, b.Findings["EDP7"], "findings are keyed by full EDP ID")

	inds := b.IndicatorsFor(edp.SalesEnablement)
	require.Len(t, inds, 2)
	assert.Equal(t, "EDP7_No_Mobile", inds[0].Key)
	assert.Equal(t, "EDP7_No_Search", inds[1].Key)

	sig := b.Signals()
	assert.Equal(t, true, sig["EDP7_No_Search"])
	assert.Equal(t, false, sig["EDP3_Old_Copyright"])
	assert.Equal(t, 2048, sig["EDP3_Slow_Or_Heavy"])
}

func TestEvidenceList(t *testing.T) {
	t.Parallel()

	b := NewEvidenceBundle("acme.com")
	b.Findings["A"] = []string{"a1", "a2"}
	b.Findings["B"] = []string{"b1"}

	assert.Equal(t, []string{"a1", "a2", "b1"}, b.EvidenceList([]string{"A", "B"}, 0))
	assert.Equal(t, []string{"b1", "a1"}, b.EvidenceList([]string{"B", "A"}, 2))
}

func TestCampaignMessagesOrdered(t *testing.T) {
	t.Parallel()

	c := &Campaign{
		EmailSequence:    []Message{{Step: 1}, {Step: 3}, {Step: 5}},
		LinkedInSequence: []Message{{Step: 2}, {Step: 4}},
	}
	var steps []int
	for _, m := range c.Messages() {
		steps = append(steps, m.Step)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, steps)
}
