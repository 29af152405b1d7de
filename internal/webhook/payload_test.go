package webhook

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/gtm-cli/internal/model"
)

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func sampleInputs() (*model.Company, *model.PainScores, *model.Campaign, *model.EvidenceBundle) {
	company := &model.Company{
		Name:    "Acme",
		Domain:  "acme.com",
		Contact: model.Contact{FirstName: "Dana", Email: "dana@acme.com"},
	}
	scores := &model.PainScores{
		EDPScores:          map[string]float64{"EDP7_Sales_Enablement": 80, "EDP3_Technology_Obsolescence": 40},
		WeightedPSI:        62.5,
		AveragedPSI:        48,
		PrimaryEDPWeighted: "EDP7_Sales_Enablement",
		PrimaryEDPAveraged: "EDP7_Sales_Enablement",
		TierWeighted:       "TIER_B_ACTIVE",
		TierAveraged:       "TIER_B_ACTIVE",
		Multiplier:         1.5,
		TradeShow:          "ISC West",
		DaysUntilShow:      45,
	}
	campaign := &model.Campaign{
		ID:               "c-1",
		EmailSequence:    []model.Message{{Step: 1, Body: "hi"}},
		LinkedInSequence: []model.Message{{Step: 2, Body: "connect"}},
		AdSuggestions:    []model.AdSuggestion{{Platform: "linkedin", Headline: "h"}},
	}
	bundle := model.NewEvidenceBundle("acme.com")
	bundle.Findings["EDP3_Technology_Obsolescence"] = []string{"No mobile viewport meta tag", "Heavy page: 2.1 MB"}
	bundle.Findings["EDP7_Sales_Enablement"] = []string{"No product search functionality"}
	return company, scores, campaign, bundle
}

func TestBuildPayload(t *testing.T) {
	t.Parallel()

	company, scores, campaign, bundle := sampleInputs()
	qual := model.Qualification{Qualified: true, Tier: model.QualTier2, Score: 0.6}

	p := BuildPayload(company, scores, qual, campaign, bundle, 0, fixedNow)

	assert.Equal(t, "Acme", p.CompanyName)
	assert.Equal(t, "dana@acme.com", p.ContactEmail)
	assert.Equal(t, "TIER_B_ACTIVE", p.TAMTier)
	assert.Equal(t, 62.5, p.PSIScore)
	assert.Equal(t, 48.0, p.PSIAveraged)
	assert.Equal(t, "EDP7_Sales_Enablement", p.PrimaryEDP)
	assert.Equal(t, 80.0, p.EDPScores["EDP7_Sales_Enablement"])
	assert.Equal(t, "ISC West", p.TradeShow)
	assert.Equal(t, model.QualTier2, p.Qualification.Tier)
	assert.Equal(t, []string{
		"No product search functionality",
		"No mobile viewport meta tag",
		"Heavy page: 2.1 MB",
	}, p.Evidence, "primary EDP findings come first")
	assert.Equal(t, "c-1", p.CampaignID)
	assert.Len(t, p.EmailSequence, 1)
	assert.Len(t, p.AdSequence, 1)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, key := range []string{"edp_scores", "email_sequence", "linkedin_sequence", "ad_sequence", "evidence"} {
		assert.Contains(t, m, key)
	}
}

func TestBuildPayloadCapsEvidence(t *testing.T) {
	t.Parallel()

	company, scores, campaign, bundle := sampleInputs()
	p := BuildPayload(company, scores, model.Qualification{}, campaign, bundle, 2, fixedNow)
	assert.Len(t, p.Evidence, 2)
}

func TestBuildPayloadWithoutCampaign(t *testing.T) {
	t.Parallel()

	company, _, _, _ := sampleInputs()
	p := BuildPayload(company, nil, model.Qualification{}, nil, nil, 5, fixedNow)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"email_sequence":[]`)
	assert.Contains(t, string(raw), `"evidence":[]`)
}
