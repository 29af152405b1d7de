// Package webhook builds and delivers the marketing-platform payload and
// runs the receiver that accepts those payloads for inspection.
package webhook

import (
	"sort"
	"time"

	"github.com/sells-group/gtm-cli/internal/model"
)

// DefaultMaxEvidence caps the evidence list in a payload.
const DefaultMaxEvidence = 10

// Payload is the JSON body POSTed to the marketing platform.
type Payload struct {
	CompanyName string `json:"company_name"`
	Domain      string `json:"domain"`

	ContactFirstName string `json:"contact_first_name,omitempty"`
	ContactLastName  string `json:"contact_last_name,omitempty"`
	ContactEmail     string `json:"contact_email,omitempty"`
	ContactTitle     string `json:"contact_title,omitempty"`
	LinkedInURL      string `json:"linkedin_url,omitempty"`

	TAMTier            string             `json:"tam_tier"`
	TierAveraged       string             `json:"tier_averaged"`
	PSIScore           float64            `json:"psi_score"`
	PSIAveraged        float64            `json:"psi_averaged"`
	PrimaryEDP         string             `json:"primary_edp"`
	PrimaryEDPAveraged string             `json:"primary_edp_averaged"`
	EDPScores          map[string]float64 `json:"edp_scores"`
	UrgencyMultiplier  float64            `json:"urgency_multiplier"`
	TradeShow          string             `json:"trade_show,omitempty"`
	DaysUntilShow      int                `json:"days_until_show,omitempty"`

	Qualification model.Qualification `json:"qualification"`
	Evidence      []string            `json:"evidence"`

	CampaignID       string               `json:"campaign_id,omitempty"`
	EmailSequence    []model.Message      `json:"email_sequence"`
	LinkedInSequence []model.Message      `json:"linkedin_sequence"`
	AdSequence       []model.AdSuggestion `json:"ad_sequence"`

	GeneratedAt time.Time `json:"generated_at"`
}

// BuildPayload assembles a payload. Evidence lists the primary EDP's
// findings first, then the rest by EDP id, capped at maxEvidence
// (DefaultMaxEvidence when <= 0).
func BuildPayload(company *model.Company, scores *model.PainScores, qual model.Qualification,
	campaign *model.Campaign, bundle *model.EvidenceBundle, maxEvidence int, now time.Time,
) Payload {
	if maxEvidence <= 0 {
		maxEvidence = DefaultMaxEvidence
	}

	p := Payload{
		CompanyName:      company.DisplayName(),
		Domain:           company.Domain,
		ContactFirstName: company.Contact.FirstName,
		ContactLastName:  company.Contact.LastName,
		ContactEmail:     company.Contact.Email,
		ContactTitle:     company.Contact.Title,
		LinkedInURL:      company.Contact.LinkedInURL,
		Qualification:    qual,
		Evidence:         []string{},
		EmailSequence:    []model.Message{},
		LinkedInSequence: []model.Message{},
		AdSequence:       []model.AdSuggestion{},
		GeneratedAt:      now.UTC(),
	}

	if scores != nil {
		p.TAMTier = scores.TierWeighted
		p.TierAveraged = scores.TierAveraged
		p.PSIScore = scores.WeightedPSI
		p.PSIAveraged = scores.AveragedPSI
		p.PrimaryEDP = scores.PrimaryEDPWeighted
		p.PrimaryEDPAveraged = scores.PrimaryEDPAveraged
		p.EDPScores = scores.EDPScores
		p.UrgencyMultiplier = scores.Multiplier
		p.TradeShow = scores.TradeShow
		p.DaysUntilShow = scores.DaysUntilShow
	}

	if bundle != nil {
		order := []string{p.PrimaryEDP}
		rest := make([]string, 0, len(bundle.Findings))
		for id := range bundle.Findings {
			if id != p.PrimaryEDP {
				rest = append(rest, id)
			}
		}
		sort.Strings(rest)
		if ev := bundle.EvidenceList(append(order, rest...), maxEvidence); len(ev) > 0 {
			p.Evidence = ev
		}
	}

	if campaign != nil {
		p.CampaignID = campaign.ID
		if len(campaign.EmailSequence) > 0 {
			p.EmailSequence = campaign.EmailSequence
		}
		if len(campaign.LinkedInSequence) > 0 {
			p.LinkedInSequence = campaign.LinkedInSequence
		}
		if len(campaign.AdSuggestions) > 0 {
			p.AdSequence = campaign.AdSuggestions
		}
	}
	return p
}
