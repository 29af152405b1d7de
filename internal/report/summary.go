// Package report summarizes pipeline results by tier and renders the
// summary as terminal tables, markdown and result files.
package report

import (
	"sort"
	"time"

	"github.com/sells-group/gtm-cli/internal/model"
	"github.com/sells-group/gtm-cli/internal/pipeline"
	"github.com/sells-group/gtm-cli/internal/scoring"
)

// DefaultTopN is how many hot companies a summary lists.
const DefaultTopN = 10

// Ranked is one company in the hot list.
type Ranked struct {
	Name       string  `json:"company_name"`
	Domain     string  `json:"domain"`
	Tier       string  `json:"tier"`
	PSI        float64 `json:"psi_score"`
	PrimaryEDP string  `json:"primary_edp"`
}

// Summary aggregates a set of results.
type Summary struct {
	Total     int `json:"total"`
	Scored    int `json:"scored"`
	Failed    int `json:"failed"`
	Qualified int `json:"qualified"`

	WeightedTiers      map[string]int `json:"weighted_tiers"`
	AveragedTiers      map[string]int `json:"averaged_tiers"`
	QualificationTiers map[string]int `json:"qualification_tiers"`
	PrimaryEDPs        map[string]int `json:"primary_edps"`
	SkipReasons        map[string]int `json:"skip_reasons,omitempty"`

	MeanPSIWeighted float64 `json:"mean_psi_weighted"`
	MeanPSIAveraged float64 `json:"mean_psi_averaged"`

	CampaignsCreated int `json:"campaigns_created"`
	WebhooksSent     int `json:"webhooks_sent"`
	WebhookFailures  int `json:"webhook_failures"`

	Hot         []Ranked  `json:"hot"`
	GeneratedAt time.Time `json:"generated_at"`
}

func newSummary(now time.Time) Summary {
	return Summary{
		WeightedTiers:      map[string]int{},
		AveragedTiers:      map[string]int{},
		QualificationTiers: map[string]int{},
		PrimaryEDPs:        map[string]int{},
		SkipReasons:        map[string]int{},
		GeneratedAt:        now.UTC(),
	}
}

// Summarize aggregates pipeline results. Results without scores count as
// failed.
func Summarize(results []*pipeline.Result, now time.Time) Summary {
	s := newSummary(now)
	var sumW, sumA float64

	for _, r := range results {
		if r == nil {
			continue
		}
		s.Total++
		if r.Scores == nil {
			s.Failed++
			continue
		}
		if r.Error != "" {
			s.Failed++
		}
		s.Scored++
		sumW += r.Scores.WeightedPSI
		sumA += r.Scores.AveragedPSI
		s.WeightedTiers[r.Scores.TierWeighted]++
		s.AveragedTiers[r.Scores.TierAveraged]++
		if r.Scores.PrimaryEDPWeighted != "" {
			s.PrimaryEDPs[r.Scores.PrimaryEDPWeighted]++
		}
		if r.Qualification.Tier != "" {
			s.QualificationTiers[string(r.Qualification.Tier)]++
		}
		if r.Qualification.Qualified {
			s.Qualified++
		}
		if r.SkipReason != "" {
			s.SkipReasons[r.SkipReason]++
		}
		if r.Campaign != nil {
			s.CampaignsCreated++
		}
		if r.WebhookSent {
			s.WebhooksSent++
		}
		if r.WebhookError != "" {
			s.WebhookFailures++
		}
		if scoring.IsHotTier(r.Scores.TierWeighted) && r.Company != nil {
			s.Hot = append(s.Hot, Ranked{
				Name:       r.Company.DisplayName(),
				Domain:     r.Company.Domain,
				Tier:       r.Scores.TierWeighted,
				PSI:        r.Scores.WeightedPSI,
				PrimaryEDP: r.Scores.PrimaryEDPWeighted,
			})
		}
	}

	if s.Scored > 0 {
		s.MeanPSIWeighted = round2(sumW / float64(s.Scored))
		s.MeanPSIAveraged = round2(sumA / float64(s.Scored))
	}
	sort.SliceStable(s.Hot, func(i, j int) bool { return s.Hot[i].PSI > s.Hot[j].PSI })
	if len(s.Hot) > DefaultTopN {
		s.Hot = s.Hot[:DefaultTopN]
	}
	return s
}

// SummarizeCompanies aggregates stored companies using their persisted
// scores.
func SummarizeCompanies(companies []model.Company, now time.Time) Summary {
	results := make([]*pipeline.Result, 0, len(companies))
	for i := range companies {
		c := &companies[i]
		results = append(results, &pipeline.Result{
			Company: c,
			Scores: &model.PainScores{
				EDPScores:          c.EDPScores,
				WeightedPSI:        c.PSIScore,
				AveragedPSI:        c.PSIAveraged,
				PrimaryEDPWeighted: c.PrimaryEDP,
				PrimaryEDPAveraged: c.PrimaryEDPAveraged,
				TierWeighted:       c.TAMTier,
				TierAveraged:       c.TierAveraged,
			},
			Qualification: model.Qualification{
				Qualified: c.Qualified,
				Tier:      c.QualificationTier,
				Score:     c.QualificationScore,
			},
		})
	}
	return Summarize(results, now)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
