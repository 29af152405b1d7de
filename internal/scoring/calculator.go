package scoring

import (
	"math"
	"time"

	"github.com/sells-group/gtm-cli/internal/edp"
	"github.com/sells-group/gtm-cli/internal/model"
)

// Calculator scores companies against a registry under a policy.
type Calculator struct {
	registry *edp.Registry
	policy   Policy
}

// NewCalculator returns a calculator. A nil registry uses edp.Default().
func NewCalculator(registry *edp.Registry, policy Policy) *Calculator {
	if registry == nil {
		registry = edp.Default()
	}
	return &Calculator{registry: registry, policy: policy}
}

// Policy returns the calculator's policy.
func (c *Calculator) Policy() Policy { return c.policy }

// Registry returns the calculator's EDP registry.
func (c *Calculator) Registry() *edp.Registry { return c.registry }

// Score computes every EDP score and both PSIs. A nil bundle or one carrying
// Error gets NeutralScore as its website component. The trade-show
// multiplier is applied once, after the first clamp.
func (c *Calculator) Score(company *model.Company, bundle *model.EvidenceBundle, now time.Time) *model.PainScores {
	out := &model.PainScores{
		Policy:     string(c.policy.Kind),
		EDPScores:  make(map[string]float64, c.registry.Len()),
		Components: make(map[string]model.ScoreComponents, c.registry.Len()),
		Multiplier: 1.0,
	}

	if company != nil {
		if show, days, ok := SoonestShow(company.TradeShows, now); ok {
			out.Multiplier = UrgencyMultiplier(days)
			out.TradeShow = show.Name
			out.DaysUntilShow = days
		}
	}

	failed := bundle == nil || bundle.Error != ""
	for _, def := range c.registry.All() {
		prefix := def.Prefix()
		var comp model.ScoreComponents

		if failed {
			comp.Website = c.policy.NeutralScore
		} else {
			inds := bundle.IndicatorsFor(def.ID)
			for _, ind := range inds {
				comp.Website += c.policy.indicatorPoints(ind)
			}
			comp.Findings = findingsScore(prefix, externalFindings(bundle.Findings[def.ID], inds))
		}
		comp.Attributes = attributeScore(prefix, company, bundle)

		comp.Raw = clamp(comp.Website + comp.Findings + comp.Attributes)
		comp.Final = round2(clamp(comp.Raw * out.Multiplier))

		out.Components[def.ID] = comp
		out.EDPScores[def.ID] = comp.Final
		if comp.Final >= c.policy.PainThreshold {
			out.PainfulEDPs++
		}
	}

	out.AveragedPSI = round2(c.averaged(out.EDPScores))
	out.WeightedPSI = round2(c.weighted(out.EDPScores, out.AveragedPSI))
	out.PrimaryEDPWeighted = c.primary(out.EDPScores, true)
	out.PrimaryEDPAveraged = c.primary(out.EDPScores, false)
	out.TierWeighted = c.policy.Tier(out.WeightedPSI, out.PainfulEDPs, false)
	out.TierAveraged = c.policy.Tier(out.AveragedPSI, out.PainfulEDPs, true)
	return out
}

func (c *Calculator) averaged(scores map[string]float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// weighted renormalizes by the weight sum so the result stays in [0,100]
// whatever the weights add up to.
func (c *Calculator) weighted(scores map[string]float64, fallback float64) float64 {
	var num, den float64
	for _, def := range c.registry.All() {
		num += scores[def.ID] * def.WonDealWeight
		den += def.WonDealWeight
	}
	if den == 0 {
		return fallback
	}
	return num / den
}

// primary is the argmax of score (times weight when weighted). Ties go to
// the EDP defined first.
func (c *Calculator) primary(scores map[string]float64, weighted bool) string {
	best, bestVal := "", math.Inf(-1)
	for _, def := range c.registry.All() {
		v := scores[def.ID]
		if weighted {
			v *= def.WonDealWeight
		}
		if v > bestVal {
			best, bestVal = def.ID, v
		}
	}
	return best
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
