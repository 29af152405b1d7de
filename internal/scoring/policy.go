// Package scoring turns an evidence bundle and firmographics into per-EDP
// pain scores, the weighted and averaged pain severity index (PSI), and a
// TAM tier for each methodology.
package scoring

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/gtm-cli/internal/config"
	"github.com/sells-group/gtm-cli/internal/model"
)

// Kind selects the tiering profile.
type Kind string

const (
	// KindDual tiers each methodology into A/B/C by its own thresholds.
	KindDual Kind = "dual"
	// KindTAM tiers into 1-4 by PSI or by the count of painful EDPs.
	KindTAM Kind = "tam"
)

// Dual tiers.
const (
	TierAImmediate = "TIER_A_IMMEDIATE"
	TierBActive    = "TIER_B_ACTIVE"
	TierCMonitor   = "TIER_C_MONITOR"
)

// TAM tiers.
const (
	Tier1Immediate = "TIER_1_IMMEDIATE"
	Tier2Active    = "TIER_2_ACTIVE"
	Tier3Nurture   = "TIER_3_NURTURE"
	Tier4Monitor   = "TIER_4_MONITOR"
)

// Policy is the tagged scoring configuration. Both profiles share the
// calculator; only these numbers differ.
type Policy struct {
	Kind Kind `json:"kind"`
	// WeightedTiers and AveragedTiers are the A and B cutoffs for dual.
	WeightedTiers [2]float64 `json:"weighted_tiers"`
	AveragedTiers [2]float64 `json:"averaged_tiers"`
	// TAMTiers are the PSI cutoffs for tiers 1, 2 and 3.
	TAMTiers [3]float64 `json:"tam_tiers"`
	// PainThreshold is the EDP score at which an EDP counts as painful.
	PainThreshold float64             `json:"pain_threshold"`
	Unknown       model.UnknownPolicy `json:"unknown_policy"`
	// NeutralScore replaces the website component when the site could not
	// be fetched.
	NeutralScore float64 `json:"neutral_score"`
}

// DefaultPolicy is the dual profile.
func DefaultPolicy() Policy {
	return Policy{
		Kind:          KindDual,
		WeightedTiers: [2]float64{70, 40},
		AveragedTiers: [2]float64{60, 35},
		TAMTiers:      [3]float64{70, 50, 30},
		PainThreshold: 60,
		Unknown:       model.UnknownPessimistic,
		NeutralScore:  50,
	}
}

// TAMPolicy is the multi-source profile.
func TAMPolicy() Policy {
	p := DefaultPolicy()
	p.Kind = KindTAM
	return p
}

// ParsePolicyKind parses "dual" or "tam". Blank means dual.
func ParsePolicyKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindDual:
		return KindDual, nil
	case KindTAM:
		return KindTAM, nil
	default:
		return "", eris.Errorf("scoring: unknown policy kind %q", s)
	}
}

// PolicyFromConfig overlays the scoring config on DefaultPolicy. Slices
// shorter than the tier count keep the defaults for the missing entries.
func PolicyFromConfig(cfg config.ScoringConfig) (Policy, error) {
	p := DefaultPolicy()

	kind, err := ParsePolicyKind(cfg.Policy)
	if err != nil {
		return p, err
	}
	p.Kind = kind

	unknown, ok := model.ParseUnknownPolicy(cfg.UnknownPolicy)
	if !ok {
		return p, eris.Errorf("scoring: unknown unknown_policy %q", cfg.UnknownPolicy)
	}
	p.Unknown = unknown

	copy(p.WeightedTiers[:], cfg.WeightedTiers)
	copy(p.AveragedTiers[:], cfg.AveragedTiers)
	copy(p.TAMTiers[:], cfg.TAMTiers)
	if cfg.PainThreshold > 0 {
		p.PainThreshold = cfg.PainThreshold
	}
	if cfg.NeutralScore > 0 {
		p.NeutralScore = cfg.NeutralScore
	}
	return p, nil
}

// Tier maps a PSI to a tier. painful is the number of EDPs at or above
// PainThreshold and only matters for the TAM profile.
func (p Policy) Tier(psi float64, painful int, averaged bool) string {
	if p.Kind == KindTAM {
		switch {
		case psi >= p.TAMTiers[0] || painful >= 3:
			return Tier1Immediate
		case psi >= p.TAMTiers[1] || painful >= 2:
			return Tier2Active
		case psi >= p.TAMTiers[2] || painful >= 1:
			return Tier3Nurture
		default:
			return Tier4Monitor
		}
	}

	cut := p.WeightedTiers
	if averaged {
		cut = p.AveragedTiers
	}
	switch {
	case psi >= cut[0]:
		return TierAImmediate
	case psi >= cut[1]:
		return TierBActive
	default:
		return TierCMonitor
	}
}

// IsHotTier reports whether tier is the top tier of either profile.
func IsHotTier(tier string) bool {
	return tier == TierAImmediate || tier == Tier1Immediate
}

// indicatorPoints applies the unknown policy to one indicator.
func (p Policy) indicatorPoints(ind model.Indicator) float64 {
	switch ind.State {
	case model.StatePresent:
		return ind.Points
	case model.StateUnknown:
		switch p.Unknown {
		case model.UnknownNeutral:
			return ind.Points / 2
		case model.UnknownIgnore:
			return 0
		default:
			return ind.Points
		}
	default:
		return 0
	}
}
