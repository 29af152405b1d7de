package model

// ScoreComponents breaks one EDP score into its additive parts.
type ScoreComponents struct {
	Website    float64 `json:"website"`
	Findings   float64 `json:"findings"`
	Attributes float64 `json:"attributes"`
	Raw        float64 `json:"raw"`
	Final      float64 `json:"final"`
}

// PainScores is the output of the PSI calculator.
type PainScores struct {
	Policy             string                     `json:"policy"`
	EDPScores          map[string]float64         `json:"edp_scores"`
	Components         map[string]ScoreComponents `json:"components,omitempty"`
	WeightedPSI        float64                    `json:"weighted_psi"`
	AveragedPSI        float64                    `json:"averaged_psi"`
	PrimaryEDPWeighted string                     `json:"primary_edp_weighted"`
	PrimaryEDPAveraged string                     `json:"primary_edp_averaged"`
	TierWeighted       string                     `json:"tier_weighted"`
	TierAveraged       string                     `json:"tier_averaged"`
	PainfulEDPs        int                        `json:"painful_edps"`
	Multiplier         float64                    `json:"urgency_multiplier"`
	TradeShow          string                     `json:"trade_show,omitempty"`
	DaysUntilShow      int                        `json:"days_until_show,omitempty"`
}

// QualificationTier is the outreach eligibility bucket.
type QualificationTier string

const (
	QualTier1        QualificationTier = "tier_1"
	QualTier2        QualificationTier = "tier_2"
	QualTier3        QualificationTier = "tier_3"
	QualUnqualified  QualificationTier = "unqualified"
	QualDisqualified QualificationTier = "disqualified"
)

// Qualification is the output of the qualification scorer.
type Qualification struct {
	Qualified bool              `json:"qualified"`
	Tier      QualificationTier `json:"tier"`
	Score     float64           `json:"score"`
	Reasons   []string          `json:"reasons,omitempty"`
	Unknown   []string          `json:"unknown_fields,omitempty"`
}

// UnknownPolicy decides how an indicator or criterion that could not be
// evaluated is counted.
type UnknownPolicy string

const (
	// UnknownPessimistic counts unknown indicators as present and unknown
	// criteria as unmet.
	UnknownPessimistic UnknownPolicy = "pessimistic"
	// UnknownNeutral gives unknown indicators half their points and drops
	// unknown criteria from the denominators.
	UnknownNeutral UnknownPolicy = "neutral"
	// UnknownIgnore gives unknown indicators no points and counts unknown
	// criteria as unmet.
	UnknownIgnore UnknownPolicy = "ignore"
)

// ParseUnknownPolicy parses s, defaulting to pessimistic when blank.
func ParseUnknownPolicy(s string) (UnknownPolicy, bool) {
	switch UnknownPolicy(s) {
	case "":
		return UnknownPessimistic, true
	case UnknownPessimistic, UnknownNeutral, UnknownIgnore:
		return UnknownPolicy(s), true
	default:
		return "", false
	}
}
