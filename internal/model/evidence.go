package model

import (
	"sort"
	"time"
)

// IndicatorState is the three-valued outcome of a single check.
type IndicatorState string

const (
	// StatePresent means the pain signal was confirmed.
	StatePresent IndicatorState = "present"
	// StateAbsent means the signal was confirmed not to apply.
	StateAbsent IndicatorState = "absent"
	// StateUnknown means the check could not be evaluated.
	StateUnknown IndicatorState = "unknown"
)

// Indicator is one named website signal. Keys are namespaced by EDP id
// (e.g. "EDP7_No_Search").
type Indicator struct {
	Key      string         `json:"key"`
	EDP      string         `json:"edp"`
	State    IndicatorState `json:"state"`
	Points   float64        `json:"points"`
	Value    any            `json:"value,omitempty"`
	Evidence string         `json:"evidence,omitempty"`
}

// EvidenceBundle is the result of one website scan. It is never persisted in
// full; scores summarize it.
type EvidenceBundle struct {
	Domain     string               `json:"domain"`
	URL        string               `json:"url"`
	FinalURL   string               `json:"final_url,omitempty"`
	Renderer   string               `json:"renderer,omitempty"`
	Pages      []string             `json:"pages,omitempty"`
	Indicators map[string]Indicator `json:"indicators"`
	Findings   map[string][]string  `json:"specific_findings"`
	Error      string               `json:"error,omitempty"`
	FetchedAt  time.Time            `json:"fetched_at"`
}

// NewEvidenceBundle returns an empty bundle for domain.
func NewEvidenceBundle(domain string) *EvidenceBundle {
	return &EvidenceBundle{
		Domain:     domain,
		Indicators: make(map[string]Indicator),
		Findings:   make(map[string][]string),
	}
}

// Add records an indicator and, when present, its evidence as a finding.
func (b *EvidenceBundle) Add(ind Indicator) {
	b.Indicators[ind.Key] = ind
	if ind.State == StatePresent && ind.Evidence != "" {
		b.Findings[ind.EDP] = append(b.Findings[ind.EDP], ind.Evidence)
	}
}

// IndicatorsFor returns the indicators belonging to edp, sorted by key.
func (b *EvidenceBundle) IndicatorsFor(edp string) []Indicator {
	var out []Indicator
	for _, ind := range b.Indicators {
		if ind.EDP == edp {
			out = append(out, ind)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Signals flattens the bundle into indicator key -> value. Indicators without
// an explicit value map to whether they are present.
func (b *EvidenceBundle) Signals() map[string]any {
	out := make(map[string]any, len(b.Indicators))
	for k, ind := range b.Indicators {
		if ind.Value != nil {
			out[k] = ind.Value
			continue
		}
		out[k] = ind.State == StatePresent
	}
	return out
}

// EvidenceList returns findings in the given EDP order, capped at limit
// (limit <= 0 means no cap).
func (b *EvidenceBundle) EvidenceList(order []string, limit int) []string {
	var out []string
	for _, edp := range order {
		for _, f := range b.Findings[edp] {
			if limit > 0 && len(out) >= limit {
				return out
			}
			out = append(out, f)
		}
	}
	return out
}
