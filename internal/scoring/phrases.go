package scoring

import (
	"strings"

	"github.com/sells-group/gtm-cli/internal/model"
)

type phrase struct {
	text   string
	points float64
}

// findingPhrases are matched only against findings of the EDP they belong
// to, so a "no mobile" finding under EDP3 never lifts EDP7.
var findingPhrases = map[string][]phrase{
	"EDP1": {
		{"pdf catalog", 10},
		{"no product filtering", 10},
		{"large catalog", 5},
		{"catalog request", 5},
		{"no category navigation", 5},
	},
	"EDP2": {
		{"call for pricing", 10},
		{"missing product images", 10},
		{"stale content", 10},
		{"no spec sheets", 10},
	},
	"EDP3": {
		{"no mobile viewport", 10},
		{"outdated copyright", 5},
		{"legacy technology", 15},
		{"no modern framework", 5},
		{"heavy page", 5},
	},
	"EDP6": {
		{"dealer locator", 10},
		{"direct ecommerce", 15},
		{"map policy", 10},
		{"multiple brands", 5},
	},
	"EDP7": {
		{"no product search", 15},
		{"no mobile", 10},
		{"no ssl", 10},
		{"no rep portal", 10},
		{"no online ordering", 5},
	},
}

// findingsScore adds each phrase of the EDP's table at most once.
func findingsScore(prefix string, findings []string) float64 {
	table := findingPhrases[prefix]
	if len(table) == 0 || len(findings) == 0 {
		return 0
	}

	lower := make([]string, len(findings))
	for i, f := range findings {
		lower[i] = strings.ToLower(f)
	}

	var total float64
	for _, p := range table {
		for _, f := range lower {
			if strings.Contains(f, p.text) {
				total += p.points
				break
			}
		}
	}
	return total
}

// externalFindings drops findings that restate a present indicator's
// evidence. Those points are already in the website component.
func externalFindings(findings []string, inds []model.Indicator) []string {
	if len(findings) == 0 || len(inds) == 0 {
		return findings
	}
	seen := make(map[string]bool, len(inds))
	for _, ind := range inds {
		if ind.State == model.StatePresent && ind.Evidence != "" {
			seen[ind.Evidence] = true
		}
	}
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		if !seen[f] {
			out = append(out, f)
		}
	}
	return out
}
