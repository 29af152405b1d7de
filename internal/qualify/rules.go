package qualify

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Rules is the full qualification rule set.
type Rules struct {
	Disqualifiers []Criterion `json:"disqualifiers" yaml:"disqualifiers"`
	Tier1         []Criterion `json:"tier1" yaml:"tier1"`
	Tier2         []Criterion `json:"tier2" yaml:"tier2"`

	// Tier2MinMet is how many tier 2 criteria must pass.
	Tier2MinMet   int     `json:"tier2_min_met" yaml:"tier2_min_met"`
	Tier2MinScore float64 `json:"tier2_min_score" yaml:"tier2_min_score"`
	Tier3MinScore float64 `json:"tier3_min_score" yaml:"tier3_min_score"`
}

// DefaultRules returns the built-in rule set.
func DefaultRules() Rules {
	return Rules{
		Disqualifiers: []Criterion{
			{Field: "field_sales_count", Op: OpLte, Value: 2},
			{Field: "b2c_only", Op: OpEq, Value: true},
			{Field: "catalog_sku_count", Op: OpLte, Value: 99},
		},
		Tier1: []Criterion{
			{Field: "employee_count", Op: OpGte, Value: 50},
			{Field: "catalog_sku_count", Op: OpGte, Value: 1000},
			{Field: "channel_count", Op: OpGte, Value: 2},
			{Field: "industry", Op: OpIn, Value: []string{"manufacturing", "distribution", "wholesale", "industrial supply"}},
			{Field: "last_trade_show_at", Op: OpDaysAgoLessThan, Value: 365},
		},
		Tier2: []Criterion{
			{Field: "employee_count", Op: OpGte, Value: 20, Weight: 1.0},
			{Field: "catalog_sku_count", Op: OpGte, Value: 500, Weight: 1.0},
			{Field: "rep_count", Op: OpGte, Value: 5, Weight: 1.0},
			{Field: "current_erp", Op: OpIn, Value: []string{
				"SAP", "Oracle", "NetSuite", "Microsoft Dynamics", "Epicor", "Infor", "Sage", "Acumatica", "Epicor Prophet 21",
			}, Weight: 0.5},
			{Field: "brand_count", Op: OpGte, Value: 2, Weight: 0.5},
			{Field: "has_dealer_network", Op: OpEq, Value: true, Weight: 1.0},
		},
		Tier2MinMet:   3,
		Tier2MinScore: 0.5,
		Tier3MinScore: 0.3,
	}
}

// Validate rejects empty tier lists, unknown operators and negative weights.
func (r Rules) Validate() error {
	var errs []string
	if len(r.Tier1) == 0 {
		errs = append(errs, "tier1 is empty")
	}
	if len(r.Tier2) == 0 {
		errs = append(errs, "tier2 is empty")
	}
	check := func(group string, cs []Criterion) {
		for i, c := range cs {
			switch c.Op {
			case OpEq, OpGte, OpLte, OpIn, OpDaysAgoLessThan:
			default:
				errs = append(errs, fmt.Sprintf("%s[%d] has unknown operator %q", group, i, c.Op))
			}
			if strings.TrimSpace(c.Field) == "" {
				errs = append(errs, fmt.Sprintf("%s[%d] has empty field", group, i))
			}
			if c.Weight < 0 {
				errs = append(errs, fmt.Sprintf("%s[%d] has negative weight", group, i))
			}
		}
	}
	check("disqualifiers", r.Disqualifiers)
	check("tier1", r.Tier1)
	check("tier2", r.Tier2)

	if len(errs) > 0 {
		return eris.Errorf("qualify: invalid rules: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadRules reads a rule set from JSON or YAML. An empty path or missing file
// returns DefaultRules. Thresholds left at zero keep their defaults.
func LoadRules(path string) (Rules, error) {
	def := DefaultRules()
	if path == "" {
		return def, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Warn("qualify: rules file not found, using built-in rules", zap.String("path", path))
		return def, nil
	}
	if err != nil {
		return Rules{}, eris.Wrap(err, "qualify: read rules")
	}

	var r Rules
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &r)
	default:
		err = json.Unmarshal(data, &r)
	}
	if err != nil {
		return Rules{}, eris.Wrapf(err, "qualify: parse %s", path)
	}

	if r.Tier2MinMet == 0 {
		r.Tier2MinMet = def.Tier2MinMet
	}
	if r.Tier2MinScore == 0 {
		r.Tier2MinScore = def.Tier2MinScore
	}
	if r.Tier3MinScore == 0 {
		r.Tier3MinScore = def.Tier3MinScore
	}
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}
