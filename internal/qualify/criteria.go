// Package qualify decides whether a company is worth outreach. Disqualifiers
// short-circuit, then tier 1 needs every criterion, then tier 2 and tier 3
// fall out of a blended score.
package qualify

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/gtm-cli/internal/model"
)

// Operator compares a company field against a criterion value.
type Operator string

const (
	OpEq              Operator = "=="
	OpGte             Operator = ">="
	OpLte             Operator = "<="
	OpIn              Operator = "in"
	OpDaysAgoLessThan Operator = "days_ago_less_than"
)

// Outcome is the three-valued result of one criterion.
type Outcome int

const (
	Unmet Outcome = iota
	Met
	Unknown
)

func (o Outcome) String() string {
	switch o {
	case Met:
		return "met"
	case Unknown:
		return "unknown"
	default:
		return "unmet"
	}
}

// Criterion is a single field comparison. Weight only matters for tier 2.
type Criterion struct {
	Field  string   `json:"field" yaml:"field"`
	Op     Operator `json:"op" yaml:"op"`
	Value  any      `json:"value" yaml:"value"`
	Weight float64  `json:"weight,omitempty" yaml:"weight,omitempty"`
}

func (c Criterion) String() string {
	if list, ok := toStrings(c.Value); ok && c.Op == OpIn {
		return fmt.Sprintf("%s in [%s]", c.Field, strings.Join(list, ", "))
	}
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
}

// Evaluate compares the company's field. A missing field, or a value of the
// wrong type for the operator, is Unknown.
func (c Criterion) Evaluate(company *model.Company, now time.Time) Outcome {
	if company == nil {
		return Unknown
	}
	got, ok := company.Attribute(c.Field)
	if !ok {
		return Unknown
	}

	switch c.Op {
	case OpEq:
		return equal(got, c.Value)
	case OpGte, OpLte:
		a, okA := toFloat(got)
		b, okB := toFloat(c.Value)
		if !okA || !okB {
			return Unknown
		}
		if c.Op == OpGte {
			return outcome(a >= b)
		}
		return outcome(a <= b)
	case OpIn:
		s, okS := got.(string)
		list, okL := toStrings(c.Value)
		if !okS || !okL {
			return Unknown
		}
		for _, v := range list {
			if strings.EqualFold(strings.TrimSpace(s), v) {
				return Met
			}
		}
		return Unmet
	case OpDaysAgoLessThan:
		t, okT := got.(time.Time)
		days, okD := toFloat(c.Value)
		if !okT || !okD {
			return Unknown
		}
		return outcome(now.Sub(t).Hours()/24 < days)
	}
	return Unknown
}

func outcome(b bool) Outcome {
	if b {
		return Met
	}
	return Unmet
}

func equal(got, want any) Outcome {
	switch g := got.(type) {
	case bool:
		w, ok := want.(bool)
		if !ok {
			return Unknown
		}
		return outcome(g == w)
	case string:
		w, ok := want.(string)
		if !ok {
			return Unknown
		}
		return outcome(strings.EqualFold(g, w))
	default:
		a, okA := toFloat(got)
		b, okB := toFloat(want)
		if !okA || !okB {
			return Unknown
		}
		return outcome(a == b)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

// toStrings accepts []string or the []any YAML and JSON decode into.
func toStrings(v any) ([]string, bool) {
	switch l := v.(type) {
	case []string:
		return l, true
	case []any:
		out := make([]string, 0, len(l))
		for _, x := range l {
			s, ok := x.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
