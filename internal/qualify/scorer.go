package qualify

import (
	"math"
	"time"

	"github.com/sells-group/gtm-cli/internal/model"
)

// Option configures a Scorer.
type Option func(*Scorer)

// WithClock overrides the time source used by days_ago_less_than.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// WithUnknownPolicy sets how criteria on missing fields are counted.
func WithUnknownPolicy(p model.UnknownPolicy) Option {
	return func(s *Scorer) { s.unknown = p }
}

// Scorer applies a rule set to companies. It holds no mutable state.
type Scorer struct {
	rules   Rules
	unknown model.UnknownPolicy
	now     func() time.Time
}

// NewScorer returns a scorer with pessimistic handling of unknown fields
// unless overridden.
func NewScorer(rules Rules, opts ...Option) *Scorer {
	s := &Scorer{rules: rules, unknown: model.UnknownPessimistic, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Rules returns the scorer's rule set.
func (s *Scorer) Rules() Rules { return s.rules }

// Qualify runs disqualifiers, then tier 1, then the blended score.
func (s *Scorer) Qualify(company *model.Company) model.Qualification {
	now := s.now()
	var q model.Qualification

	for _, c := range s.rules.Disqualifiers {
		switch c.Evaluate(company, now) {
		case Met:
			return model.Qualification{
				Tier:    model.QualDisqualified,
				Reasons: []string{"disqualified: " + c.String()},
			}
		case Unknown:
			q.Unknown = appendUnique(q.Unknown, c.Field)
		}
	}

	t1 := s.tally(s.rules.Tier1, company, now, &q, false)
	t2 := s.tally(s.rules.Tier2, company, now, &q, true)

	q.Score = round4(math.Min(1, 0.7*t1.fraction()+0.3*t2.fraction()))

	switch {
	case t1.met == len(s.rules.Tier1):
		q.Tier = model.QualTier1
	case t2.met >= s.rules.Tier2MinMet && q.Score >= s.rules.Tier2MinScore:
		q.Tier = model.QualTier2
	case q.Score >= s.rules.Tier3MinScore:
		q.Tier = model.QualTier3
	default:
		q.Tier = model.QualUnqualified
	}
	q.Qualified = q.Tier == model.QualTier1 || q.Tier == model.QualTier2
	return q
}

type tally struct {
	met        int
	num, denom float64
}

func (t tally) fraction() float64 {
	if t.denom == 0 {
		return 0
	}
	return t.num / t.denom
}

// tally counts one criterion group. Under the neutral policy unknown
// criteria leave the denominator.
func (s *Scorer) tally(cs []Criterion, company *model.Company, now time.Time, q *model.Qualification, weighted bool) tally {
	var t tally
	for _, c := range cs {
		w := 1.0
		if weighted {
			w = c.Weight
		}
		switch c.Evaluate(company, now) {
		case Met:
			t.met++
			t.num += w
			t.denom += w
			q.Reasons = append(q.Reasons, c.String())
		case Unknown:
			q.Unknown = appendUnique(q.Unknown, c.Field)
			if s.unknown != model.UnknownNeutral {
				t.denom += w
			}
		default:
			t.denom += w
		}
	}
	return t
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
