package pipeline

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/gtm-cli/internal/config"
	"github.com/sells-group/gtm-cli/internal/model"
)

// Calendar maps trade show names to start dates. Lookups are
// case-insensitive.
type Calendar struct {
	dates map[string]time.Time
}

// NewCalendar builds a calendar from known shows. Later entries override
// earlier ones; shows without a date are ignored.
func NewCalendar(shows ...model.TradeShow) *Calendar {
	c := &Calendar{dates: make(map[string]time.Time, len(shows))}
	for _, s := range shows {
		c.Add(s)
	}
	return c
}

// Add records or replaces one show's date.
func (c *Calendar) Add(s model.TradeShow) {
	if s.StartsAt == nil || strings.TrimSpace(s.Name) == "" {
		return
	}
	c.dates[calendarKey(s.Name)] = s.StartsAt.UTC()
}

// Lookup returns the start date of name.
func (c *Calendar) Lookup(name string) (time.Time, bool) {
	if c == nil {
		return time.Time{}, false
	}
	t, ok := c.dates[calendarKey(name)]
	return t, ok
}

// Len returns the number of dated shows.
func (c *Calendar) Len() int {
	if c == nil {
		return 0
	}
	return len(c.dates)
}

// Resolve fills in missing show dates. An explicit date on the ref wins.
func (c *Calendar) Resolve(refs []model.TradeShowRef) []model.TradeShowRef {
	if len(refs) == 0 {
		return refs
	}
	out := make([]model.TradeShowRef, len(refs))
	for i, ref := range refs {
		out[i] = ref
		if ref.StartsAt != nil {
			continue
		}
		if t, ok := c.Lookup(ref.Name); ok {
			out[i].StartsAt = &t
		}
	}
	return out
}

// ShowsFromConfig converts configured trade shows. starts_at must be
// YYYY-MM-DD when set.
func ShowsFromConfig(cfg []config.TradeShowConfig) ([]model.TradeShow, error) {
	out := make([]model.TradeShow, 0, len(cfg))
	for _, sc := range cfg {
		show := model.TradeShow{Name: sc.Name, URL: sc.URL}
		if sc.StartsAt != "" {
			t, err := time.Parse("2006-01-02", sc.StartsAt)
			if err != nil {
				return nil, eris.Wrapf(err, "pipeline: trade show %q starts_at", sc.Name)
			}
			show.StartsAt = &t
		}
		out = append(out, show)
	}
	return out, nil
}

func calendarKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
