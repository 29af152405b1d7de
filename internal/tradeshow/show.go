// Package tradeshow scrapes exhibitor directories and turns exhibitors into
// prospect stubs.
package tradeshow

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/gtm-cli/internal/config"
)

// DefaultMaxPages bounds pagination when a show does not set MaxPages.
const DefaultMaxPages = 20

// ShowConfig describes how to scrape one exhibitor directory. Selectors are
// goquery (CSS) selectors; Name, Link and Booth are relative to each item.
type ShowConfig struct {
	Name           string
	URL            string
	StartsAt       *time.Time
	ItemSelector   string
	NameSelector   string
	LinkSelector   string
	BoothSelector  string
	NextSelector   string
	MaxPages       int
	FollowProfiles bool
}

// Validate checks that the show can be scraped.
func (s ShowConfig) Validate() error {
	switch {
	case strings.TrimSpace(s.Name) == "":
		return eris.New("tradeshow: show name is required")
	case s.URL == "":
		return eris.Errorf("tradeshow: show %q has no url", s.Name)
	case s.ItemSelector == "":
		return eris.Errorf("tradeshow: show %q has no item_selector", s.Name)
	}
	return nil
}

// FromConfig converts one configured show.
func FromConfig(c config.TradeShowConfig) (ShowConfig, error) {
	s := ShowConfig{
		Name:           c.Name,
		URL:            c.URL,
		ItemSelector:   c.ItemSelector,
		NameSelector:   c.NameSelector,
		LinkSelector:   c.LinkSelector,
		BoothSelector:  c.BoothSelector,
		NextSelector:   c.NextSelector,
		MaxPages:       c.MaxPages,
		FollowProfiles: c.FollowProfiles,
	}
	if c.StartsAt != "" {
		t, err := time.Parse("2006-01-02", c.StartsAt)
		if err != nil {
			return ShowConfig{}, eris.Wrapf(err, "tradeshow: show %q starts_at", c.Name)
		}
		s.StartsAt = &t
	}
	return s, nil
}

// Find returns the configured show named name (case-insensitive).
func Find(shows []config.TradeShowConfig, name string) (ShowConfig, error) {
	for _, c := range shows {
		if strings.EqualFold(strings.TrimSpace(c.Name), strings.TrimSpace(name)) {
			s, err := FromConfig(c)
			if err != nil {
				return ShowConfig{}, err
			}
			return s, s.Validate()
		}
	}
	names := make([]string, 0, len(shows))
	for _, c := range shows {
		names = append(names, c.Name)
	}
	return ShowConfig{}, eris.Errorf("tradeshow: unknown show %q (configured: %s)", name, strings.Join(names, ", "))
}
