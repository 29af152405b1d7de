package scoring

import (
	"time"

	"github.com/sells-group/gtm-cli/internal/model"
)

// UrgencyMultiplier scales pain by how soon the prospect exhibits. Negative
// days (no upcoming show) give 1.0.
func UrgencyMultiplier(daysUntil int) float64 {
	switch {
	case daysUntil < 0:
		return 1.0
	case daysUntil <= 30:
		return 1.8
	case daysUntil <= 60:
		return 1.5
	case daysUntil <= 90:
		return 1.3
	default:
		return 1.1
	}
}

// DaysUntil counts whole calendar days from now to t in UTC.
func DaysUntil(t, now time.Time) int {
	day := func(x time.Time) time.Time {
		x = x.UTC()
		return time.Date(x.Year(), x.Month(), x.Day(), 0, 0, 0, 0, time.UTC)
	}
	return int(day(t).Sub(day(now)).Hours() / 24)
}

// SoonestShow returns the dated show closest to now that has not started
// yet. Undated and past shows are skipped.
func SoonestShow(shows []model.TradeShowRef, now time.Time) (model.TradeShowRef, int, bool) {
	var best model.TradeShowRef
	bestDays, found := 0, false
	for _, s := range shows {
		if s.StartsAt == nil {
			continue
		}
		d := DaysUntil(*s.StartsAt, now)
		if d < 0 {
			continue
		}
		if !found || d < bestDays {
			best, bestDays, found = s, d, true
		}
	}
	return best, bestDays, found
}
