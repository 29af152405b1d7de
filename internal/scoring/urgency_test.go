package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/gtm-cli/internal/model"
)

func TestUrgencyMultiplier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		days int
		want float64
	}{
		{-1, 1.0},
		{0, 1.8},
		{30, 1.8},
		{31, 1.5},
		{60, 1.5},
		{61, 1.3},
		{90, 1.3},
		{91, 1.1},
		{400, 1.1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UrgencyMultiplier(tt.days), "days=%d", tt.days)
	}
}

func TestDaysUntilCalendarDays(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysUntil(time.Date(2026, 6, 2, 1, 0, 0, 0, time.UTC), now))
	assert.Equal(t, 0, DaysUntil(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, -1, DaysUntil(time.Date(2026, 5, 31, 12, 0, 0, 0, time.UTC), now))
}

func TestSoonestShow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	at := func(days int) *time.Time {
		d := now.AddDate(0, 0, days)
		return &d
	}

	shows := []model.TradeShowRef{
		{Name: "Past Expo", StartsAt: at(-5)},
		{Name: "Fall Expo", StartsAt: at(45)},
		{Name: "Undated Expo"},
		{Name: "Summer Expo", StartsAt: at(10)},
	}
	show, days, ok := SoonestShow(shows, now)
	require.True(t, ok)
	assert.Equal(t, "Summer Expo", show.Name)
	assert.Equal(t, 10, days)

	_, _, ok = SoonestShow(shows[:1], now)
	assert.False(t, ok, "past shows are ignored")

	_, _, ok = SoonestShow(nil, now)
	assert.False(t, ok)
}
