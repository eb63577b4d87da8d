package discovery

import (
	"strings"
	"time"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

const timeLayout = time.RFC3339

// Publication period presets.
const (
	PeriodToday     = "today"
	PeriodYesterday = "yesterday"
	PeriodWeek      = "week"
	PeriodMonth     = "month"
	PeriodYear      = "year"
)

// PeriodWindow returns the half-open publication window for a preset,
// evaluated in UTC at now. An empty period yields no window.
func PeriodWindow(period string, now time.Time) (after, before *time.Time, err error) {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var a, b time.Time
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "":
		return nil, nil, nil
	case PeriodToday:
		a = midnight
	case PeriodYesterday:
		a = midnight.AddDate(0, 0, -1)
		b = midnight
	case PeriodWeek:
		a = now.AddDate(0, 0, -7)
	case PeriodMonth:
		a = now.AddDate(0, 0, -30)
	case PeriodYear:
		a = now.AddDate(0, 0, -365)
	default:
		return nil, nil, invalidCriteria("unknown period %q", period)
	}

	after = &a
	if !b.IsZero() {
		before = &b
	}
	return after, before, nil
}

// ApplyPeriod fills the publication window of c from a preset. Bounds that
// are already set on c take precedence over the preset.
func ApplyPeriod(c *model.SearchCriteria, period string, now time.Time) error {
	after, before, err := PeriodWindow(period, now)
	if err != nil {
		return err
	}
	if c.PublishedAfter == nil {
		c.PublishedAfter = after
	}
	if c.PublishedBefore == nil {
		c.PublishedBefore = before
	}
	return nil
}
