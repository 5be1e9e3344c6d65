// Package dates centralizes calendar-day handling. All daily quotas,
// delivery markers and entitlement expiries are keyed by the civil date
// in one configured timezone, never by UTC.
package dates

import (
	"time"

	"github.com/ahlabot/ahlabot/internal/config"
)

const DayLayout = "2006-01-02"

// Day returns the calendar-day key for t in loc.
func Day(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}

// ParseDay parses a calendar-day key in loc. Midnight local time.
func ParseDay(day string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DayLayout, day, loc)
}

// NewLocation resolves the configured IANA timezone.
func NewLocation(cfg config.Config) (*time.Location, error) {
	return time.LoadLocation(cfg.Timezone)
}
