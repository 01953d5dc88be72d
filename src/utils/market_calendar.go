package utils

import (
	"time"

	"stockpulse/src/logger"

	"github.com/scmhub/calendar"
)

// -----------------------------------------------------------------------------

// MarketCalendar reports whether the venue the catalog trades on is
// currently in session. The whole fixed catalog is US-listed, so a single
// NYSE calendar covers it; a Mon-Fri 09:30-16:00 New York fallback kicks in
// if the calendar data cannot be loaded.
type MarketCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

func NewMarketCalendar(log *logger.Logger) *MarketCalendar {
	// MIC per ISO 10383, see scmhub/calendar for supported codes
	cal := calendar.GetCalendar("xnys")
	if cal == nil {
		log.Warning("Failed to load xnys calendar, using Mon-Fri 09:30-16:00 fallback")
		nyLoc, _ := time.LoadLocation("America/New_York")
		if nyLoc == nil {
			nyLoc = time.UTC
		}
		return &MarketCalendar{Fallback: true, Timezone: nyLoc}
	}

	return &MarketCalendar{Calendar: cal, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

// IsOpen checks if the market is open at the given instant.
func (mc *MarketCalendar) IsOpen(t time.Time) bool {
	if mc.Timezone != nil {
		t = t.In(mc.Timezone)
	}

	if mc.Fallback {
		weekday := t.Weekday()
		if weekday == time.Saturday || weekday == time.Sunday {
			return false
		}

		hour := t.Hour()
		minute := t.Minute()
		return (hour > 9 || (hour == 9 && minute >= 30)) && hour < 16
	}

	return mc.Calendar.IsOpen(t)
}
