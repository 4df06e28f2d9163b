// Package market provides the New York market calendar used to gate the
// ingestion timer and to anchor halt timestamps.
package market

import (
	"sync"
	"time"
)

const haltTimeLayout = "01/02/2006 15:04:05"

var (
	locOnce sync.Once
	locNY   *time.Location
)

// Location returns the America/New_York location. Falls back to a fixed EST
// offset when tzdata is unavailable.
func Location() *time.Location {
	locOnce.Do(func() {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			loc = time.FixedZone("EST", -5*60*60)
		}
		locNY = loc
	})
	return locNY
}

// Now returns the current time in the New York timezone.
func Now() time.Time {
	return time.Now().In(Location())
}

// IsWeekday reports whether t falls on a trading weekday in New York.
func IsWeekday(t time.Time) bool {
	day := t.In(Location()).Weekday()
	return day != time.Saturday && day != time.Sunday
}

// IsMarketOpen reports whether t falls inside regular trading hours. The
// original window is hour-granular: 09:00 through 16:59 New York time.
func IsMarketOpen(t time.Time) bool {
	hour := t.In(Location()).Hour()
	return hour >= 9 && hour <= 16
}

// IsExtendedHours reports whether t falls inside pre-market or after-hours
// trading windows.
func IsExtendedHours(t time.Time) bool {
	hour := t.In(Location()).Hour()
	return (hour >= 4 && hour <= 9) || (hour >= 16 && hour <= 20)
}

// HaltTimestamp parses a feed halt date ("MM/DD/YYYY") and time ("hh:mm:ss")
// pair as a New York wall-clock instant.
func HaltTimestamp(date, clock string) (time.Time, error) {
	return time.ParseInLocation(haltTimeLayout, date+" "+clock, Location())
}
