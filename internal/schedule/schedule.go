// Package schedule handles event start times: parsing the German day-first
// input format in a local timezone and rendering the long German form.
package schedule

import (
	"fmt"
	"time"
)

// Layout is the user-facing input format, e.g. "27.10.2025 20:00".
const Layout = "02.01.2006 15:04"

const (
	// DateLayout and ClockLayout split Layout for partial edits.
	DateLayout  = "02.01.2006"
	ClockLayout = "15:04"
)

// parseLayout accepts unpadded components, so "1.10.2025 9:00" parses the
// same as "01.10.2025 09:00".
const parseLayout = "2.1.2006 15:4"

// DefaultTimezone matches the community the bot was written for.
const DefaultTimezone = "Europe/Berlin"

var germanWeekdays = map[time.Weekday]string{
	time.Monday:    "Montag",
	time.Tuesday:   "Dienstag",
	time.Wednesday: "Mittwoch",
	time.Thursday:  "Donnerstag",
	time.Friday:    "Freitag",
	time.Saturday:  "Samstag",
	time.Sunday:    "Sonntag",
}

// Location resolves a timezone name, falling back to DefaultTimezone when
// empty.
func Location(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	return time.LoadLocation(name)
}

// Parse interprets a date and a clock string as local time in loc and
// returns the instant in UTC.
func Parse(date, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(parseLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse schedule %q %q: %w", date, clock, err)
	}
	return t.UTC(), nil
}

// FormatGerman renders a timestamp as e.g. "Montag, 27.10.2025 20:00 CET".
func FormatGerman(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	return fmt.Sprintf("%s, %s %s",
		germanWeekdays[local.Weekday()],
		local.Format("02.01.2006 15:04"),
		local.Format("MST"),
	)
}
