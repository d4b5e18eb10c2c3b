// Package calendar builds Google Calendar template links for events.
package calendar

import (
	"net/url"
	"time"
)

const renderBase = "https://calendar.google.com/calendar/render"

const stampLayout = "20060102T150405Z"

// EventURL returns a prefilled calendar entry link. Google's template
// endpoint takes the start/end pair as compact UTC stamps.
func EventURL(title string, start time.Time, duration time.Duration, location, details string) string {
	v := url.Values{}
	v.Set("action", "TEMPLATE")
	v.Set("text", title)
	v.Set("dates", dateRange(start, duration))
	v.Set("location", location)
	v.Set("details", details)
	return renderBase + "?" + v.Encode()
}

func dateRange(start time.Time, duration time.Duration) string {
	s := start.UTC()
	return s.Format(stampLayout) + "/" + s.Add(duration).Format(stampLayout)
}
