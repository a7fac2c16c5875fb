package policy

import (
	"fmt"
	"time"
)

// IST is India Standard Time, UTC+05:30.
var IST = time.FixedZone("IST", 5*60*60+30*60)

// Window is a daily interval [StartHour, EndHour) in a fixed time zone.
type Window struct {
	StartHour int
	EndHour   int
	Location  *time.Location
	// ZoneLabel is appended to user-facing messages, e.g. "IST". Empty for
	// windows stated in local time.
	ZoneLabel string
}

// Open reports whether t falls inside the window.
func (w Window) Open(t time.Time) bool {
	h := t.In(w.location()).Hour()
	return h >= w.StartHour && h < w.EndHour
}

// String renders the window as "2 PM and 7 PM" or "10 AM and 11 AM IST".
func (w Window) String() string {
	s := fmt.Sprintf("%s and %s", formatHour(w.StartHour), formatHour(w.EndHour))
	if w.ZoneLabel != "" {
		s += " " + w.ZoneLabel
	}
	return s
}

func (w Window) location() *time.Location {
	if w.Location == nil {
		return time.Local
	}
	return w.Location
}

func formatHour(h int) string {
	switch {
	case h == 0 || h == 24:
		return "12 AM"
	case h == 12:
		return "12 PM"
	case h > 12:
		return fmt.Sprintf("%d PM", h-12)
	default:
		return fmt.Sprintf("%d AM", h)
	}
}
