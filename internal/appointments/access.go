package appointments

import (
	"strings"
	"time"
)

// Chat and video entry opens shortly before the slot and stays open for
// the length of a consultation.
const (
	WindowLead  = 5 * time.Minute
	WindowTrail = 30 * time.Minute
)

// Window is the inclusive interval during which communication is allowed.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) Contains(now time.Time) bool {
	return !now.Before(w.Start) && !now.After(w.End)
}

// AccessStatus describes where now sits relative to a Window.
type AccessStatus string

const (
	AccessUpcoming AccessStatus = "upcoming"
	AccessOpen     AccessStatus = "open"
	AccessClosed   AccessStatus = "closed"
)

func (w Window) Status(now time.Time) AccessStatus {
	switch {
	case now.Before(w.Start):
		return AccessUpcoming
	case now.After(w.End):
		return AccessClosed
	default:
		return AccessOpen
	}
}

// AccessWindow builds the window around date at the slot label. It returns
// false when the date is unset or the label is blank or unparseable.
func AccessWindow(date time.Time, label string) (Window, bool) {
	if date.IsZero() || strings.TrimSpace(label) == "" {
		return Window{}, false
	}
	slot, err := ParseTimeSlot(label)
	if err != nil {
		return Window{}, false
	}
	scheduled := slot.On(date)
	return Window{Start: scheduled.Add(-WindowLead), End: scheduled.Add(WindowTrail)}, true
}

// IsAccessOpen reports whether chat or video may be entered at now. Missing
// inputs mean closed.
func IsAccessOpen(date time.Time, label string, now time.Time) bool {
	window, ok := AccessWindow(date, label)
	if !ok {
		return false
	}
	return window.Contains(now)
}
