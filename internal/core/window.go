package core

import (
	"fmt"
	"strings"
	"time"
)

// Window is a rolling summary period measured in calendar months.
// A zero Months value means the window is unbounded.
type Window struct {
	Key    string
	Label  string
	Months int
}

var (
	OneMonth  = Window{Key: "1m", Label: "1 Month", Months: 1}
	TwoMonths = Window{Key: "2m", Label: "2 Months", Months: 2}
	SixMonths = Window{Key: "6m", Label: "6 Months", Months: 6}
	AllTime   = Window{Key: "all", Label: "All Time"}
)

// Windows returns the selectable windows in menu order.
func Windows() []Window {
	return []Window{OneMonth, TwoMonths, SixMonths, AllTime}
}

// ParseWindow matches s against window keys and labels, ignoring case.
func ParseWindow(s string) (Window, error) {
	s = strings.TrimSpace(s)
	for _, w := range Windows() {
		if strings.EqualFold(s, w.Key) || strings.EqualFold(s, w.Label) {
			return w, nil
		}
	}
	return Window{}, fmt.Errorf("unknown summary window %q", s)
}

// Unbounded reports whether the window includes every record.
func (w Window) Unbounded() bool {
	return w.Months <= 0
}

// Cutoff returns the earliest timestamp included in the window. The boolean
// is false for unbounded windows.
func (w Window) Cutoff(now time.Time) (time.Time, bool) {
	if w.Unbounded() {
		return time.Time{}, false
	}
	return now.AddDate(0, -w.Months, 0), true
}

// Includes reports whether ts falls inside the window ending at now.
func (w Window) Includes(ts, now time.Time) bool {
	cutoff, bounded := w.Cutoff(now)
	if !bounded {
		return true
	}
	return !ts.Before(cutoff)
}

func (w Window) String() string {
	return w.Label
}
