// Package sleep decides how long the device stays in deep sleep between wake cycles
// and performs the sleep itself.
package sleep

import (
	"fmt"
	"strings"
	"time"
)

// Policy selects the awake-hours sleep length. Every policy shares the same
// late-night branch except C, which always sleeps an hour.
type Policy string

const (
	// PolicyA sleeps until 5 AM after 21:59, otherwise one hour.
	PolicyA Policy = "A"
	// PolicyB sleeps until 5 AM after 21:59, otherwise 15 minutes.
	PolicyB Policy = "B"
	// PolicyC always sleeps one hour.
	PolicyC Policy = "C"
)

const (
	lateHour  = 21
	wakeHour  = 5
	hourly    = time.Hour
	quarterly = 15 * time.Minute
)

// ParsePolicy accepts "A", "B" or "C" in any case.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToUpper(strings.TrimSpace(s))); p {
	case PolicyA, PolicyB, PolicyC:
		return p, nil
	}
	return "", fmt.Errorf("unknown sleep policy %q (want A, B or C)", s)
}

// Duration computes the sleep length from the local wall clock. Only the hour and
// minute of now are used; seconds are ignored.
func Duration(p Policy, now time.Time) time.Duration {
	hour, minute := now.Hour(), now.Minute()

	if p != PolicyC && hour > lateHour {
		secs := (24-hour)*3600 - minute*60 + wakeHour*3600
		return time.Duration(secs) * time.Second
	}
	if p == PolicyB {
		return quarterly
	}
	return hourly
}

// Describe renders the log line announcing the sleep.
func Describe(d time.Duration) string {
	secs := int64(d / time.Second)
	return fmt.Sprintf("Sleeping for %d hours, %d minutes", secs/3600, (secs/60)%60)
}
