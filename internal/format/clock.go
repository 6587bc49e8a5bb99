package format

import (
	"fmt"
	"strings"
	"time"
)

// LocalTime returns the wall clock for an epoch shifted by the API's timezone offset.
// The result is expressed in UTC so its fields read as local time.
func LocalTime(epoch, offset int64) time.Time {
	return time.Unix(epoch+offset, 0).UTC()
}

// Sunrise renders the sunrise clock.
func Sunrise(t time.Time, c ClockStyle) string {
	if c == Naive {
		return fmt.Sprintf("%2d:%02d AM", t.Hour(), t.Minute())
	}
	return twelveHour(t)
}

// Sunset renders the sunset clock. Under Naive the hour is printed as hour-12,
// so an 11:40 sunset reads "-1:40 PM" and a 12:05 sunset reads " 0:05 PM".
func Sunset(t time.Time, c ClockStyle) string {
	if c == Naive {
		return fmt.Sprintf("%2d:%02d PM", NaiveSunsetHour(t.Hour()), t.Minute())
	}
	return twelveHour(t)
}

// NaiveSunsetHour is the hour-12 conversion the panel historically used for sunset.
func NaiveSunsetHour(hour int) int {
	return hour - 12
}

func twelveHour(t time.Time) string {
	h := t.Hour() % 12
	if h == 0 {
		h = 12
	}
	suffix := "AM"
	if t.Hour() >= 12 {
		suffix = "PM"
	}
	return fmt.Sprintf("%2d:%02d %s", h, t.Minute(), suffix)
}

// DayAbbrev returns the upper-cased three letter weekday ("MON").
func DayAbbrev(d time.Weekday) string {
	return strings.ToUpper(d.String()[:3])
}

// DateLine renders "Sat Oct 17, 2026".
func DateLine(t time.Time) string {
	return fmt.Sprintf("%s %s %d, %d", t.Weekday().String()[:3], t.Month().String()[:3], t.Day(), t.Year())
}

// AsOf renders the observation time line.
func AsOf(t time.Time) string {
	return fmt.Sprintf("As of: %d:%02d", t.Hour(), t.Minute())
}
