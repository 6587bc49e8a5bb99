// Package format turns raw One Call values into the fixed-width strings shown on the panel.
//
// Every function is pure and total over well-formed numbers. Nothing here validates
// ranges: a negative humidity renders as-is.
package format

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Units selects the temperature and wind conversions.
type Units string

const (
	Imperial Units = "imperial"
	Metric   Units = "metric"
)

// PressureUnit selects how station pressure is presented. The two are separate
// presentations and are not interchangeable.
type PressureUnit string

const (
	InHg     PressureUnit = "inhg"
	Millibar PressureUnit = "mb"
)

// ClockStyle selects how sunrise and sunset are printed.
type ClockStyle string

const (
	// Naive prints the sunrise hour unchanged with "AM" and the sunset hour minus 12
	// with "PM", with no AM/PM boundary handling.
	Naive ClockStyle = "naive"
	// TwelveHour prints a correct 12-hour clock.
	TwelveHour ClockStyle = "12h"
)

// Options bundles the presentation choices made at startup.
type Options struct {
	Units    Units
	Pressure PressureUnit
	Clock    ClockStyle
}

// DefaultOptions mirrors the imperial, inHg display of the MagTag build.
func DefaultOptions() Options {
	return Options{Units: Imperial, Pressure: InHg, Clock: TwelveHour}
}

const (
	kelvinOffset = 273.15
	mpsToMph     = 2.23694
)

var hPaToInHg = decimal.RequireFromString("0.02952998751")

// ParseUnits accepts "imperial" or "metric" in any case.
func ParseUnits(s string) (Units, error) {
	switch u := Units(strings.ToLower(strings.TrimSpace(s))); u {
	case Imperial, Metric:
		return u, nil
	}
	return "", fmt.Errorf("unknown units %q (want imperial or metric)", s)
}

// ParsePressureUnit accepts "inhg" or "mb" in any case.
func ParsePressureUnit(s string) (PressureUnit, error) {
	switch p := PressureUnit(strings.ToLower(strings.TrimSpace(s))); p {
	case InHg, Millibar:
		return p, nil
	}
	return "", fmt.Errorf("unknown pressure unit %q (want inhg or mb)", s)
}

// ParseClockStyle accepts "naive" or "12h" in any case.
func ParseClockStyle(s string) (ClockStyle, error) {
	switch c := ClockStyle(strings.ToLower(strings.TrimSpace(s))); c {
	case Naive, TwelveHour:
		return c, nil
	}
	return "", fmt.Errorf("unknown clock style %q (want naive or 12h)", s)
}

// ConvertTemperature converts Kelvin to Fahrenheit (imperial) or Celsius (metric).
func ConvertTemperature(kelvin float64, u Units) float64 {
	if u == Metric {
		return kelvin - kelvinOffset
	}
	return 32 + 1.8*(kelvin-kelvinOffset)
}

// Temperature renders a Kelvin value with no decimals in a 3-character field.
func Temperature(kelvin float64, u Units) string {
	return fmt.Sprintf("%3.0f", ConvertTemperature(kelvin, u))
}

// TemperatureRange renders "min/max" as used by the forecast banners.
func TemperatureRange(minK, maxK float64, u Units) string {
	return Temperature(minK, u) + "/" + Temperature(maxK, u)
}

// ConvertWindSpeed converts m/s to mph (imperial) or leaves it unchanged (metric).
func ConvertWindSpeed(mps float64, u Units) float64 {
	if u == Metric {
		return mps
	}
	return mps * mpsToMph
}

// WindSpeed renders the converted speed with its unit suffix.
func WindSpeed(mps float64, u Units) string {
	if u == Metric {
		return fmt.Sprintf("%3.0fm/s", ConvertWindSpeed(mps, u))
	}
	return fmt.Sprintf("%3.0fmph", ConvertWindSpeed(mps, u))
}

// Pressure renders hPa either converted to inHg with two decimals or raw with an "mb" suffix.
func Pressure(hPa float64, p PressureUnit) string {
	if p == Millibar {
		return fmt.Sprintf("%4.0fmb", hPa)
	}
	return decimal.NewFromFloat(hPa).Mul(hPaToInHg).StringFixed(2)
}

// Percent renders an integer percentage in a 3-character field.
func Percent(v int) string {
	return fmt.Sprintf("%3d%%", v)
}

// UVIndex renders the UV index with no decimals.
func UVIndex(uvi float64) string {
	return fmt.Sprintf("%3.0f", uvi)
}

// Precip renders a probability of precipitation (0..1) as a percentage.
func Precip(pop float64) string {
	return fmt.Sprintf("%2.0f%%", pop*100)
}

// AirQuality renders the 1..5 air quality index.
func AirQuality(aqi int) string {
	return fmt.Sprintf("AQI %d", aqi)
}
