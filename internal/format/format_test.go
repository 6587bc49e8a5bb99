package format

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabarrett328/SBMagtag-Weather/internal/fault"
)

func TestTemperature(t *testing.T) {
	tests := []struct {
		name   string
		kelvin float64
		units  Units
		want   string
	}{
		{"freezing F", 273.15, Imperial, " 32"},
		{"room F", 293.15, Imperial, " 68"},
		{"warm F", 300, Imperial, " 80"},
		{"body F", 310.15, Imperial, " 99"},
		{"room C", 293.15, Metric, " 20"},
		{"below freezing C", 263.15, Metric, "-10"},
		{"warm C", 300, Metric, " 27"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Temperature(tt.kelvin, tt.units))
		})
	}
}

func TestConvertTemperatureFormula(t *testing.T) {
	for k := 200.0; k <= 330; k += 7.3 {
		assert.InDelta(t, math.Round(32+1.8*(k-273.15)), math.Round(ConvertTemperature(k, Imperial)), 0)
		assert.InDelta(t, math.Round(k-273.15), math.Round(ConvertTemperature(k, Metric)), 0)
	}
}

func TestTemperatureRange(t *testing.T) {
	assert.Equal(t, " 20/ 27", TemperatureRange(293.15, 300, Metric))
}

func TestWindSpeed(t *testing.T) {
	tests := []struct {
		name  string
		mps   float64
		units Units
		want  string
	}{
		{"mph", 10, Imperial, " 22mph"},
		{"mph rounds up", 4.47, Imperial, " 10mph"},
		{"calm", 0, Imperial, "  0mph"},
		{"metric unchanged", 4.4, Metric, "  4m/s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WindSpeed(tt.mps, tt.units))
		})
	}
	assert.InDelta(t, 22.3694, ConvertWindSpeed(10, Imperial), 1e-9)
}

func TestPressurePoliciesStayDistinct(t *testing.T) {
	assert.Equal(t, "29.91", Pressure(1013, InHg))
	assert.Equal(t, "29.53", Pressure(1000, InHg))
	assert.Equal(t, "1013mb", Pressure(1013, Millibar))
	assert.Equal(t, " 987mb", Pressure(987.4, Millibar))
}

func TestPercentages(t *testing.T) {
	assert.Equal(t, "100%", Percent(100))
	assert.Equal(t, "  5%", Percent(5))
	assert.Equal(t, " -3%", Percent(-3))
	assert.Equal(t, "35%", Precip(0.35))
	assert.Equal(t, " 0%", Precip(0))
	assert.Equal(t, "100%", Precip(1))
	assert.Equal(t, "  7", UVIndex(6.8))
	assert.Equal(t, "AQI 2", AirQuality(2))
}

func TestSunsetNaiveClockKeepsHistoricalOutput(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2026, 6, 21, h, m, 0, 0, time.UTC) }

	// The naive formula has no AM/PM boundary handling.
	assert.Equal(t, -1, NaiveSunsetHour(11))
	assert.Equal(t, "-1:40 PM", Sunset(at(11, 40), Naive))
	assert.Equal(t, " 0:05 PM", Sunset(at(12, 5), Naive))
	assert.Equal(t, " 7:32 PM", Sunset(at(19, 32), Naive))
}

func TestSunsetTwelveHourClock(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2026, 6, 21, h, m, 0, 0, time.UTC) }

	assert.Equal(t, "11:40 AM", Sunset(at(11, 40), TwelveHour))
	assert.Equal(t, "12:05 PM", Sunset(at(12, 5), TwelveHour))
	assert.Equal(t, " 7:32 PM", Sunset(at(19, 32), TwelveHour))
	assert.Equal(t, "12:15 AM", Sunset(at(0, 15), TwelveHour))
}

func TestSunrise(t *testing.T) {
	at := time.Date(2026, 6, 21, 6, 5, 0, 0, time.UTC)
	assert.Equal(t, " 6:05 AM", Sunrise(at, Naive))
	assert.Equal(t, " 6:05 AM", Sunrise(at, TwelveHour))
}

func TestLocalTime(t *testing.T) {
	lt := LocalTime(1700000000, -5*3600)
	assert.Equal(t, 17, lt.Hour())
	assert.Equal(t, 13, lt.Minute())
	assert.Equal(t, time.UTC, lt.Location())
}

func TestDayAndDateLines(t *testing.T) {
	assert.Equal(t, "MON", DayAbbrev(time.Monday))
	assert.Equal(t, "SUN", DayAbbrev(time.Sunday))

	at := time.Date(2026, 10, 17, 9, 5, 0, 0, time.UTC)
	assert.Equal(t, "Sat Oct 17, 2026", DateLine(at))
	assert.Equal(t, "As of: 9:05", AsOf(at))
}

func TestIconIndex(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"01d", 0},
		{"04n", 3},
		{"10n", 5},
		{"10", 5},
		{"50d", 8},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := IconIndex(tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIconIndexUnmapped(t *testing.T) {
	for _, code := range []string{"99", "99d", "", "1"} {
		_, err := IconIndex(code)
		require.Error(t, err, code)
		assert.True(t, fault.Is(err, fault.UnmappedIcon), code)
	}
}

func TestParseOptions(t *testing.T) {
	u, err := ParseUnits(" Metric ")
	require.NoError(t, err)
	assert.Equal(t, Metric, u)

	p, err := ParsePressureUnit("MB")
	require.NoError(t, err)
	assert.Equal(t, Millibar, p)

	c, err := ParseClockStyle("naive")
	require.NoError(t, err)
	assert.Equal(t, Naive, c)

	_, err = ParseUnits("kelvin")
	assert.Error(t, err)
	_, err = ParsePressureUnit("psi")
	assert.Error(t, err)
	_, err = ParseClockStyle("24h")
	assert.Error(t, err)
}
