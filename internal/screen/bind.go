package screen

import (
	"github.com/sabarrett328/SBMagtag-Weather/internal/fault"
	"github.com/sabarrett328/SBMagtag-Weather/internal/format"
	"github.com/sabarrett328/SBMagtag-Weather/internal/weather"
)

// Bind fills every widget from fc. Days[0] feeds the today fields and Days[1..5]
// feed the banners in order; banners without a day keep their previous content.
// The only failure is an icon code with no sprite.
func Bind(s *Screen, fc *weather.Forecast, opts format.Options) error {
	if fc == nil || len(fc.Days) == 0 {
		return fault.New(fault.MalformedResponse, "bind", "forecast has no daily entries")
	}
	cur := fc.Current
	today := fc.Days[0]

	icon, err := format.IconIndex(cur.Icon)
	if err != nil {
		return err
	}

	text := map[Field]string{
		FieldDate:      format.DateLine(cur.Time),
		FieldAsOf:      format.AsOf(cur.Time),
		FieldPlace:     fc.Location.Name,
		FieldTemp:      format.Temperature(cur.Temp, opts.Units),
		FieldPressure:  format.Pressure(cur.Pressure, opts.Pressure),
		FieldWind:      format.WindSpeed(cur.WindSpeed, opts.Units),
		FieldHumidity:  format.Percent(cur.Humidity),
		FieldUV:        format.UVIndex(cur.UVI),
		FieldClouds:    format.Percent(cur.Clouds),
		FieldCondition: cur.Condition,
		FieldSunrise:   format.Sunrise(cur.Sunrise, opts.Clock),
		FieldSunset:    format.Sunset(cur.Sunset, opts.Clock),
		FieldDayHigh:   format.Temperature(today.Max, opts.Units),
		FieldDayLow:    format.Temperature(today.Min, opts.Units),
		FieldPrecip:    format.Precip(today.Pop),
	}
	if fc.AirQuality > 0 {
		text[FieldAQI] = format.AirQuality(fc.AirQuality)
	}

	// Resolve every banner before touching the screen so a bad icon code leaves it unchanged.
	future := fc.Days[1:]
	if len(future) > BannerCount {
		future = future[:BannerCount]
	}
	banners := make([]Banner, 0, len(future))
	for _, d := range future {
		idx, err := format.IconIndex(d.Icon)
		if err != nil {
			return err
		}
		banners = append(banners, Banner{
			Day:  format.DayAbbrev(d.Date.Weekday()),
			Icon: idx,
			Temp: format.TemperatureRange(d.Min, d.Max, opts.Units),
		})
	}

	for f, v := range text {
		if err := s.SetText(f, v); err != nil {
			return err
		}
	}
	if err := s.SetIcon(icon); err != nil {
		return err
	}
	for i, b := range banners {
		if err := s.SetBanner(i, b); err != nil {
			return err
		}
	}
	return nil
}
