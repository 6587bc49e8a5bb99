package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sabarrett328/SBMagtag-Weather/internal/fault"
	"github.com/sabarrett328/SBMagtag-Weather/internal/format"
)

// Service turns a configured location into a Forecast.
type Service struct {
	client *Client
	log    *zap.SugaredLogger

	// ReverseGeocode names a coordinate-pair location with one extra request.
	ReverseGeocode bool
	// AirQuality adds one Air Pollution request per cycle.
	AirQuality bool

	now func() time.Time
}

// NewService creates a new weather service
func NewService(client *Client, log *zap.SugaredLogger) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Service{
		client: client,
		log:    log,
		now:    time.Now,
	}
}

// Resolve turns the raw configured location into coordinates. A string is geocoded
// (first match); a two-number sequence is used as-is and optionally reverse
// geocoded. Anything else is a configuration error raised before any request.
func (s *Service) Resolve(ctx context.Context, raw any) (Location, error) {
	switch v := raw.(type) {
	case string:
		query := strings.TrimSpace(v)
		if query == "" {
			return Location{}, fault.New(fault.Config, "resolve", "location is empty")
		}
		loc, err := s.client.Geocode(ctx, query)
		if err != nil {
			return Location{}, fmt.Errorf("failed to geocode %q: %w", query, err)
		}
		s.log.Infow("Resolved location", "query", query, "lat", loc.Lat, "lon", loc.Lon, "name", loc.Name)
		return loc, nil
	}

	lat, lon, err := coordinatePair(raw)
	if err != nil {
		return Location{}, err
	}
	loc := Location{Lat: lat, Lon: lon}
	if s.ReverseGeocode {
		name, err := s.client.ReverseGeocode(ctx, lat, lon)
		if err != nil {
			return Location{}, fmt.Errorf("failed to reverse geocode: %w", err)
		}
		loc.Name = name
	}
	return loc, nil
}

// coordinatePair accepts the shapes a decoded YAML or JSON sequence can take.
func coordinatePair(raw any) (float64, float64, error) {
	var pair []float64
	switch v := raw.(type) {
	case []float64:
		pair = v
	case [2]float64:
		pair = v[:]
	case []any:
		for i, e := range v {
			f, ok := number(e)
			if !ok {
				return 0, 0, fault.New(fault.Config, "resolve", "location[%d] is %T, want a number", i, e)
			}
			pair = append(pair, f)
		}
	case nil:
		return 0, 0, fault.New(fault.Config, "resolve", "location is not set")
	default:
		return 0, 0, fault.New(fault.Config, "resolve", "location is %T, want a place name or [lat, lon]", raw)
	}

	if len(pair) != 2 {
		return 0, 0, fault.New(fault.Config, "resolve", "location has %d elements, want [lat, lon]", len(pair))
	}
	lat, lon := pair[0], pair[1]
	if math.IsNaN(lat) || lat < -90 || lat > 90 || math.IsNaN(lon) || lon < -180 || lon > 180 {
		return 0, 0, fault.New(fault.Config, "resolve", "coordinates out of range: %v, %v", lat, lon)
	}
	return lat, lon, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Fetch retrieves the forecast for loc. The air quality lookup only runs when enabled
// and fails the cycle like any other request.
func (s *Service) Fetch(ctx context.Context, loc Location) (*Forecast, error) {
	oc, err := s.client.OneCall(ctx, loc.Lat, loc.Lon)
	if err != nil {
		return nil, fmt.Errorf("failed to get forecast: %w", err)
	}

	fc, err := transform(oc, loc)
	if err != nil {
		return nil, err
	}
	fc.FetchedAt = s.now()

	if s.AirQuality {
		aqi, err := s.client.AirPollution(ctx, loc.Lat, loc.Lon)
		if err != nil {
			return nil, fmt.Errorf("failed to get air quality: %w", err)
		}
		fc.AirQuality = aqi
	}

	s.log.Debugw("Fetched forecast", "lat", loc.Lat, "lon", loc.Lon, "days", len(fc.Days), "aqi", fc.AirQuality)
	return fc, nil
}

// transform converts the API response into the panel's domain view. Decoding has
// already guaranteed every weather array is non-empty.
func transform(oc *OneCallResponse, loc Location) (*Forecast, error) {
	if oc == nil {
		return nil, malformed("onecall", "empty response")
	}
	off := oc.TimezoneOffset
	cur := oc.Current

	fc := &Forecast{
		Location:       loc,
		TimezoneOffset: off,
		Current: Current{
			Time:      format.LocalTime(cur.Dt, off),
			Temp:      cur.Temp,
			Humidity:  cur.Humidity,
			Pressure:  cur.Pressure,
			WindSpeed: cur.WindSpeed,
			Clouds:    cur.Clouds,
			UVI:       cur.UVI,
			Sunrise:   format.LocalTime(cur.Sunrise, off),
			Sunset:    format.LocalTime(cur.Sunset, off),
		},
	}
	if len(cur.Weather) > 0 {
		fc.Current.Condition = cur.Weather[0].Main
		fc.Current.Icon = cur.Weather[0].Icon
	}

	fc.Days = make([]Day, 0, len(oc.Daily))
	for _, d := range oc.Daily {
		day := Day{
			Date: format.LocalTime(d.Dt, off),
			Min:  d.Temp.Min,
			Max:  d.Temp.Max,
			Pop:  d.Pop,
		}
		if len(d.Weather) > 0 {
			day.Icon = d.Weather[0].Icon
		}
		fc.Days = append(fc.Days, day)
	}
	return fc, nil
}
