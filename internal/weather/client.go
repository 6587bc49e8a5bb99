package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sabarrett328/SBMagtag-Weather/internal/fault"
)

const (
	DefaultOneCallURL      = "https://api.openweathermap.org/data/3.0/onecall"
	DefaultAirPollutionURL = "https://api.openweathermap.org/data/2.5/air_pollution"
	DefaultGeocodeURL      = "https://api.openweathermap.org/geo/1.0"

	maxResponseSize = 4 << 20
	maxErrorExcerpt = 256
)

// Endpoints are the base URLs the client talks to. Empty fields fall back to the
// public OpenWeatherMap endpoints.
type Endpoints struct {
	OneCall      string
	AirPollution string
	Geocode      string
}

func (e Endpoints) withDefaults() Endpoints {
	if e.OneCall == "" {
		e.OneCall = DefaultOneCallURL
	}
	if e.AirPollution == "" {
		e.AirPollution = DefaultAirPollutionURL
	}
	if e.Geocode == "" {
		e.Geocode = DefaultGeocodeURL
	}
	return e
}

// Client handles OpenWeatherMap API interactions
type Client struct {
	APIKey     string
	UserAgent  string
	HTTPClient *http.Client
	Endpoints  Endpoints
	Limiter    *rate.Limiter
}

// NewClient creates a new OpenWeatherMap client paced by limiter. A nil limiter disables pacing.
func NewClient(apiKey string, endpoints Endpoints, limiter *rate.Limiter) *Client {
	userAgent := os.Getenv("WTHR_USER_AGENT")
	if userAgent == "" {
		userAgent = "magtag-weather/1.0"
	}

	return &Client{
		APIKey:    apiKey,
		UserAgent: userAgent,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		Endpoints: endpoints.withDefaults(),
		Limiter:   limiter,
	}
}

func (c *Client) get(ctx context.Context, op, base string, params url.Values) ([]byte, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, fault.Wrap(err, fault.Transport, op)
		}
	}

	params.Set("appid", c.APIKey)
	requestURL := base + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fault.Wrap(err, fault.Config, op)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fault.Wrap(redactKey(err, c.APIKey), fault.Transport, op)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorExcerpt))
		return nil, fault.New(fault.Transport, op, "OpenWeatherMap API error: %d %s", resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fault.Wrap(err, fault.Transport, op)
	}
	return data, nil
}

// redactKey keeps the API key out of *url.Error messages, which embed the request URL.
func redactKey(err error, key string) error {
	var ue *url.Error
	if key == "" || !errors.As(err, &ue) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "REDACTED"))
}

func coords(lat, lon float64) url.Values {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return params
}

// OneCall fetches current conditions and the daily forecast in standard units
// (Kelvin, m/s, hPa). Minutely, hourly and alert sections are excluded.
func (c *Client) OneCall(ctx context.Context, lat, lon float64) (*OneCallResponse, error) {
	params := coords(lat, lon)
	params.Set("units", "standard")
	params.Set("exclude", "minutely,hourly,alerts")

	data, err := c.get(ctx, "onecall", c.Endpoints.OneCall, params)
	if err != nil {
		return nil, err
	}
	return decodeOneCall(data)
}

// AirPollution fetches the current air quality index (1 good .. 5 very poor).
func (c *Client) AirPollution(ctx context.Context, lat, lon float64) (int, error) {
	data, err := c.get(ctx, "air_pollution", c.Endpoints.AirPollution, coords(lat, lon))
	if err != nil {
		return 0, err
	}
	return decodeAirPollution(data)
}

// Geocode fetches coordinates for a place name and selects the first result.
func (c *Client) Geocode(ctx context.Context, query string) (Location, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", "1")

	data, err := c.get(ctx, "geocode", c.Endpoints.Geocode+"/direct", params)
	if err != nil {
		return Location{}, err
	}

	var resp GeoResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return Location{}, malformed("geocode", "%v", err)
	}
	if len(resp) == 0 {
		return Location{}, fault.New(fault.Config, "geocode", "location not found: %q", query)
	}

	return Location{Lat: resp[0].Lat, Lon: resp[0].Lon, Name: placeName(resp[0].Name, resp[0].State, resp[0].Country)}, nil
}

// ReverseGeocode fetches a human-friendly name for the given coordinates.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	params := coords(lat, lon)
	params.Set("limit", "1")

	data, err := c.get(ctx, "reverse_geocode", c.Endpoints.Geocode+"/reverse", params)
	if err != nil {
		return "", err
	}

	var resp GeoResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", malformed("reverse_geocode", "%v", err)
	}
	if len(resp) == 0 || resp[0].Name == "" {
		return "", fault.New(fault.Config, "reverse_geocode", "location not found: %.4f,%.4f", lat, lon)
	}

	return placeName(resp[0].Name, resp[0].State, resp[0].Country), nil
}

// placeName prefers "name, state" and falls back to "name, country".
func placeName(name, state, country string) string {
	switch {
	case name == "":
		return ""
	case state != "":
		return fmt.Sprintf("%s, %s", name, state)
	case country != "":
		return fmt.Sprintf("%s, %s", name, country)
	}
	return name
}
