package weather

import "time"

// Location is a resolved point with an optional display name.
type Location struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"name,omitempty"`
}

// Forecast aggregates everything one wake cycle shows on the panel.
// All times are local wall-clock values expressed in UTC (see format.LocalTime).
type Forecast struct {
	Location       Location  `json:"location"`
	TimezoneOffset int64     `json:"timezone_offset"`
	Current        Current   `json:"current"`
	Days           []Day     `json:"days"`
	AirQuality     int       `json:"air_quality,omitempty"` // 1..5, 0 when not fetched
	FetchedAt      time.Time `json:"fetched_at"`
}

// Current holds the raw current conditions in API units (Kelvin, m/s, hPa).
type Current struct {
	Time      time.Time `json:"time"`
	Temp      float64   `json:"temp"`
	Humidity  int       `json:"humidity"`
	Pressure  float64   `json:"pressure"`
	WindSpeed float64   `json:"wind_speed"`
	Clouds    int       `json:"clouds"`
	UVI       float64   `json:"uvi"`
	Sunrise   time.Time `json:"sunrise"`
	Sunset    time.Time `json:"sunset"`
	Condition string    `json:"condition"`
	Icon      string    `json:"icon"`
}

// Day is one daily summary. Days[0] is today.
type Day struct {
	Date time.Time `json:"date"`
	Min  float64   `json:"min"`
	Max  float64   `json:"max"`
	Pop  float64   `json:"pop"`
	Icon string    `json:"icon"`
}

// Condition is one entry of an OpenWeatherMap "weather" array.
type Condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// OneCallResponse represents the One Call 3.0 response with minutely, hourly and alerts excluded.
type OneCallResponse struct {
	TimezoneOffset int64 `json:"timezone_offset"`
	Current        struct {
		Dt        int64       `json:"dt"`
		Temp      float64     `json:"temp"`
		Humidity  int         `json:"humidity"`
		Pressure  float64     `json:"pressure"`
		WindSpeed float64     `json:"wind_speed"`
		Clouds    int         `json:"clouds"`
		UVI       float64     `json:"uvi"`
		Sunrise   int64       `json:"sunrise"`
		Sunset    int64       `json:"sunset"`
		Weather   []Condition `json:"weather"`
	} `json:"current"`
	Daily []DailyResponse `json:"daily"`
}

// DailyResponse is one element of the One Call "daily" array.
type DailyResponse struct {
	Dt   int64 `json:"dt"`
	Temp struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"temp"`
	Pop     float64     `json:"pop"`
	Weather []Condition `json:"weather"`
}

// AirPollutionResponse represents the Air Pollution 2.5 response.
type AirPollutionResponse struct {
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
	} `json:"list"`
}

// GeoResponse represents the Geo 1.0 direct and reverse responses.
type GeoResponse []struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state"`
}
