package weather

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/sabarrett328/SBMagtag-Weather/internal/fault"
)

// Keys the panel reads. Struct decoding alone would turn a missing key into a zero
// value, so presence is checked on the raw object first.
var (
	oneCallKeys   = []string{"timezone_offset", "current", "daily"}
	currentKeys   = []string{"dt", "temp", "humidity", "pressure", "wind_speed", "clouds", "uvi", "sunrise", "sunset", "weather"}
	dailyKeys     = []string{"dt", "temp", "weather", "pop"}
	dailyTempKeys = []string{"min", "max"}
)

type object map[string]json.RawMessage

func malformed(op, format string, args ...interface{}) error {
	return fault.New(fault.MalformedResponse, op, format, args...)
}

func decodeObject(op, path string, raw json.RawMessage) (object, error) {
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, malformed(op, "%s: %v", path, err)
	}
	if obj == nil {
		return nil, malformed(op, "%s: not an object", path)
	}
	return obj, nil
}

func (o object) require(op, path string, keys []string) error {
	for _, k := range keys {
		v, ok := o[k]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return malformed(op, "missing key %s.%s", path, k)
		}
	}
	return nil
}

// requireWeather checks that a "weather" array has a first entry carrying the given keys.
func (o object) requireWeather(op, path string, keys ...string) error {
	var entries []json.RawMessage
	if err := json.Unmarshal(o["weather"], &entries); err != nil {
		return malformed(op, "%s.weather: %v", path, err)
	}
	if len(entries) == 0 {
		return malformed(op, "%s.weather is empty", path)
	}
	first, err := decodeObject(op, path+".weather[0]", entries[0])
	if err != nil {
		return err
	}
	return first.require(op, path+".weather[0]", keys)
}

// decodeOneCall parses a One Call body, failing on the first required key that is absent.
func decodeOneCall(data []byte) (*OneCallResponse, error) {
	const op = "onecall"

	top, err := decodeObject(op, "$", data)
	if err != nil {
		return nil, err
	}
	if err := top.require(op, "$", oneCallKeys); err != nil {
		return nil, err
	}

	cur, err := decodeObject(op, "current", top["current"])
	if err != nil {
		return nil, err
	}
	if err := cur.require(op, "current", currentKeys); err != nil {
		return nil, err
	}
	if err := cur.requireWeather(op, "current", "main", "icon"); err != nil {
		return nil, err
	}

	var days []json.RawMessage
	if err := json.Unmarshal(top["daily"], &days); err != nil {
		return nil, malformed(op, "daily: %v", err)
	}
	if len(days) == 0 {
		return nil, malformed(op, "daily is empty")
	}
	for i, raw := range days {
		path := fmt.Sprintf("daily[%d]", i)
		day, err := decodeObject(op, path, raw)
		if err != nil {
			return nil, err
		}
		if err := day.require(op, path, dailyKeys); err != nil {
			return nil, err
		}
		temp, err := decodeObject(op, path+".temp", day["temp"])
		if err != nil {
			return nil, err
		}
		if err := temp.require(op, path+".temp", dailyTempKeys); err != nil {
			return nil, err
		}
		if err := day.requireWeather(op, path, "icon"); err != nil {
			return nil, err
		}
	}

	var resp OneCallResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, malformed(op, "%v", err)
	}
	return &resp, nil
}

func decodeAirPollution(data []byte) (int, error) {
	const op = "air_pollution"

	var resp AirPollutionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, malformed(op, "%v", err)
	}
	if len(resp.List) == 0 {
		return 0, malformed(op, "list is empty")
	}
	return resp.List[0].Main.AQI, nil
}
