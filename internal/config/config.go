// Package config loads the wake-cycle settings from an optional YAML file, a .env file
// and WTHR_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sabarrett328/SBMagtag-Weather/internal/fault"
	"github.com/sabarrett328/SBMagtag-Weather/internal/format"
	"github.com/sabarrett328/SBMagtag-Weather/internal/sleep"
)

// DefaultFile is read when present; a missing default file is not an error.
const DefaultFile = "config.yaml"

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type EndpointsConfig struct {
	Weather    string `mapstructure:"weather"`
	AirQuality string `mapstructure:"air_quality"`
	Geocode    string `mapstructure:"geocode"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" validate:"gt=0"`
	Burst int     `mapstructure:"burst" validate:"gte=1"`
}

type Quote0Config struct {
	Token       string `mapstructure:"token"`
	Device      string `mapstructure:"device"`
	BaseURL     string `mapstructure:"base_url" validate:"omitempty,url"`
	BlackBorder bool   `mapstructure:"black_border"`
}

type WaveshareConfig struct {
	SPI string `mapstructure:"spi"`
}

type PanelConfig struct {
	Kind          string          `mapstructure:"kind" validate:"oneof=file quote0 waveshare"`
	Path          string          `mapstructure:"path"`
	TimeToRefresh time.Duration   `mapstructure:"time_to_refresh" validate:"gte=0"`
	Quote0        Quote0Config    `mapstructure:"quote0"`
	Waveshare     WaveshareConfig `mapstructure:"waveshare"`
}

type SpritesConfig struct {
	Background string `mapstructure:"background"`
	Large      string `mapstructure:"large"`
	Small      string `mapstructure:"small"`
}

// Config is the full set of settings for one wake cycle.
type Config struct {
	APIKey string `mapstructure:"api_key" validate:"required"`
	// Location is a place name or a [lat, lon] pair. It is kept untyped; the
	// resolver decides what it accepts.
	Location       any  `mapstructure:"location" validate:"required"`
	ReverseGeocode bool `mapstructure:"reverse_geocode"`
	AirQuality     bool `mapstructure:"air_quality"`

	Units       string `mapstructure:"units" validate:"required"`
	SleepPolicy string `mapstructure:"sleep_policy" validate:"required"`
	Pressure    string `mapstructure:"pressure" validate:"required"`
	Clock       string `mapstructure:"clock" validate:"required"`

	Endpoints EndpointsConfig `mapstructure:"endpoints"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Panel     PanelConfig     `mapstructure:"panel"`
	Sprites   SpritesConfig   `mapstructure:"sprites"`

	DBPath          string `mapstructure:"db_path"`
	MetricsTextfile string `mapstructure:"metrics_textfile"`
	LogLevel        string `mapstructure:"log_level"`
	Environment     string `mapstructure:"environment" validate:"oneof=development production"`

	// Parsed from the string fields above by Load.
	Format format.Options `mapstructure:"-"`
	Policy sleep.Policy   `mapstructure:"-"`

	// DotEnv reports whether a .env file was found and loaded.
	DotEnv bool `mapstructure:"-"`
}

// bindEnvVars binds multiple environment variables to config keys.
// Format: []{configKey, envVar}
func bindEnvVars(v *viper.Viper, bindings [][2]string) error {
	for _, b := range bindings {
		if err := v.BindEnv(b[0], b[1]); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b[0], err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_key", "")
	v.SetDefault("location", "")
	v.SetDefault("reverse_geocode", false)
	v.SetDefault("air_quality", false)
	v.SetDefault("units", string(format.Imperial))
	v.SetDefault("sleep_policy", string(sleep.PolicyA))
	v.SetDefault("pressure", string(format.InHg))
	v.SetDefault("clock", string(format.TwelveHour))
	v.SetDefault("endpoints.weather", "")
	v.SetDefault("endpoints.air_quality", "")
	v.SetDefault("endpoints.geocode", "")
	v.SetDefault("rate_limit.rps", 1.0)
	v.SetDefault("rate_limit.burst", 1)
	v.SetDefault("panel.kind", "file")
	v.SetDefault("panel.path", "magtag.png")
	v.SetDefault("panel.time_to_refresh", "5s")
	v.SetDefault("panel.quote0.token", "")
	v.SetDefault("panel.quote0.device", "")
	v.SetDefault("panel.quote0.base_url", "")
	v.SetDefault("panel.quote0.black_border", false)
	v.SetDefault("panel.waveshare.spi", "")
	v.SetDefault("sprites.background", "")
	v.SetDefault("sprites.large", "")
	v.SetDefault("sprites.small", "")
	v.SetDefault("db_path", "magtag.db")
	v.SetDefault("metrics_textfile", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("environment", EnvDevelopment)
}

// loadDotEnv loads .env from the working directory. A missing file is not an error.
func loadDotEnv() (bool, error) {
	err := godotenv.Load()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	}
	return false, fault.Wrap(fmt.Errorf("failed to load .env: %w", err), fault.Config, "config")
}

// Load reads .env, then file, then the environment; later sources win. An empty
// file selects DefaultFile, which may be absent. Every error is a config fault.
func Load(file string) (*Config, error) {
	dotEnv, err := loadDotEnv()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	optional := file == "" || file == DefaultFile
	if file == "" {
		file = DefaultFile
	}
	v.SetConfigFile(file)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !optional || !(errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound)) {
			return nil, fault.Wrap(fmt.Errorf("failed to read config file %s: %w", file, err), fault.Config, "config")
		}
	}

	v.SetEnvPrefix("WTHR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Secrets keep their conventional names; the prefixed form still works.
	if err := bindEnvVars(v, [][2]string{
		{"api_key", "WTHR_API_KEY"},
		{"api_key", "OPENWEATHER_TOKEN"},
		{"panel.quote0.token", "WTHR_PANEL_QUOTE0_TOKEN"},
		{"panel.quote0.token", "QUOTE0_TOKEN"},
		{"log_level", "LOG_LEVEL"},
		{"environment", "ENVIRONMENT"},
		{"db_path", "DB_PATH"},
	}); err != nil {
		return nil, fault.Wrap(err, fault.Config, "config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fault.Wrap(fmt.Errorf("failed to unmarshal config: %w", err), fault.Config, "config")
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fault.Wrap(err, fault.Config, "config")
	}
	cfg.DotEnv = dotEnv
	return &cfg, nil
}

// validateConfig checks field constraints and parses the enumerations.
func validateConfig(cfg *Config) error {
	if s, ok := cfg.Location.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			cfg.Location = nil
		} else if pair, ok := parseCoordinates(s); ok {
			cfg.Location = pair
		}
	}
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var err error
	if cfg.Format.Units, err = format.ParseUnits(cfg.Units); err != nil {
		return err
	}
	if cfg.Format.Pressure, err = format.ParsePressureUnit(cfg.Pressure); err != nil {
		return err
	}
	if cfg.Format.Clock, err = format.ParseClockStyle(cfg.Clock); err != nil {
		return err
	}
	if cfg.Policy, err = sleep.ParsePolicy(cfg.SleepPolicy); err != nil {
		return err
	}

	if cfg.Panel.Kind == "quote0" {
		if cfg.Panel.Quote0.Token == "" {
			return errors.New("panel.quote0.token is required for the quote0 panel")
		}
		if cfg.Panel.Quote0.Device == "" {
			return errors.New("panel.quote0.device is required for the quote0 panel")
		}
	}
	return nil
}

// parseCoordinates reads "lat,lon" as a coordinate pair, so a pair can be given in a
// single environment variable. Anything else stays a place name.
func parseCoordinates(s string) ([]float64, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, false
	}
	pair := make([]float64, 0, 2)
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, false
		}
		pair = append(pair, f)
	}
	return pair, true
}
