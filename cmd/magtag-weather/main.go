package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sabarrett328/SBMagtag-Weather/internal/config"
	"github.com/sabarrett328/SBMagtag-Weather/internal/cycle"
	"github.com/sabarrett328/SBMagtag-Weather/internal/db"
	"github.com/sabarrett328/SBMagtag-Weather/internal/fault"
	"github.com/sabarrett328/SBMagtag-Weather/internal/logger"
	"github.com/sabarrett328/SBMagtag-Weather/internal/metrics"
	"github.com/sabarrett328/SBMagtag-Weather/internal/panel"
	"github.com/sabarrett328/SBMagtag-Weather/internal/screen"
	"github.com/sabarrett328/SBMagtag-Weather/internal/sleep"
	"github.com/sabarrett328/SBMagtag-Weather/internal/weather"
)

// Replaced in tests.
var (
	openPanel  = panel.Open
	newSleeper = func(once bool, log *zap.SugaredLogger) sleep.DeepSleeper {
		if once {
			return &sleep.ExitSleeper{Logger: log}
		}
		return &sleep.ExecSleeper{Logger: log}
	}
)

type flags struct {
	config  string
	once    bool
	dryRun  bool
	profile string
}

func main() {
	var f flags
	flag.StringVar(&f.config, "config", config.DefaultFile, "Path to the YAML configuration file")
	flag.BoolVar(&f.once, "once", false, "Run one cycle and exit instead of sleeping in-process")
	flag.BoolVar(&f.dryRun, "dry-run", false, "Render to the file panel and exit without sleeping")
	flag.StringVar(&f.profile, "profile", "", "Profile the cycle: cpu or mem")
	flag.Parse()

	os.Exit(run(f))
}

func run(f flags) int {
	cfg, err := config.Load(f.config)
	if err != nil {
		logger.GetLogger().Errorw("Failed to load configuration", "error", err)
		_ = logger.Close()
		return 1
	}
	logger.Configure(cfg.LogLevel, cfg.Environment)
	log := logger.GetLogger()
	defer logger.Close()

	if !cfg.DotEnv {
		log.Debugw("No .env file found, using config file and environment only")
	}

	log.Infow("Configuration loaded",
		"api_key", logger.MaskSensitiveString(cfg.APIKey, 3, 3),
		"panel", cfg.Panel.Kind,
		"units", cfg.Format.Units,
		"pressure", cfg.Format.Pressure,
		"clock", cfg.Format.Clock,
		"sleep_policy", cfg.Policy,
	)

	stop := startProfile(f.profile, log)

	d, err := wake(cfg, f, log)
	stop()
	if err != nil {
		// Only configuration problems end up here; everything else still sleeps.
		log.Errorw("Failed to start wake cycle", "kind", fault.KindOf(err), "error", err)
		return 1
	}

	if f.dryRun {
		log.Infow("Dry run finished", "next_sleep", sleep.Describe(d))
		return 0
	}

	sleeper := newSleeper(f.once, log)
	_ = logger.Close()
	if err := sleeper.DeepSleep(context.Background(), d); err != nil {
		log.Errorw("Deep sleep failed", "error", err)
		return 1
	}
	return 0
}

// wake wires the cycle from cfg, runs it once and returns the sleep it computed.
// Only configuration failures are returned; a failed cycle, including a panel
// that cannot be opened, still yields a sleep.
func wake(cfg *config.Config, f flags, log *zap.SugaredLogger) (time.Duration, error) {
	store, err := db.NewDB(cfg.DBPath)
	if err != nil {
		// The journal is optional; the panel keeps working without it.
		log.Warnw("Database unavailable, continuing without journal", "path", cfg.DBPath, "error", err)
		store = nil
	} else {
		defer store.Close()
	}

	layout := screen.DefaultLayout()
	assets, err := screen.LoadAssets(layout, cfg.Sprites.Background, cfg.Sprites.Large, cfg.Sprites.Small)
	if err != nil {
		return 0, fault.Wrap(err, fault.Config, "sprites")
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	client := weather.NewClient(cfg.APIKey, weather.Endpoints{
		OneCall:      cfg.Endpoints.Weather,
		AirPollution: cfg.Endpoints.AirQuality,
		Geocode:      cfg.Endpoints.Geocode,
	}, limiter)
	svc := weather.NewService(client, log)
	svc.ReverseGeocode = cfg.ReverseGeocode
	svc.AirQuality = cfg.AirQuality

	runner := &cycle.Runner{
		Service:         svc,
		Location:        cfg.Location,
		Layout:          layout,
		Assets:          assets,
		Format:          cfg.Format,
		Policy:          cfg.Policy,
		Store:           store,
		Metrics:         metrics.New(),
		MetricsTextfile: cfg.MetricsTextfile,
		Log:             log,
	}

	opts := panel.Options{
		Kind:          cfg.Panel.Kind,
		TimeToRefresh: cfg.Panel.TimeToRefresh,
		Size:          layout.Size(),
		Path:          cfg.Panel.Path,
		Store:         store,
		Quote0: panel.Quote0Options{
			Token:       cfg.Panel.Quote0.Token,
			Device:      cfg.Panel.Quote0.Device,
			BaseURL:     cfg.Panel.Quote0.BaseURL,
			BlackBorder: cfg.Panel.Quote0.BlackBorder,
		},
		Waveshare: panel.WaveshareOptions{SPI: cfg.Panel.Waveshare.SPI},
		Log:       log,
	}
	if f.dryRun {
		opts.Kind = panel.KindFile
		opts.TimeToRefresh = 0
	}
	p, err := openPanel(opts)
	if err != nil {
		// Hardware can fail transiently; sleeping keeps the next cycle coming.
		res := runner.Abort(fault.Wrap(fmt.Errorf("failed to open %s panel: %w", opts.Kind, err), fault.Display, "open_panel"))
		return res.Sleep, nil
	}
	if c, ok := p.(io.Closer); ok {
		defer c.Close()
	}
	runner.Updater = &screen.Updater{Panel: p, Log: log}

	res := runner.Run(context.Background())
	log.Infow("Wake cycle finished",
		"run_id", res.ID,
		"ok", res.OK(),
		"duration", res.Duration.String(),
		"sleep", sleep.Describe(res.Sleep),
	)
	return res.Sleep, nil
}

// startProfile starts pkg/profile for mode and returns its stop function. Profiles
// must be stopped before the process image is replaced.
func startProfile(mode string, log *zap.SugaredLogger) func() {
	var opt func(*profile.Profile)
	switch mode {
	case "":
		return func() {}
	case "cpu":
		opt = profile.CPUProfile
	case "mem":
		opt = profile.MemProfile
	default:
		log.Warnw("Unknown profile mode, profiling disabled", "mode", mode)
		return func() {}
	}
	p := profile.Start(opt, profile.ProfilePath("."), profile.NoShutdownHook, profile.Quiet)
	return p.Stop
}
