// Package cycle runs one wake cycle: resolve the location, fetch the forecast, bind
// and render the screen, refresh the panel and work out how long to sleep.
package cycle

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sabarrett328/SBMagtag-Weather/internal/db"
	"github.com/sabarrett328/SBMagtag-Weather/internal/fault"
	"github.com/sabarrett328/SBMagtag-Weather/internal/format"
	"github.com/sabarrett328/SBMagtag-Weather/internal/metrics"
	"github.com/sabarrett328/SBMagtag-Weather/internal/screen"
	"github.com/sabarrett328/SBMagtag-Weather/internal/sleep"
	"github.com/sabarrett328/SBMagtag-Weather/internal/weather"
)

const (
	statusOK     = "ok"
	statusFailed = "failed"

	// Runs scanned for the last success when the current cycle failed.
	historyDepth = 50
)

// Runner holds everything a cycle needs. Store and Metrics are optional.
type Runner struct {
	Service  *weather.Service
	Location any
	Layout   screen.Layout
	Assets   screen.Assets
	Format   format.Options
	Policy   sleep.Policy
	Updater  *screen.Updater

	Store           *db.DB
	Metrics         *metrics.Metrics
	MetricsTextfile string

	Log   *zap.SugaredLogger
	Now   func() time.Time
	NewID func() string
}

// Result is the outcome of one cycle. Sleep is always set, including on failure.
type Result struct {
	ID       string
	Started  time.Time
	Duration time.Duration
	Location weather.Location
	Forecast *weather.Forecast
	Sleep    time.Duration
	Err      error
}

// OK reports whether the panel was refreshed.
func (r Result) OK() bool { return r.Err == nil }

func (r *Runner) defaults() {
	if r.Log == nil {
		r.Log = zap.NewNop().Sugar()
	}
	if r.Now == nil {
		r.Now = time.Now
	}
	if r.NewID == nil {
		r.NewID = func() string { return uuid.New().String() }
	}
}

// Run executes the pipeline once. A failing stage stops the pipeline before the panel
// is touched, so the previous frame stays visible; the sleep is then computed from
// the system clock instead of the forecast time.
func (r *Runner) Run(ctx context.Context) Result {
	r.defaults()
	res := Result{ID: r.NewID(), Started: r.Now()}
	log := r.Log.With("run_id", res.ID)

	local, err := r.refresh(ctx, log, &res)
	return r.finish(log, res, local, err)
}

// Abort records a cycle that failed before the pipeline could run, such as a panel
// that could not be opened. It journals the failure and returns the sleep to take.
func (r *Runner) Abort(err error) Result {
	r.defaults()
	if err == nil {
		err = fault.New(fault.Unknown, "cycle", "aborted without a cause")
	}
	res := Result{ID: r.NewID(), Started: r.Now()}
	return r.finish(r.Log.With("run_id", res.ID), res, time.Time{}, err)
}

func (r *Runner) finish(log *zap.SugaredLogger, res Result, local time.Time, err error) Result {
	if err != nil {
		res.Err = err
		local = r.Now()
		log.Errorw("Wake cycle failed, panel left unchanged",
			"kind", fault.KindOf(err),
			"error", err,
		)
		r.reportPanelMemory(log)
	}

	res.Sleep = sleep.Duration(r.Policy, local)
	res.Duration = r.Now().Sub(res.Started)

	r.journal(log, res)
	r.observe(log, res)
	return res
}

// frameMemory is implemented by panels that can tell what they are showing.
type frameMemory interface {
	LastFrame() (image.Image, time.Time, error)
}

// reportPanelMemory logs how stale the frame left on the panel is.
func (r *Runner) reportPanelMemory(log *zap.SugaredLogger) {
	if r.Updater == nil {
		return
	}
	mem, ok := r.Updater.Panel.(frameMemory)
	if !ok {
		return
	}
	img, at, err := mem.LastFrame()
	switch {
	case err != nil:
		log.Warnw("Failed to read the frame on the panel", "error", err)
	case img == nil:
		log.Warnw("Panel is blank, no earlier frame to keep")
	default:
		log.Infow("Panel keeps previous frame",
			"drawn_at", at.Format(time.RFC3339),
			"frame_age", r.Now().Sub(at).Round(time.Second).String(),
		)
	}
}

// refresh runs every stage up to the panel update and returns the forecast's local time.
func (r *Runner) refresh(ctx context.Context, log *zap.SugaredLogger, res *Result) (time.Time, error) {
	if r.Service == nil || r.Updater == nil {
		return time.Time{}, fault.New(fault.Config, "cycle", "runner is missing a weather service or updater")
	}

	loc, err := r.Service.Resolve(ctx, r.Location)
	if err != nil {
		return time.Time{}, err
	}
	res.Location = loc
	log.Infow("Resolved location", "lat", loc.Lat, "lon", loc.Lon, "name", loc.Name)

	fc, err := r.Service.Fetch(ctx, loc)
	if err != nil {
		return time.Time{}, fault.Wrap(err, fault.Unknown, "fetch")
	}
	res.Forecast = fc

	s := screen.New(r.Layout)
	if err := screen.Bind(s, fc, r.Format); err != nil {
		return time.Time{}, err
	}
	frame, err := screen.Render(s, r.Assets)
	if err != nil {
		return time.Time{}, fault.Wrap(err, fault.Display, "render")
	}
	if err := r.Updater.Show(ctx, frame); err != nil {
		return time.Time{}, err
	}

	log.Infow("Panel refreshed",
		"temp", s.Text(screen.FieldTemp),
		"condition", fc.Current.Condition,
		"days", len(fc.Days),
	)
	return fc.Current.Time, nil
}

func (r *Runner) journal(log *zap.SugaredLogger, res Result) {
	if r.Store == nil {
		return
	}
	run := db.Run{
		ID:           res.ID,
		StartedAt:    res.Started,
		Duration:     res.Duration,
		Status:       statusOK,
		Location:     locationLabel(res.Location),
		SleepSeconds: int64(res.Sleep / time.Second),
	}
	if res.Err != nil {
		run.Status = statusFailed
		run.FailureKind = string(fault.KindOf(res.Err))
		run.Error = res.Err.Error()
	}
	if err := r.Store.RecordRun(run); err != nil {
		log.Warnw("Failed to record run", "error", err)
	}
}

func (r *Runner) observe(log *zap.SugaredLogger, res Result) {
	if r.Metrics == nil {
		return
	}
	c := metrics.Cycle{
		Started:  res.Started,
		Duration: res.Duration,
		Sleep:    res.Sleep,
	}
	if res.Forecast != nil {
		c.Days = len(res.Forecast.Days)
	}
	if res.Err == nil {
		c.LastSuccess = res.Started
	} else {
		c.FailureKind = string(fault.KindOf(res.Err))
		c.LastSuccess = r.lastSuccess(log)
	}

	r.Metrics.Observe(c)
	if err := r.Metrics.WriteTextfile(r.MetricsTextfile); err != nil {
		log.Warnw("Failed to write metrics textfile", "path", r.MetricsTextfile, "error", err)
	}
}

// lastSuccess looks the newest successful run up in the journal. The textfile is
// rewritten from scratch every cycle, so a failed cycle would otherwise drop it.
func (r *Runner) lastSuccess(log *zap.SugaredLogger) time.Time {
	if r.Store == nil {
		return time.Time{}
	}
	runs, err := r.Store.RecentRuns(historyDepth)
	if err != nil {
		log.Warnw("Failed to read run history", "error", err)
		return time.Time{}
	}
	for _, run := range runs {
		if run.Status == statusOK {
			return run.StartedAt
		}
	}
	return time.Time{}
}

func locationLabel(loc weather.Location) string {
	if loc.Name != "" {
		return loc.Name
	}
	if loc.Lat == 0 && loc.Lon == 0 {
		return ""
	}
	return fmt.Sprintf("%.4f,%.4f", loc.Lat, loc.Lon)
}
