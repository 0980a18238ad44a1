// Package app assembles the refresh pipeline: fetch both calendars with
// cache fallback, gather auxiliary data when the layout needs it, render,
// and push the frame to the display.
package app

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"epddash/internal/agenda"
	"epddash/internal/battery"
	"epddash/internal/config"
	"epddash/internal/epd"
	"epddash/internal/fetch"
	appLog "epddash/internal/log"
	"epddash/internal/model"
	"epddash/internal/privacy"
	"epddash/internal/render"
	"epddash/internal/source"
	"epddash/internal/source/gcal"
	"epddash/internal/source/ics"
	"epddash/internal/stocks"
	"epddash/internal/store"
	"epddash/internal/weather"
)

// weatherCacheMaxAge bounds how stale a cached weather snapshot may be
// before the pipeline prefers no weather at all.
const weatherCacheMaxAge = 3 * time.Hour

// App owns the long-lived collaborators of the refresh pipeline.
type App struct {
	cfg   *config.Config
	loc   *time.Location
	store *store.Store
	orch  *fetch.Orchestrator

	weather *weather.Client
	stocks  *stocks.Client
	battery battery.Reader

	renderCtx *render.Context
	sink      epd.Sink

	// now is injectable for tests; production uses time.Now.
	now func() time.Time

	// onRun, when set, receives the outcome of each cycle (the web server
	// uses it to surface per-owner liveness).
	onRun func(at time.Time, live map[model.Owner]bool)
}

// Option configures an App.
type Option func(*App)

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithSink overrides the display sink (used by -render-only and tests).
func WithSink(s epd.Sink) Option {
	return func(a *App) { a.sink = s }
}

// SetRunListener registers a callback invoked after every cycle. The web
// server uses it to surface per-owner liveness on /api/status.
func (a *App) SetRunListener(fn func(at time.Time, live map[model.Owner]bool)) {
	a.onRun = fn
}

// New builds the pipeline from configuration. It opens the event store and
// constructs one calendar source per owner; a source whose construction
// fails is left nil and the orchestrator serves that owner from cache.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		appLog.Warn("invalid timezone, using local", "timezone", cfg.Timezone)
		loc = time.Local
	}

	st, err := store.Open(cfg.DBPath, loc)
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}

	sources := map[model.Owner]source.Source{
		model.OwnerA: buildSource(cfg, model.OwnerA, cfg.OwnerA, loc),
		model.OwnerB: buildSource(cfg, model.OwnerB, cfg.OwnerB, loc),
	}

	a := &App{
		cfg:   cfg,
		loc:   loc,
		store: st,
		orch: fetch.New(st, sources, cfg.HorizonDays,
			fetch.WithTimeout(time.Duration(cfg.FetchTimeoutSec)*time.Second)),
		battery:   battery.NewReader(cfg.Battery),
		renderCtx: render.NewContext(render.LoadFonts(), render.LightTheme()),
		now:       time.Now,
	}

	if key := os.Getenv("OPENWEATHER_API_KEY"); key != "" {
		a.weather = weather.New(key, cfg.Weather.Location, cfg.Weather.Lat, cfg.Weather.Lon, loc)
	}
	if key := os.Getenv("POLYGON_API_KEY"); key != "" {
		a.stocks = stocks.New(key)
	}

	for _, opt := range opts {
		opt(a)
	}
	if a.sink == nil {
		a.sink = epd.New(cfg.Display)
	}
	return a, nil
}

// buildSource constructs the adapter for one owner. Construction failures
// (missing credentials, bad URL) degrade to cache-only for that owner.
func buildSource(cfg *config.Config, owner model.Owner, oc config.OwnerConfig, loc *time.Location) source.Source {
	switch oc.Source {
	case config.SourceICS:
		src, err := ics.New(owner, oc.ICSURL, loc)
		if err != nil {
			appLog.Warn("ics source unavailable, owner is cache-only",
				"owner", owner.String(), "reason", err.Error())
			return nil
		}
		return src
	default:
		src, err := gcal.New(owner, oc.CalendarID, cfg.Google.CredentialsPath, cfg.Google.TokenPath, loc)
		if err != nil {
			appLog.Warn("google source unavailable, owner is cache-only",
				"owner", owner.String(), "reason", err.Error())
			return nil
		}
		return src
	}
}

// Store exposes the event store for the web server.
func (a *App) Store() *store.Store { return a.store }

// Battery exposes the battery reader for the web server.
func (a *App) Battery() battery.Reader { return a.battery }

// Close releases the store and the display.
func (a *App) Close() error {
	if err := a.sink.Close(); err != nil {
		appLog.Warn("display close failed", "err", err.Error())
	}
	return a.store.Close()
}

// RunCycle executes one full refresh: fetch, bucket, render, display. It
// returns an error only for render-input construction failures; display
// failures are logged and the cycle still counts as a success, because the
// cache and preview are already up to date.
func (a *App) RunCycle(ctx context.Context, modeName string) error {
	started := a.now()
	mode, template := render.Dispatch(modeName)
	appLog.Info("refresh cycle started", "mode", string(mode))

	in, live, err := a.BuildRenderInput(ctx, mode)
	if err != nil {
		return err
	}

	img := template(a.renderCtx, in)

	if err := a.sink.Show(ctx, img); err != nil {
		appLog.Error("display update failed", err)
	} else if err := a.sink.Sleep(); err != nil {
		appLog.Warn("display sleep failed", "err", err.Error())
	}

	// Events that ended before today can never appear in a bucket again.
	dayStart := model.DateOf(started.In(a.loc)).Time(a.loc)
	if pruned, err := a.store.PruneBefore(ctx, dayStart); err != nil {
		appLog.Warn("event cache prune failed", "err", err.Error())
	} else if pruned > 0 {
		appLog.Debug("pruned expired events", "count", pruned)
	}

	if a.onRun != nil {
		a.onRun(started, live)
	}
	appLog.Info("refresh cycle finished",
		"mode", string(mode),
		"elapsed", a.now().Sub(started).String(),
		"owner_a_live", live[model.OwnerA],
		"owner_b_live", live[model.OwnerB])
	return nil
}

// BuildRenderInput runs the fetch half of the cycle and assembles the
// immutable input for the given mode. Auxiliary fetches only happen when
// the mode displays them.
func (a *App) BuildRenderInput(ctx context.Context, mode render.Mode) (*model.RenderInput, map[model.Owner]bool, error) {
	results := a.orch.FetchAll(ctx)

	pmode := privacy.Parse(a.cfg.PrivacyMode)
	live := make(map[model.Owner]bool, len(results))
	offline := make(map[model.Owner]bool)
	for owner, res := range results {
		live[owner] = res.IsLive
		if !res.IsLive {
			offline[owner] = true
		}
		results[owner] = privacy.Apply(pmode, res)
	}

	in := &model.RenderInput{
		Buckets:    agenda.Bucket(results),
		Now:        a.now().In(a.loc),
		OwnerAName: a.cfg.OwnerA.Name,
		OwnerBName: a.cfg.OwnerB.Name,
		Offline:    offline,
	}

	if render.NeedsWeather(mode) {
		in.Weather, in.Forecast = a.fetchWeather(ctx, mode)
		in.Weather = privacy.ApplyWeather(pmode, in.Weather)
	}
	if render.NeedsStocks(mode) && a.stocks != nil && len(a.cfg.Stocks.Tickers) > 0 {
		in.Stocks = a.stocks.Quotes(ctx, a.cfg.Stocks.Tickers)
	}
	if a.cfg.Battery.Enabled {
		if status, err := a.battery.Read(ctx); err == nil {
			in.BatteryPercent = &status.Percent
		}
	}
	return in, live, nil
}

// fetchWeather follows the same live-then-cache shape as the calendar
// orchestrator: a successful fetch refreshes the store, a failure serves
// the cached snapshot while it is fresh enough.
func (a *App) fetchWeather(ctx context.Context, mode render.Mode) (*model.WeatherSnapshot, []model.ForecastDay) {
	if a.weather == nil {
		appLog.Debug("weather not configured, skipping")
		return nil, nil
	}

	snap, err := a.weather.Current(ctx)
	if err != nil {
		appLog.Warn("weather fetch failed, trying cache", "err", err.Error())
		cached, forecast, cerr := a.store.GetWeather(ctx, weatherCacheMaxAge)
		if cerr != nil {
			appLog.Warn("no cached weather available", "err", cerr.Error())
			return nil, nil
		}
		return cached, forecast
	}

	var forecast []model.ForecastDay
	if mode == render.ModeForecast || mode == render.ModeCalWeather || mode == render.ModeDashboard {
		forecast, err = a.weather.Forecast(ctx, 3)
		if err != nil {
			appLog.Warn("forecast fetch failed", "err", err.Error())
			forecast = nil
		}
	}

	if err := a.store.PutWeather(ctx, snap, forecast); err != nil {
		appLog.Warn("weather cache write failed", "err", err.Error())
	}
	return snap, forecast
}

// RenderToFile renders one frame and writes it as PNG without touching the
// display. Used by the -dump flag.
func (a *App) RenderToFile(ctx context.Context, modeName, path string) error {
	mode, template := render.Dispatch(modeName)
	in, _, err := a.BuildRenderInput(ctx, mode)
	if err != nil {
		return err
	}
	return writePNG(path, template(a.renderCtx, in))
}

func writePNG(path string, img *image.NRGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
