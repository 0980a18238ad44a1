package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"epddash/internal/app"
	"epddash/internal/config"
	"epddash/internal/epd"
	appLog "epddash/internal/log"
	"epddash/internal/model"
	"epddash/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	mode       string
	tickers    string
	dump       string
	once       bool
	renderOnly bool
}

func main() {
	flags := parseFlags()

	// API keys typically live in a .env next to the binary during
	// development; absence is fine, the real environment wins either way.
	if err := godotenv.Load(); err == nil {
		appLog.Debug("loaded environment from .env")
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI overrides.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.mode != "" {
		conf.Mode = flags.mode
	}
	if flags.tickers != "" {
		conf.Stocks.Tickers = splitTickers(flags.tickers)
	}

	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	appLog.Info("epddash starting",
		"mode", conf.Mode,
		"timezone", conf.Timezone,
		"listen", conf.Listen,
		"once", flags.once)

	// Missing calendar configuration is the one startup error that must
	// terminate the process; everything later degrades to the cache.
	if err := conf.Validate(); err != nil {
		appLog.Error("invalid configuration", err)
		os.Exit(1)
	}

	var opts []app.Option
	if flags.renderOnly {
		opts = append(opts, app.WithSink(epd.NewSimulator(conf.Display.PreviewPath)))
	}

	application, err := app.New(conf, opts...)
	if err != nil {
		appLog.Error("failed to initialize", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if flags.dump != "" {
		if err := application.RenderToFile(ctx, conf.Mode, flags.dump); err != nil {
			appLog.Error("render dump failed", err, "path", flags.dump)
			os.Exit(1)
		}
		appLog.Info("frame written", "path", flags.dump)
		return
	}

	if flags.once {
		if err := application.RunCycle(ctx, conf.Mode); err != nil {
			appLog.Error("refresh cycle failed", err)
			os.Exit(1)
		}
		return
	}

	runDaemon(ctx, conf, application)
}

// runDaemon runs the cron-driven refresh loop next to the HTTP API until
// the context is canceled.
func runDaemon(ctx context.Context, conf *config.Config, application *app.App) {
	server := web.NewServer(conf, application.Store(), application.Battery(), conf.Display.PreviewPath)
	application.SetRunListener(func(at time.Time, live map[model.Owner]bool) {
		server.RecordRun(at, live)
	})

	webErr := make(chan error, 1)
	go func() { webErr <- server.Serve(ctx) }()

	// First refresh immediately, then on the configured schedule.
	if err := application.RunCycle(ctx, conf.Mode); err != nil {
		appLog.Error("initial refresh failed", err)
	}

	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, func() {
		cycleCtx, cycleCancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cycleCancel()
		if err := application.RunCycle(cycleCtx, conf.Mode); err != nil {
			appLog.Error("scheduled refresh failed", err)
		}
	}); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	select {
	case <-ctx.Done():
	case err := <-webErr:
		if err != nil {
			appLog.Error("http server stopped", err)
		}
	}
	appLog.Info("epddash exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/epddash/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.mode, "mode", "", "Layout mode (overrides config if set)")
	flag.StringVar(&cfg.tickers, "tickers", "", "Comma-separated stock tickers (overrides config if set)")
	flag.StringVar(&cfg.dump, "dump", "", "Render one frame to the given PNG path and exit")
	flag.BoolVar(&cfg.once, "once", false, "Run one fetch+render+display cycle and exit")
	flag.BoolVar(&cfg.renderOnly, "render-only", false, "Render to the preview file; do not touch display hardware")

	flag.Parse()
	return cfg
}

func splitTickers(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.ToUpper(strings.TrimSpace(p)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
