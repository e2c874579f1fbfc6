package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/frostplexx/yuki/internal/platform"
	"github.com/frostplexx/yuki/internal/platform/fake"
	"github.com/frostplexx/yuki/internal/platform/x11"
	"github.com/frostplexx/yuki/internal/wm"
	"github.com/frostplexx/yuki/pkg/config"
	"github.com/frostplexx/yuki/pkg/httpapi"
	"github.com/frostplexx/yuki/pkg/models"
	"github.com/frostplexx/yuki/pkg/persistence"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "yukid",
		Short: "yuki tiling window manager daemon",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the window manager daemon",
		RunE:  runDaemon,
	}
	runCmd.Flags().String("config", "", "config file path")
	runCmd.Flags().String("environment", "production", "config environment (development, production)")
	runCmd.Flags().String("log-level", "", "override logging.level")
	runCmd.Flags().Bool("fake-platform", false, "use the in-memory fake platform driver instead of X11")
	rootCmd.AddCommand(runCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("yukid %s (%s)\n", version, commit)
		},
	}
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "yukid: %v\n", err)
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	environment, _ := cmd.Flags().GetString("environment")
	configPath, _ := cmd.Flags().GetString("config")

	mgr := config.NewManager(environment, configPath)
	cfg, err := mgr.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if fakeFlag, _ := cmd.Flags().GetBool("fake-platform"); fakeFlag {
		cfg.WindowManager.FakePlatform = true
	}

	log := newLogger(cfg.Logging)
	tracer, shutdownTracer := newTracer(cfg.Tracing)
	defer shutdownTracer(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	port, closePort, err := buildPort(cfg.WindowManager, log)
	if err != nil {
		return fmt.Errorf("build platform driver: %w", err)
	}
	defer closePort()

	persistDir := cfg.WindowManager.PersistenceDir
	if persistDir == "" {
		persistDir = persistence.DefaultDir()
	}
	store, err := persistence.NewFileStore(persistDir)
	if err != nil {
		return fmt.Errorf("init persistence store: %w", err)
	}

	debugSrv := newDebugServer(cfg, log)
	onEvent := func(models.Event) {}
	if debugSrv != nil {
		onEvent = debugSrv.Broadcast
	}

	startupCtx, span := tracer.Start(ctx, "yukid.startup")
	wmCfg := wm.Config{
		Gaps:                     wm.Gaps{Outer: cfg.WindowManager.GapsOuter, Inner: cfg.WindowManager.GapsInner},
		RestorePositions:         cfg.WindowManager.RestorePositions,
		AutoTileNewWindows:       cfg.WindowManager.AutoTileNewWindows,
		ReconcileDebounceMs:      cfg.WindowManager.ReconcileDebounceMs,
		GeometryRetryMs:          cfg.WindowManager.GeometryRetryMs,
		PerfFastPathWindowThresh: cfg.WindowManager.PerfFastPathWindowThresh,
		WorkerPoolSize:           cfg.Performance.Concurrency.WorkerPoolSize,
		AppOverrides:             translateOverrides(cfg.WindowManager.AppOverrides),
	}

	coordinator, err := wm.NewCoordinator(startupCtx, port, store, wmCfg, onEvent, log.WithField("component", "coordinator"))
	span.End()
	if err != nil {
		return fmt.Errorf("start coordinator: %w", err)
	}
	defer coordinator.Stop()

	if debugSrv != nil {
		debugSrv.AttachSource(coordinator)
		errCh := debugSrv.Start()
		go func() {
			if err := <-errCh; err != nil {
				log.WithError(err).Error("httpapi.server_failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := debugSrv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("httpapi.shutdown_failed")
			}
		}()
	}

	mgr.WatchConfig(func() {
		reloaded, err := mgr.Load()
		if err != nil {
			log.WithError(err).Warn("config.reload_failed")
			return
		}
		coordinator.SetGaps(reloaded.WindowManager.GapsOuter, reloaded.WindowManager.GapsInner)
		log.Info("config.reloaded")
	})

	log.WithFields(logrus.Fields{"version": version, "environment": environment}).Info("yukid.started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("yukid.shutting_down")
	return nil
}

// buildPort dials a concrete X11 driver, or returns an in-memory fake
// driver pre-seeded with a single display when cfg.FakePlatform is set (for
// development without a running X server).
func buildPort(cfg config.WindowManagerConfig, log *logrus.Entry) (platform.Port, func(), error) {
	if cfg.FakePlatform {
		p := fake.New()
		p.SetDisplays([]models.MonitorDescriptor{
			{
				ID:           "fake-0",
				Name:         "fake",
				Frame:        models.NewRectangle(0, 0, 1920, 1080),
				VisibleFrame: models.NewRectangle(0, 0, 1920, 1040),
				IsPrimary:    true,
			},
		})
		return p, func() {}, nil
	}

	driver, err := x11.Dial(log.WithField("component", "x11"))
	if err != nil {
		return nil, nil, err
	}
	return driver, driver.Close, nil
}

func translateOverrides(entries []config.AppOverrideEntry) []wm.AppOverride {
	out := make([]wm.AppOverride, 0, len(entries))
	for _, e := range entries {
		out = append(out, wm.AppOverride{BundleID: e.BundleID, ForceTile: !e.Float})
	}
	return out
}

func newLogger(cfg config.LoggingConfig) *logrus.Entry {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetReportCaller(cfg.EnableCaller)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.Output == "stdout" {
		logger.SetOutput(os.Stdout)
	}

	return logrus.NewEntry(logger)
}

// newTracer wires an OpenTelemetry tracer. Tracing disabled in config
// yields a no-op provider's tracer, matching otel's own default when no
// provider is registered.
func newTracer(cfg config.TracingConfig) (trace.Tracer, func(context.Context) error) {
	if !cfg.Enabled {
		return otel.Tracer("yukid"), func(context.Context) error { return nil }
	}

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	return otel.Tracer("yukid"), tp.Shutdown
}

func newDebugServer(cfg *config.Config, log *logrus.Entry) *httpapi.Server {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return httpapi.New(cfg.GetMetricsAddress(), log.WithField("component", "httpapi"))
}
