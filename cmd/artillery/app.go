package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/OCAP2/artillery/internal/api"
	"github.com/OCAP2/artillery/internal/config"
	"github.com/OCAP2/artillery/internal/dispatcher"
	"github.com/OCAP2/artillery/internal/logging"
	"github.com/OCAP2/artillery/internal/match"
	"github.com/OCAP2/artillery/internal/monitor"
	intOtel "github.com/OCAP2/artillery/internal/otel"
	"github.com/OCAP2/artillery/internal/parser"
	"github.com/OCAP2/artillery/internal/sim"
	"github.com/OCAP2/artillery/internal/storage"
	"github.com/OCAP2/artillery/pkg/core"
	"github.com/rs/zerolog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

type options struct {
	configDir string
	scenario  string
	ticks     int
	upload    bool
}

// app holds the long-lived services of one run.
type app struct {
	sessionStart time.Time
	slogManager  *logging.SlogManager
	logger       *slog.Logger
	zlog         zerolog.Logger
	otelProvider *intOtel.Provider
	matchContext *match.Context

	closers []io.Closer
}

func run(ctx context.Context, opts options) error {
	a := &app{sessionStart: time.Now(), matchContext: match.NewContext()}
	defer a.shutdown()

	a.setupLogging(ctx, opts.configDir)

	backend, err := storage.NewBackend(config.GetStorageConfig(), a.logger, a.zlog)
	if err != nil {
		return fmt.Errorf("failed to create storage backend: %w", err)
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			a.logger.Error("Failed to close storage backend", "error", err)
		}
	}()
	a.logger.Info("Storage backend initialized", "type", config.GetStorageConfig().Type)

	simCfg := config.GetSimulationConfig()
	session, err := sim.New(sim.Dependencies{
		Backend:      backend,
		MatchContext: a.matchContext,
		Logger:       a.logger,
		Config:       simCfg,
	})
	if err != nil {
		return err
	}

	mon := monitor.NewService(monitor.Dependencies{
		Source:     session,
		Logger:     a.logger,
		StatusPath: filepath.Join(config.GetString("logsDir"), "status.json"),
	})
	if err := mon.Start(); err != nil {
		a.logger.Warn("Failed to start status monitor", "error", err)
	}
	defer mon.Stop()

	d, err := dispatcher.New(logging.NewDispatcherLogger(a.logger))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	defer d.Close()
	p := parser.NewParser(a.logger, CurrentExtensionVersion, config.GetString("defaultTag"))
	session.RegisterHandlers(d, p)

	if opts.scenario != "" {
		if err := playScenario(ctx, opts.scenario, d, session, a.logger); err != nil {
			return err
		}
	}

	if _, running := session.Match(); !running {
		if err := session.Start(core.Match{
			Name:             simCfg.MatchName,
			Tag:              config.GetString("defaultTag"),
			Wind:             simCfg.Wind,
			TickSeconds:      simCfg.TickSeconds,
			Rules:            simCfg.Rules,
			ExtensionVersion: CurrentExtensionVersion,
		}); err != nil {
			return err
		}
	}

	ticks := opts.ticks
	if ticks < 0 {
		ticks = simCfg.Ticks
	}
	runErr := session.Run(ctx, ticks)
	if errors.Is(runErr, context.Canceled) {
		a.logger.Warn("Interrupted, ending match early", "tick", session.Tick())
		runErr = nil
	}

	if _, running := session.Match(); running {
		if err := session.End(); err != nil {
			return err
		}
	}

	world := session.World()
	a.logger.Info("Simulation finished",
		"ticks", session.Tick(),
		"tanks", len(world.Tanks),
		"alive", world.AliveCount(),
		"projectiles", len(world.Projectiles))

	if opts.upload {
		if err := a.upload(ctx, backend); err != nil {
			a.logger.Error("Upload failed", "error", err)
		}
	}
	return runErr
}

func (a *app) setupLogging(ctx context.Context, configDir string) {
	a.slogManager = logging.NewSlogManager()
	a.slogManager.Setup(nil, "info", nil)
	a.logger = a.slogManager.Logger()

	if err := config.Load(configDir); err != nil {
		a.logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		a.logger.Info("Loaded config")
	}

	logsDir := config.GetString("logsDir")
	level := config.GetString("logLevel")

	var logFile io.Writer
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		a.logger.Error("Failed to create logs dir", "error", err, "path", logsDir)
	} else {
		path := logging.LogFilePath(logsDir, AppName, a.sessionStart)
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
		if err != nil {
			a.logger.Error("Failed to create/open log file!", "error", err, "path", path)
		} else {
			a.closers = append(a.closers, f)
			logFile = f
			a.logger.Info("Begin logging in logs directory", "path", path)
		}
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		provider, err := intOtel.New(ctx, intOtel.FromConfig(otelCfg, CurrentExtensionVersion, logFile))
		if err != nil {
			a.logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			a.otelProvider = provider
			a.logger.Info("OTel provider initialized", "endpoint", otelCfg.Endpoint)
		}
	}

	opts := []logging.Option{logging.WithContext(a.matchContext.LogAttrs)}
	if config.GetBool("graylog.enabled") {
		w, err := logging.NewGraylogWriter(config.GetString("graylog.address"))
		if err != nil {
			a.logger.Error("Failed to connect to Graylog", "error", err)
		} else {
			a.closers = append(a.closers, w)
			opts = append(opts, logging.WithGraylog(w))
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if a.otelProvider != nil {
		otelLogProvider = a.otelProvider.LoggerProvider()
	}
	a.slogManager.Setup(logFile, level, otelLogProvider, opts...)
	a.logger = a.slogManager.Logger()
	slog.SetDefault(a.logger)

	zlevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zlevel = zerolog.InfoLevel
	}
	var zout io.Writer = os.Stderr
	if logFile != nil {
		zout = logFile
	}
	a.zlog = zerolog.New(zout).Level(zlevel).With().Timestamp().Str("app", AppName).Logger()
}

func (a *app) upload(ctx context.Context, backend storage.Backend) error {
	up, ok := backend.(storage.Uploadable)
	if !ok {
		a.logger.Info("Storage backend does not produce uploadable files, skipping upload")
		return nil
	}
	path := up.GetExportedFilePath()
	if path == "" {
		return errors.New("no exported recording to upload")
	}
	serverURL := config.GetString("api.serverUrl")
	if serverURL == "" {
		return errors.New("api.serverUrl is not set")
	}

	client := api.New(serverURL, config.GetString("api.apiKey"))
	if err := client.Healthcheck(ctx); err != nil {
		return err
	}
	if err := client.Upload(ctx, path, up.GetExportMetadata()); err != nil {
		return err
	}
	a.logger.Info("Uploaded recording", "path", path, "server", serverURL)
	return nil
}

func (a *app) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.slogManager != nil {
		if err := a.slogManager.Flush(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to flush logs: %v\n", err)
		}
	}
	if a.otelProvider != nil {
		if err := a.otelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to shut down OTel: %v\n", err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}
