package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/config"
	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/engine"
	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/jobs"
	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/logger"
	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/runner"
	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/storage"
	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/telemetry"
	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/transport"
	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/worker"
)

// Build-time variables set via ldflags
var (
	// Version is the semantic version of the application
	Version = "dev"
	// GitCommit is the git commit SHA at build time
	GitCommit = "unknown"
	// BuildTime is the time of the build
	BuildTime = "unknown"
)

// FlagConfig holds all command line flags
type FlagConfig struct {
	configFile *string
	port       *int
	workers    *int
	logLevel   *string
	version    *bool
}

func parseFlags() *FlagConfig {
	flags := &FlagConfig{
		configFile: flag.String("config", "", "Path to configuration file (.env or .yaml)"),
		port:       flag.Int("port", 0, "HTTP port (overrides PORT env)"),
		workers:    flag.Int("workers", 0, "Worker count (overrides WORKER_COUNT env)"),
		logLevel:   flag.String("log-level", "", "Log level (debug, info, warn, error)"),
		version:    flag.Bool("version", false, "Show version information"),
	}
	flag.Parse()
	return flags
}

func main() {
	flags := parseFlags()

	if *flags.version {
		logger.Infof("GPU Vision AI server %s (commit %s, built %s)", Version, GitCommit, BuildTime)
		os.Exit(0)
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		logger.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	logger.SetLevel(cfg.LogLevel)
	log := logger.With("vision_server")

	store, err := jobs.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DBPath).Msg("Failed to open job store")
		os.Exit(1)
	}
	defer store.Close()

	uploads, err := storage.NewLocalStore(cfg.StorageDir)
	if err != nil {
		log.Error().Err(err).Str("dir", cfg.StorageDir).Msg("Failed to prepare upload storage")
		os.Exit(1)
	}

	engines := engine.NewRegistry(
		engine.NewOCREngine(engine.OCRConfig{
			Command: cfg.OCRCommand,
			Lang:    cfg.OCRLang,
			UseGPU:  cfg.UseGPU,
		}, &runner.DefaultCommandRunner{}),
		engine.NewFaceVerifyEngine(),
	)

	pool := worker.NewPool(store, engines, cfg.WorkerCount, cfg.QueueSize)

	transportConfig := transport.HTTPTransportConfig{
		AppName:         cfg.AppName,
		Port:            cfg.Port,
		APIKeys:         cfg.APIKeys,
		CORSOrigins:     []string{"*"},
		MonthlyDocLimit: cfg.MonthlyDocLimit,
		Store:           store,
		Uploads:         uploads,
		Pool:            pool,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.TelemetryEnabled {
		metrics, reg := telemetry.New(func() int { return pool.Stats().QueueLen })
		transportConfig.Metrics = metrics
		pool.SetMetrics(metrics)
		g.Go(func() error {
			return telemetry.Serve(ctx, reg, cfg.TelemetryPort)
		})
	}

	httpTransport := transport.NewHTTPTransport(transportConfig)

	g.Go(func() error {
		return pool.Run(ctx)
	})
	g.Go(func() error {
		return httpTransport.Serve(ctx)
	})

	log.Info().
		Str("app", cfg.AppName).
		Int("port", cfg.Port).
		Int("workers", cfg.WorkerCount).
		Msg("Server started")

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
	log.Info().Msg("Server stopped")
}

// loadConfig builds the config and applies flag overrides on top of env.
func loadConfig(flags *FlagConfig) (*config.Config, error) {
	cfg, err := config.Load(*flags.configFile)
	if err != nil {
		return nil, err
	}
	if *flags.port != 0 {
		cfg.Port = *flags.port
	}
	if *flags.workers != 0 {
		cfg.WorkerCount = *flags.workers
	}
	if *flags.logLevel != "" {
		cfg.LogLevel = *flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
