// Package main provides the entry point for keva-server.
//
// keva-server is an in-memory key-value store speaking the Redis wire
// protocol, with per-key expiration and snapshot persistence.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/kevadb/keva/internal/infra/confloader"
	"github.com/kevadb/keva/internal/infra/shutdown"
	"github.com/kevadb/keva/internal/server"
	"github.com/kevadb/keva/internal/server/config"
	"github.com/kevadb/keva/internal/storage/snapshot"
	"github.com/kevadb/keva/internal/store"
	"github.com/kevadb/keva/internal/telemetry/logger"
	"github.com/kevadb/keva/internal/telemetry/metric"
)

// Build information, set via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := app().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func app() *cli.App {
	return &cli.App{
		Name:    "keva-server",
		Usage:   "in-memory key-value store with Redis wire compatibility",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to YAML configuration file",
				EnvVars: []string{"KEVA_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "listen",
				Aliases: []string{"l"},
				Usage:   "TCP listen address, overrides the config file",
			},
			&cli.StringFlag{
				Name:  "snapshot",
				Usage: "snapshot file path, overrides the config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level: debug, info, warn, error",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})

	log.Info("starting keva-server",
		"version", version,
		"commit", commit,
		"listen", cfg.Server.ListenAddr,
	)

	st := store.New()

	mgr, err := snapshot.NewManager(cfg.Storage.SnapshotPath)
	if err != nil {
		return fmt.Errorf("init snapshot manager: %w", err)
	}

	metrics := metric.NewRegistry()
	if err := metrics.Register(metric.NewKeyspaceCollector(st.CollectStats)); err != nil {
		return fmt.Errorf("register keyspace collector: %w", err)
	}

	persister := server.NewPersister(st, mgr, log, metrics)
	if err := persister.Restore(); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}

	shutdownHandler := shutdown.NewHandler(30*time.Second, log)
	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// Active expiration sweep.
	sweeper := store.NewSweeper(st, cfg.Expiry.SweepInterval, cfg.Expiry.SweepSampleSize, log)
	sweeper.OnCycle = func(sampled, expired int) {
		metrics.SweepCycles.Inc()
	}
	go sweeper.Run(rootCtx)

	// Periodic snapshots plus the final snapshot at shutdown.
	persistDone := make(chan struct{})
	go func() {
		defer close(persistDone)
		persister.Run(rootCtx, cfg.Storage.SnapshotInterval)
	}()

	srv := server.New(&server.Config{
		ListenAddr:   cfg.Server.ListenAddr,
		MaxConns:     cfg.Server.MaxConns,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		RateLimit:    cfg.Server.RateLimit,
		Version:      version,
	}, st, persister, metrics, log)
	if err := srv.Start(rootCtx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			log.Info("metrics endpoint listening", "addr", cfg.Metrics.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server error", "error", err)
			}
		}()
	}

	watcher := startConfigWatcher(c.String("config"), log)

	// Hooks run in reverse order: stop accepting, drain connections,
	// then stop the snapshot loop so the final dump sees every write.
	shutdownHandler.OnShutdown("persister", func(ctx context.Context) error {
		cancelRoot()
		select {
		case <-persistDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	shutdownHandler.OnShutdown("metrics", func(ctx context.Context) error {
		if metricsSrv == nil {
			return nil
		}
		return metricsSrv.Shutdown(ctx)
	})
	shutdownHandler.OnShutdown("watcher", func(context.Context) error {
		if watcher == nil {
			return nil
		}
		return watcher.Stop()
	})
	shutdownHandler.OnShutdown("server", func(ctx context.Context) error {
		log.Info("shutting down server")
		return srv.Shutdown(ctx)
	})

	log.Info("server started")
	if err := shutdownHandler.Wait(); err != nil {
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

// loadConfig merges defaults, the YAML file, environment variables, and
// command-line overrides, then validates the result.
func loadConfig(c *cli.Context) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if path := c.String("config"); path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	overrides := map[string]any{}
	if v := c.String("listen"); v != "" {
		overrides["server.listen_addr"] = v
	}
	if v := c.String("snapshot"); v != "" {
		overrides["storage.snapshot_path"] = v
	}
	if v := c.String("log-level"); v != "" {
		overrides["log.level"] = v
	}
	if len(overrides) > 0 {
		if err := loader.LoadMap(overrides); err != nil {
			return nil, err
		}
		if err := loader.Unmarshal(cfg); err != nil {
			return nil, err
		}
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// startConfigWatcher reloads the log level when the configuration file
// is edited. Other settings require a restart.
func startConfigWatcher(path string, log *slog.Logger) *confloader.Watcher {
	if path == "" {
		return nil
	}
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		log.Warn("config watcher unavailable", "error", err)
		return nil
	}
	if err := w.Watch(path); err != nil {
		log.Warn("config watch failed", "path", path, "error", err)
		_ = w.Stop()
		return nil
	}
	w.OnChange(func(string) {
		loader := confloader.NewLoader(confloader.WithConfigFile(path))
		cfg := config.Default()
		if err := loader.Load(cfg); err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		if cfg.Log.Level != logger.Level() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	w.StartAsync()
	return w
}
