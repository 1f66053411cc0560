package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/dsm/pkg/auth"
	"mercator-hq/dsm/pkg/cli"
	"mercator-hq/dsm/pkg/engine"
	"mercator-hq/dsm/pkg/modelstore"
	"mercator-hq/dsm/pkg/runlog"
	"mercator-hq/dsm/pkg/runlog/retention"
	"mercator-hq/dsm/pkg/server"
	"mercator-hq/dsm/pkg/telemetry"
)

var serveFlags struct {
	listenAddress string
	models        string
	watch         bool
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve models over HTTP",
	Long: `Load every model in the models directory and evaluate them over HTTP.

Endpoints:
  POST /v1/models/{name}/{mode}   evaluate a model
  GET  /v1/models                 list loaded models
  GET  /v1/runs                   query the run log (runlog.enabled)
  GET  /metrics                   Prometheus metrics
  GET  /healthz, /readyz          health probes

Examples:
  # Start with default config
  dsm serve

  # Serve a directory and reload models on change
  dsm serve --models ./models --watch

  # Validate config and models without starting the server
  dsm serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.models, "models", "", "override models path")
	serveCmd.Flags().BoolVar(&serveFlags.watch, "watch", false, "reload models when files change")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config and models without serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.models != "" {
		cfg.Models.Path = serveFlags.models
	}
	if serveFlags.watch {
		cfg.Models.Watch = true
	}

	tel, err := telemetry.New(&cfg.Telemetry, Version)
	if err != nil {
		return cli.NewConfigError("telemetry", err.Error())
	}
	logger := tel.Logger()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	engineOpts := []engine.Option{engine.WithTracer(tel.Tracer())}
	if cfg.Telemetry.Metrics.Enabled {
		engineOpts = append(engineOpts, engine.WithRecorder(tel.Metrics()))
	}
	eng, err := newEngine(cfg, logger, engineOpts...)
	if err != nil {
		return err
	}

	store := modelstore.New(&cfg.Models, logger,
		modelstore.WithValidator(eng),
		modelstore.WithRecorder(tel.Metrics()),
	)
	if err := store.Load(); err != nil {
		return cli.NewCommandError("serve", err)
	}
	logger.Info("models loaded", "count", store.Len(), "path", cfg.Models.Path)

	if serveFlags.dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration valid\n✓ %d model(s) loaded\n", store.Len())
		return nil
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	checker := tel.Health()
	checker.Register("models", store.Check)

	opts := []server.Option{server.WithDefaultRoles(cfg.Engine.DefaultRoles)}
	if cfg.Server.Auth.Enabled {
		validator := auth.NewValidator(cfg.Server.Auth.Keys)
		opts = append(opts, server.WithAuth(validator, cfg.Server.Auth.Header, cfg.Server.Auth.Scheme))
		logger.Info("API key authentication enabled", "keys", len(validator.Names()))
	}
	if cfg.Telemetry.Metrics.Enabled {
		opts = append(opts, server.WithMetrics(tel.Metrics(), cfg.Telemetry.Metrics.Path))
	}
	if cfg.Telemetry.Health.Enabled {
		opts = append(opts, server.WithHealth(checker, cfg.Telemetry.Health.LivenessPath, cfg.Telemetry.Health.ReadinessPath))
	}

	if cfg.RunLog.Enabled {
		runs, err := runlog.Open(&cfg.RunLog, logger)
		if err != nil {
			return cli.NewConfigError("runlog", err.Error())
		}
		defer runs.Close()
		checker.Register("runlog", runs.Ping)
		opts = append(opts, server.WithRunLog(runs))

		if cfg.RunLog.Retention.PruneSchedule != "" {
			pruner := retention.NewPruner(runs, &cfg.RunLog.Retention, logger, tel.Metrics())
			scheduler := retention.NewScheduler(pruner)
			if err := scheduler.Start(ctx); err != nil {
				logger.Warn("failed to start retention scheduler", "error", err)
			} else {
				defer scheduler.Stop()
				logger.Debug("run log retention scheduler started", "next_run", scheduler.NextRun())
			}
		}
	}

	if cfg.Models.Watch {
		go func() {
			if err := store.Watch(ctx); err != nil {
				logger.Error("model watcher stopped", "error", err)
			}
		}()
	}

	srv := server.New(&cfg.Server, eng, store, logger, opts...)
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	return nil
}
