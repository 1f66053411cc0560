package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/dsm/pkg/cli"
	"mercator-hq/dsm/pkg/config"
	"mercator-hq/dsm/pkg/engine"
	"mercator-hq/dsm/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "dsm",
	Short: "dsm - model-driven data extraction",
	Long: `dsm evaluates data semantic models against raw input documents.

A model describes the shape of the output and how every field is resolved
from the inputs. Evaluation produces either a nested document or a flat
stream of records annotated with their dn, title, type and common fields,
honoring per-field read permissions for the active roles.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a code derived from the
// error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults apply when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig reads the config file named by --config, applying defaults
// and DSM_ environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the command logger. Logs go to stderr so they never mix
// with command output.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	logCfg := logging.FromConfig(cfg.Telemetry.Logging)
	logCfg.Writer = os.Stderr
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	return logger, nil
}

// engineConfig converts the engine section of the application config.
func engineConfig(cfg *config.EngineConfig) *engine.EngineConfig {
	return &engine.EngineConfig{
		CommonKeys:   cfg.CommonKeys,
		CommonPrefix: cfg.CommonPrefix,
		RecurseItem:  cfg.RecurseItem,
		Timeout:      cfg.Timeout,
	}
}

func newEngine(cfg *config.Config, logger *slog.Logger, opts ...engine.Option) (*engine.Engine, error) {
	eng, err := engine.New(engineConfig(&cfg.Engine), logger, opts...)
	if err != nil {
		return nil, cli.NewConfigError("engine", err.Error())
	}
	return eng, nil
}
