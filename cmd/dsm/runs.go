package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/dsm/pkg/cli"
	"mercator-hq/dsm/pkg/config"
	"mercator-hq/dsm/pkg/runlog"
	"mercator-hq/dsm/pkg/runlog/retention"
)

var runsFlags struct {
	model  string
	mode   string
	status string
	since  time.Duration
	limit  int
	output string
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect and prune the evaluation run log",
	Long: `Inspect and prune the evaluation run log.

The run log records every evaluation made by "dsm serve" and by
"dsm eval --record". Only the sqlite backend persists between processes.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	Long: `List recorded runs, newest first.

Examples:
  # Last 20 failed runs
  dsm runs list --status error --limit 20

  # Runs of one model in the last hour, as JSON
  dsm runs list --model monitor --since 1h --output json`,
	RunE: runRunsList,
}

var runsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete runs past the retention policy",
	Long: `Delete runs older than runlog.retention.days and, when
runlog.retention.max_records is set, all but the newest max_records runs.`,
	RunE: runRunsPrune,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd, runsPruneCmd)

	runsListCmd.Flags().StringVar(&runsFlags.model, "model", "", "only runs of this model")
	runsListCmd.Flags().StringVar(&runsFlags.mode, "mode", "", "only runs in this mode")
	runsListCmd.Flags().StringVar(&runsFlags.status, "status", "", "only runs with this status: success, error")
	runsListCmd.Flags().DurationVar(&runsFlags.since, "since", 0, "only runs started within this duration")
	runsListCmd.Flags().IntVar(&runsFlags.limit, "limit", 50, "maximum number of runs")
	runsListCmd.Flags().StringVarP(&runsFlags.output, "output", "o", "table", "output format: table, json, yaml")
}

func openRunLog(cfg *config.Config, logger *slog.Logger) (runlog.Store, error) {
	store, err := runlog.Open(&cfg.RunLog, logger)
	if err != nil {
		return nil, cli.NewConfigError("runlog", err.Error())
	}
	return store, nil
}

// recordRun appends one run to the configured run log.
func recordRun(ctx context.Context, cfg *config.Config, logger *slog.Logger, run *runlog.Run) error {
	if cfg.RunLog.Backend != "sqlite" {
		logger.Warn("run log backend does not persist; use runlog.backend: sqlite", "backend", cfg.RunLog.Backend)
	}
	store, err := openRunLog(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Record(ctx, run)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(runsFlags.output)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	store, err := openRunLog(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	query := &runlog.Query{
		Model:  runsFlags.model,
		Mode:   runsFlags.mode,
		Status: runsFlags.status,
		Limit:  runsFlags.limit,
	}
	if runsFlags.since > 0 {
		query.Since = time.Now().Add(-runsFlags.since)
	}

	runs, err := store.List(cmd.Context(), query)
	if err != nil {
		return cli.NewCommandError("runs list", err)
	}

	out := cmd.OutOrStdout()
	switch format {
	case cli.FormatJSON, cli.FormatYAML:
		return cli.NewFormatter(format).FormatTo(out, runs)
	case cli.FormatTable:
		table := cli.NewTable(out, []string{"ID", "STARTED", "MODEL", "MODE", "STATUS", "RECORDS", "DURATION", "ERROR"})
		for _, r := range runs {
			table.Append([]string{
				r.ID, r.StartedAt.Format(time.RFC3339), r.Model, r.Mode, r.Status(),
				strconv.Itoa(r.Records), r.Duration.Round(time.Microsecond).String(), r.ErrorKind,
			})
		}
		table.Render()
		return nil
	default:
		return fmt.Errorf("runs list does not support %s output", format)
	}
}

func runRunsPrune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	store, err := openRunLog(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	pruner := retention.NewPruner(store, &cfg.RunLog.Retention, logger, nil)
	n, err := pruner.Prune(cmd.Context())
	if err != nil {
		return cli.NewCommandError("runs prune", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d run(s)\n", n)
	return nil
}
