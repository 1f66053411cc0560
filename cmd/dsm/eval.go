package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/dsm/pkg/cli"
	"mercator-hq/dsm/pkg/docpath"
	"mercator-hq/dsm/pkg/engine"
	"mercator-hq/dsm/pkg/model"
	"mercator-hq/dsm/pkg/modelstore"
	"mercator-hq/dsm/pkg/resolver"
	"mercator-hq/dsm/pkg/runlog"
)

var evalFlags struct {
	model  string
	mode   string
	inputs []string
	roles  []string
	output string
	record bool
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a model against input documents",
	Long: `Evaluate a model against one or more named input documents.

Modes:
  detail  nested document shaped like the model (default)
  list    one flat record per leaf value
  node    flat records with scalar siblings grouped

Input documents are YAML or JSON files bound to the names that resolver
"source" parameters refer to.

Examples:
  # Nested document
  dsm eval --model monitor.yaml --input input=show_monitor.json

  # Flat records as CSV for two roles
  dsm eval --model monitor.yaml --input input=show_monitor.json \
      --mode list --roles viewer,operator --output csv

  # Several inputs, recorded in the run log
  dsm eval --model arp.yaml --input arp=arp.json --input ifaces=ifaces.yaml --record`,
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVarP(&evalFlags.model, "model", "m", "", "model file (required)")
	evalCmd.Flags().StringVar(&evalFlags.mode, "mode", string(engine.ModeDetail), "evaluation mode: detail, list, node")
	evalCmd.Flags().StringArrayVarP(&evalFlags.inputs, "input", "i", nil, "input document as name=path (repeatable)")
	evalCmd.Flags().StringSliceVarP(&evalFlags.roles, "roles", "r", nil, "active roles (defaults to engine.default_roles)")
	evalCmd.Flags().StringVarP(&evalFlags.output, "output", "o", "json", "output format: json, yaml, table, csv")
	evalCmd.Flags().BoolVar(&evalFlags.record, "record", false, "record the evaluation in the run log")
	_ = evalCmd.MarkFlagRequired("model")
}

func runEval(cmd *cobra.Command, args []string) error {
	if evalFlags.model == "" {
		return fmt.Errorf("--model is required")
	}
	mode, err := engine.ParseMode(evalFlags.mode)
	if err != nil {
		return err
	}
	format, err := cli.ParseFormat(evalFlags.output)
	if err != nil {
		return err
	}
	if mode == engine.ModeDetail && (format == cli.FormatCSV || format == cli.FormatTable) {
		return fmt.Errorf("%s output needs flat records; use --mode list or node", format)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	root, err := model.ParseFile(evalFlags.model)
	if err != nil {
		return err
	}
	docs, err := readInputs(evalFlags.inputs)
	if err != nil {
		return err
	}

	roles := evalFlags.roles
	if len(roles) == 0 {
		roles = cfg.Engine.DefaultRoles
	}

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	name := modelstore.Stem(evalFlags.model)
	run := runlog.NewRun(name, string(mode), roles)
	res, err := eng.Run(ctx, mode, root, engine.Input{Model: name, Documents: docs, Roles: roles})
	if evalFlags.record {
		count := 0
		if res != nil {
			count = res.Count()
		}
		run.Finish(count, err)
		if rerr := recordRun(ctx, cfg, logger, run); rerr != nil {
			logger.Warn("failed to record run", "error", rerr)
		}
	}
	if err != nil {
		return cli.NewCommandError("eval", err)
	}

	var data any = res.Records
	if mode == engine.ModeDetail {
		data = res.Value
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), data)
}

// readInputs decodes every name=path pair into a named document.
func readInputs(pairs []string) (resolver.Documents, error) {
	docs := make(resolver.Documents, len(pairs))
	for _, pair := range pairs {
		name, path, ok := strings.Cut(pair, "=")
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("invalid --input %q: want name=path", pair)
		}
		if _, dup := docs[name]; dup {
			return nil, fmt.Errorf("input %q given twice", name)
		}
		doc, err := docpath.DecodeFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read input %q: %w", name, err)
		}
		docs[name] = doc
	}
	return docs, nil
}
