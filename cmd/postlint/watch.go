package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-postlint"
	lintcmd "github.com/goliatone/go-postlint/internal/commands/lint"
	"github.com/goliatone/go-postlint/internal/logging"
	"github.com/goliatone/go-postlint/internal/report"
	"github.com/goliatone/go-postlint/pkg/interfaces"
)

func newWatchCommand(global *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var (
		debounce time.Duration
		initial  bool
	)
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-lint posts whenever they change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			cfg, err := global.config(cmd, dir)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("debounce") {
				cfg.Watch.Debounce = debounce
			}
			module, err := global.module(cfg, stderr)
			if err != nil {
				return err
			}
			defer module.Close()

			writer, err := reportWriter(cfg, module.Root(), stdout)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if initial {
				set, err := module.Container().RegisterCommands(nil, lintcmd.Sinks{Reports: writer})
				if err != nil {
					return err
				}
				err = set.Directory.Execute(ctx, lintcmd.LintDirectoryCommand{
					Directory: module.Root(),
					FailOn:    cfg.Lint.FailOn,
				})
				if err != nil && !lintcmd.IsLintFailed(err) {
					return err
				}
			}

			logger := logging.ModuleLogger(module.Container().LoggerProvider(), "postlint.cli")
			err = module.Watch(ctx, batchPrinter(module.Root(), writer, stdout, logger))
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Wait this long for writes to settle before linting")
	cmd.Flags().BoolVar(&initial, "initial", true, "Lint the whole directory before watching")
	return cmd
}

func batchPrinter(root string, writer *report.Writer, stdout io.Writer, logger interfaces.Logger) postlint.WatchHandler {
	return func(ctx context.Context, batch postlint.WatchBatch) {
		for _, path := range batch.Removed {
			fmt.Fprintf(stdout, "removed %s\n", path)
		}
		for path, err := range batch.Failed {
			fmt.Fprintf(stdout, "failed %s: %v\n", path, err)
		}
		if len(batch.Results) == 0 {
			return
		}
		now := time.Now()
		run := &postlint.Report{
			RunID:      uuid.New(),
			Root:       root,
			StartedAt:  now,
			FinishedAt: now,
			Files:      batch.Results,
		}
		if err := writer.WriteReport(ctx, run); err != nil {
			logger.Warn("watch.report.failed", "error", err)
		}
	}
}
