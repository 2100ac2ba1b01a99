package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	lintcmd "github.com/goliatone/go-postlint/internal/commands/lint"
)

type lintOptions struct {
	failOn      string
	changedOnly bool
	pattern     string
	exclude     []string
	recursive   bool
	showSkipped bool
	minSeverity string
}

func newLintCommand(global *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	opts := &lintOptions{}
	cmd := &cobra.Command{
		Use:   "lint [dir | file...]",
		Short: "Check posts and report issues",
		Long: `Lint every post under a content directory, or only the given files.
Exits with status 1 when an issue at or above --fail-on is found.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, global, opts, args, stdout, stderr)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.failOn, "fail-on", "", "Lowest severity that fails the run: error, warning or info")
	flags.BoolVar(&opts.changedOnly, "changed-only", false, "Skip files unchanged since their last clean run")
	flags.StringVar(&opts.pattern, "pattern", "", "Glob matched against post paths (default *.md and *.markdown)")
	flags.StringSliceVar(&opts.exclude, "exclude", nil, "Additional directory names to skip")
	flags.BoolVar(&opts.recursive, "recursive", true, "Descend into sub-directories")
	flags.BoolVar(&opts.showSkipped, "show-skipped", false, "List files skipped by --changed-only")
	flags.StringVar(&opts.minSeverity, "min-severity", "", "Hide issues below this severity in the report")
	return cmd
}

func runLint(cmd *cobra.Command, global *globalOptions, opts *lintOptions, args []string, stdout, stderr io.Writer) error {
	dir, files, err := splitTargets(args)
	if err != nil {
		return err
	}

	cfg, err := global.config(cmd, dir)
	if err != nil {
		return err
	}
	if opts.failOn != "" {
		cfg.Lint.FailOn = opts.failOn
	}
	if cmd.Flags().Changed("show-skipped") {
		cfg.Output.ShowSkipped = opts.showSkipped
	}
	if opts.minSeverity != "" {
		cfg.Output.MinSeverity = opts.minSeverity
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
	set, err := module.Container().RegisterCommands(nil, lintcmd.Sinks{Reports: writer, Tags: writer})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if len(files) > 0 {
		paths := make([]string, 0, len(files))
		for _, file := range files {
			abs, err := filepath.Abs(file)
			if err != nil {
				return fmt.Errorf("resolve %s: %w", file, err)
			}
			paths = append(paths, abs)
		}
		return set.Files.Execute(ctx, lintcmd.LintFilesCommand{
			Paths:  paths,
			FailOn: cfg.Lint.FailOn,
		})
	}

	return set.Directory.Execute(ctx, lintcmd.LintDirectoryCommand{
		Directory:   module.Root(),
		Pattern:     opts.pattern,
		Recursive:   recursiveFlag(cmd, opts.recursive),
		Exclude:     opts.exclude,
		ChangedOnly: opts.changedOnly,
		FailOn:      cfg.Lint.FailOn,
	})
}

// splitTargets treats a single directory argument as the content directory
// and anything else as a list of files.
func splitTargets(args []string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, nil
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return "", nil, err
		}
		if info.IsDir() {
			if len(args) > 1 {
				return "", nil, fmt.Errorf("%s is a directory; pass either one directory or a list of files", arg)
			}
			return arg, nil, nil
		}
	}
	return "", args, nil
}
