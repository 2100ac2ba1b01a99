package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-postlint"
	"github.com/goliatone/go-postlint/internal/di"
	"github.com/goliatone/go-postlint/internal/report"
	"github.com/goliatone/go-postlint/pkg/interfaces"
)

type globalOptions struct {
	configPath   string
	format       string
	logLevel     string
	logProvider  string
	ledgerDriver string
	ledgerDSN    string
}

func (o *globalOptions) bind(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&o.configPath, "config", "c", "", "Path to a .postlint.yml file (default: looked up in the content directory)")
	flags.StringVarP(&o.format, "format", "f", "", "Report format: text, json or github")
	flags.StringVar(&o.logLevel, "log-level", "", "Log level: trace, debug, info, warn or error")
	flags.StringVar(&o.logProvider, "log-provider", "", "Logging provider: console or gologger")
	flags.StringVar(&o.ledgerDriver, "ledger-driver", "", "Run history store: memory, sqlite or postgres")
	flags.StringVar(&o.ledgerDSN, "ledger-dsn", "", "Data source name for sql ledger drivers")
}

// config loads the config file and applies flag overrides. dir, when set,
// replaces the configured content directory.
func (o *globalOptions) config(cmd *cobra.Command, dir string) (postlint.Config, error) {
	var (
		cfg  postlint.Config
		path string
		err  error
	)
	if o.configPath != "" {
		path = o.configPath
		cfg, err = postlint.LoadConfig(path)
	} else {
		lookup := dir
		if lookup == "" {
			lookup = "."
		}
		cfg, path, err = postlint.FindConfig(lookup)
	}
	if err != nil {
		return postlint.Config{}, err
	}

	if path != "" && !filepath.IsAbs(cfg.Lint.ContentDir) && dir == "" {
		cfg.Lint.ContentDir = filepath.Join(filepath.Dir(path), cfg.Lint.ContentDir)
	}
	if dir != "" {
		cfg.Lint.ContentDir = dir
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Output.Format = o.format
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if flags.Changed("log-provider") {
		cfg.Logging.Provider = o.logProvider
	}
	if flags.Changed("ledger-driver") {
		cfg.Ledger.Driver = o.ledgerDriver
	}
	if flags.Changed("ledger-dsn") {
		cfg.Ledger.DSN = o.ledgerDSN
	}
	if err := cfg.Validate(); err != nil {
		return postlint.Config{}, err
	}
	return cfg, nil
}

func (o *globalOptions) module(cfg postlint.Config, stderr io.Writer) (*postlint.Module, error) {
	return moduleBuilder(cfg, di.WithLogWriter(stderr))
}

// reportWriter builds the stdout renderer. root is the absolute content
// directory; annotations are prefixed with it relative to the working
// directory.
func reportWriter(cfg postlint.Config, root string, stdout io.Writer) (*report.Writer, error) {
	opts := []report.Option{report.WithSkipped(cfg.Output.ShowSkipped)}
	if cwd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(cwd, root); err == nil {
			opts = append(opts, report.WithPathPrefix(rel))
		}
	}
	if value := strings.TrimSpace(cfg.Output.MinSeverity); value != "" {
		severity, err := interfaces.ParseSeverity(value)
		if err != nil {
			return nil, fmt.Errorf("min severity: %w", err)
		}
		opts = append(opts, report.WithMinSeverity(severity))
	}
	return report.NewWriter(stdout, cfg.Output.Format, opts...)
}

func recursiveFlag(cmd *cobra.Command, value bool) *bool {
	if !cmd.Flags().Changed("recursive") {
		return nil
	}
	return &value
}
