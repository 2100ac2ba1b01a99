package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-postlint/internal/ledger"
	"github.com/goliatone/go-postlint/internal/logging"
	"github.com/goliatone/go-postlint/internal/report"
	"github.com/goliatone/go-postlint/pkg/interfaces"
)

var (
	ErrContentDirRequired     = errors.New("postlint config: content directory is required")
	ErrWorkersInvalid         = errors.New("postlint config: workers must be zero or positive")
	ErrFailOnInvalid          = errors.New("postlint config: fail_on is invalid")
	ErrSeverityInvalid        = errors.New("postlint config: rule severity is invalid")
	ErrLedgerDSNRequired      = errors.New("postlint config: ledger dsn is required for sql drivers")
	ErrLedgerDriverUnknown    = errors.New("postlint config: ledger driver is invalid")
	ErrOutputFormatInvalid    = errors.New("postlint config: output format is invalid")
	ErrLoggingProviderUnknown = errors.New("postlint config: logging provider is invalid")
	ErrLoggingLevelInvalid    = errors.New("postlint config: logging level is invalid")
	ErrLoggingFormatInvalid   = errors.New("postlint config: logging format is invalid")
	ErrDebounceInvalid        = errors.New("postlint config: watch debounce must be positive")
)

// Config aggregates every runtime setting. It is usually loaded from a
// `.postlint.yml` file and then overridden by command line flags.
type Config struct {
	Lint    LintConfig    `yaml:"lint"`
	Rules   RulesConfig   `yaml:"rules"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Output  OutputConfig  `yaml:"output"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

// LintConfig controls discovery and run behaviour.
type LintConfig struct {
	ContentDir string   `yaml:"content_dir"`
	Patterns   []string `yaml:"patterns"`
	Exclude    []string `yaml:"exclude"`
	Recursive  bool     `yaml:"recursive"`
	Workers    int      `yaml:"workers"`
	FailOn     string   `yaml:"fail_on"`
}

// RulesConfig selects and tunes validation rules.
type RulesConfig struct {
	Disabled           []string          `yaml:"disabled"`
	Enabled            []string          `yaml:"enabled"`
	Severity           map[string]string `yaml:"severity"`
	RequiredFields     []string          `yaml:"required_fields"`
	AllowScalarTags    bool              `yaml:"allow_scalar_tags"`
	AllowedLayouts     []string          `yaml:"allowed_layouts"`
	SchemaFile         string            `yaml:"schema_file"`
	Schema             map[string]any    `yaml:"schema"`
	RecommendedHeading string            `yaml:"recommended_heading"`
	RequireRecommended bool              `yaml:"require_recommended"`
}

// LedgerConfig selects where run history is kept.
type LedgerConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format      string `yaml:"format"`
	ShowSkipped bool   `yaml:"show_skipped"`
	MinSeverity string `yaml:"min_severity"`
}

// WatchConfig controls the file watcher.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// DefaultConfig returns defaults suited to a Jekyll site root.
func DefaultConfig() Config {
	return Config{
		Lint: LintConfig{
			ContentDir: ".",
			Patterns:   []string{"*.md", "*.markdown"},
			Exclude:    []string{".git", "_site", ".jekyll-cache", "node_modules", "vendor"},
			Recursive:  true,
			FailOn:     "error",
		},
		Rules: RulesConfig{
			Severity: map[string]string{},
		},
		Ledger: LedgerConfig{
			Driver: ledger.DriverMemory,
		},
		Output: OutputConfig{
			Format:      string(report.FormatText),
			MinSeverity: "info",
		},
		Watch: WatchConfig{
			Debounce: 150 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "warn",
		},
	}
}

// Validate performs consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Lint.ContentDir) == "" {
		return ErrContentDirRequired
	}
	if cfg.Lint.Workers < 0 {
		return ErrWorkersInvalid
	}
	if value := strings.TrimSpace(cfg.Lint.FailOn); value != "" {
		if _, err := interfaces.ParseSeverity(value); err != nil {
			return fmt.Errorf("%w: %s", ErrFailOnInvalid, value)
		}
	}
	for rule, value := range cfg.Rules.Severity {
		if _, err := interfaces.ParseSeverity(value); err != nil {
			return fmt.Errorf("%w: %s=%s", ErrSeverityInvalid, rule, value)
		}
	}

	driver, err := ledger.NormalizeDriver(cfg.Ledger.Driver)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrLedgerDriverUnknown, cfg.Ledger.Driver)
	}
	if driver != ledger.DriverMemory && strings.TrimSpace(cfg.Ledger.DSN) == "" {
		return ErrLedgerDSNRequired
	}

	if _, err := report.ParseFormat(cfg.Output.Format); err != nil {
		return fmt.Errorf("%w: %s", ErrOutputFormatInvalid, cfg.Output.Format)
	}
	if value := strings.TrimSpace(cfg.Output.MinSeverity); value != "" {
		if _, err := interfaces.ParseSeverity(value); err != nil {
			return fmt.Errorf("%w: min_severity=%s", ErrSeverityInvalid, value)
		}
	}
	if cfg.Watch.Debounce < 0 {
		return ErrDebounceInvalid
	}

	if _, err := cfg.Logging.Settings(); err != nil {
		return err
	}
	return nil
}

// Settings parses the logging block, mapping failures onto the config
// sentinels.
func (l LoggingConfig) Settings() (logging.Settings, error) {
	settings, err := logging.ParseSettings(l.Provider, l.Level, l.Format)
	switch {
	case errors.Is(err, logging.ErrUnknownProvider):
		return logging.Settings{}, fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, l.Provider)
	case errors.Is(err, logging.ErrUnknownLevel):
		return logging.Settings{}, fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, l.Level)
	case errors.Is(err, logging.ErrUnknownFormat):
		return logging.Settings{}, fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, l.Format)
	case err != nil:
		return logging.Settings{}, err
	}
	settings.AddSource = l.AddSource
	settings.Focus = l.Focus
	return settings, nil
}
