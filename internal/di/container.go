package di

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	lintcmd "github.com/goliatone/go-postlint/internal/commands/lint"
	"github.com/goliatone/go-postlint/internal/ledger"
	"github.com/goliatone/go-postlint/internal/lint"
	"github.com/goliatone/go-postlint/internal/logging"
	"github.com/goliatone/go-postlint/internal/logging/console"
	"github.com/goliatone/go-postlint/internal/logging/gologger"
	"github.com/goliatone/go-postlint/internal/posts"
	"github.com/goliatone/go-postlint/internal/runtimeconfig"
	"github.com/goliatone/go-postlint/internal/validation"
	"github.com/goliatone/go-postlint/internal/watch"
	"github.com/goliatone/go-postlint/pkg/interfaces"
)

// Container wires postlint dependencies from a runtime config.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logWriter      io.Writer
	logger         interfaces.Logger

	root        string
	filesystem  fs.FS
	loader      *posts.Loader
	rules       *validation.RuleSet
	ledger      ledger.Repository
	closeLedger func() error
	linter      *lint.Service
}

// Option mutates the container before services are built.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected by cfg.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithLogWriter redirects the console provider, which writes to stderr by default.
func WithLogWriter(w io.Writer) Option {
	return func(c *Container) {
		c.logWriter = w
	}
}

// WithFS replaces os.DirFS(ContentDir) as the post source.
func WithFS(filesystem fs.FS) Option {
	return func(c *Container) {
		c.filesystem = filesystem
	}
}

// WithLedger supplies a ledger instead of opening one from cfg.Ledger. The
// caller keeps ownership and Close leaves it open.
func WithLedger(repo ledger.Repository) Option {
	return func(c *Container) {
		c.ledger = repo
	}
}

// NewContainer validates cfg and builds every service.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogger(); err != nil {
		return nil, err
	}
	if err := c.configureLoader(); err != nil {
		return nil, err
	}
	if err := c.configureRules(); err != nil {
		return nil, err
	}
	if err := c.configureLedger(); err != nil {
		return nil, err
	}
	if err := c.configureLinter(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) configureLogger() error {
	if c.loggerProvider == nil {
		settings, err := c.Config.Logging.Settings()
		if err != nil {
			return err
		}
		if settings.Provider == logging.ProviderGoLogger {
			c.loggerProvider = gologger.NewProvider(settings)
		} else {
			c.loggerProvider = console.NewProvider(console.Options{Writer: c.logWriter, Level: settings.Level})
		}
	}
	c.logger = logging.ModuleLogger(c.loggerProvider, "")
	return nil
}

func (c *Container) configureLoader() error {
	root, err := filepath.Abs(c.Config.Lint.ContentDir)
	if err != nil {
		return fmt.Errorf("postlint: resolve content dir %s: %w", c.Config.Lint.ContentDir, err)
	}
	c.root = root
	if c.filesystem == nil {
		info, err := os.Stat(root)
		if err != nil {
			return fmt.Errorf("postlint: content dir %s: %w", root, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("postlint: content dir %s is not a directory", root)
		}
		c.filesystem = os.DirFS(root)
	}
	c.loader = posts.NewLoader(c.filesystem, posts.LoaderConfig{
		BasePath:  root,
		Patterns:  c.Config.Lint.Patterns,
		Exclude:   c.Config.Lint.Exclude,
		Recursive: c.Config.Lint.Recursive,
	})
	logging.LoaderLogger(c.loggerProvider).Debug("posts.loader.configured",
		"root", root,
		"patterns", c.Config.Lint.Patterns,
		"recursive", c.Config.Lint.Recursive,
	)
	return nil
}

func (c *Container) configureRules() error {
	vcfg, err := c.Config.Rules.ValidationConfig()
	if err != nil {
		return err
	}
	rules, err := validation.NewRuleSet(vcfg)
	if err != nil {
		return err
	}
	c.rules = rules
	c.logger.Debug("rules.configured", "rules", rules.Names())
	return nil
}

func (c *Container) configureLedger() error {
	logger := logging.LedgerLogger(c.loggerProvider)
	if c.ledger != nil {
		logger.Debug("ledger.configured", "driver", "external")
		return nil
	}
	cfg := ledger.Config{Driver: c.Config.Ledger.Driver, DSN: c.Config.Ledger.DSN}
	repo, closeFn, err := ledger.NewRepository(context.Background(), cfg)
	if err != nil {
		return err
	}
	c.ledger = repo
	c.closeLedger = closeFn
	driver, _ := ledger.NormalizeDriver(cfg.Driver)
	logger.Debug("ledger.configured", "driver", driver)
	return nil
}

func (c *Container) configureLinter() error {
	svc, err := lint.NewService(c.loader, c.rules,
		lint.WithLedger(c.ledger),
		lint.WithLogger(logging.LintLogger(c.loggerProvider)),
		lint.WithWorkers(c.Config.Lint.Workers),
	)
	if err != nil {
		return err
	}
	c.linter = svc
	return nil
}

// Root is the absolute content directory.
func (c *Container) Root() string { return c.root }

// LoggerProvider returns the resolved provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

// Loader returns the post loader.
func (c *Container) Loader() *posts.Loader { return c.loader }

// Rules returns the configured rule set.
func (c *Container) Rules() *validation.RuleSet { return c.rules }

// Ledger returns the run history repository.
func (c *Container) Ledger() ledger.Repository { return c.ledger }

// Linter returns the lint service.
func (c *Container) Linter() *lint.Service { return c.linter }

// RegisterCommands builds the lint command handlers and registers them with
// reg when it is not nil.
func (c *Container) RegisterCommands(reg lintcmd.CommandRegistry, sinks lintcmd.Sinks, opts ...lintcmd.Option) (*lintcmd.HandlerSet, error) {
	return lintcmd.Register(reg, c.linter, sinks, c.loggerProvider, opts...)
}

// Watcher builds a file watcher over the content directory using the
// configured debounce.
func (c *Container) Watcher(handler watch.Handler) (*watch.Watcher, error) {
	return watch.New(c.root, c.linter, c.loader, handler,
		watch.WithDebounce(c.Config.Watch.Debounce),
		watch.WithLogger(logging.WatchLogger(c.loggerProvider)),
		watch.WithLedger(c.ledger),
	)
}

// Close releases the ledger when the container opened it.
func (c *Container) Close() error {
	if c.closeLedger == nil {
		return nil
	}
	closeFn := c.closeLedger
	c.closeLedger = nil
	if err := closeFn(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("postlint: close ledger: %w", err)
	}
	return nil
}
