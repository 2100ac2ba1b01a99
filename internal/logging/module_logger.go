package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-postlint/pkg/interfaces"
)

const (
	rootModule    = "postlint"
	lintModule    = "postlint.lint"
	watchModule   = "postlint.watch"
	ledgerModule  = "postlint.ledger"
	loaderModule  = "postlint.posts"
	commandModule = "postlint.commands"
)

const (
	fieldPostPath = "post_path"
	fieldRunID    = "run_id"
	fieldRule     = "rule"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// LintLogger returns the logger namespace reserved for the lint service.
func LintLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, lintModule)
}

// WatchLogger returns the logger namespace reserved for the file watcher.
func WatchLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, watchModule)
}

// LedgerLogger returns the logger namespace reserved for run history storage.
func LedgerLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, ledgerModule)
}

// LoaderLogger returns the logger namespace reserved for post discovery.
func LoaderLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, loaderModule)
}

// CommandLogger returns a logger for command handlers under postlint.commands.<name>.
func CommandLogger(provider interfaces.LoggerProvider, name string) interfaces.Logger {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "core"
	}
	logger := ModuleLogger(provider, commandModule+"."+name)
	return WithFields(logger, map[string]any{
		"component":      "command",
		"command_module": name,
	})
}

// WithPostContext enriches the logger with the post path, run and rule.
// Empty values are ignored.
func WithPostContext(logger interfaces.Logger, path, runID, rule string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldPostPath] = trimmed
	}
	if trimmed := strings.TrimSpace(runID); trimmed != "" {
		fields[fieldRunID] = trimmed
	}
	if trimmed := strings.TrimSpace(rule); trimmed != "" {
		fields[fieldRule] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
