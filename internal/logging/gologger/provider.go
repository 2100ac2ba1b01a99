// Package gologger backs postlint logging with github.com/goliatone/go-logger.
// go-logger writes to stdout, so this provider suits watch mode and log
// shipping more than report runs.
package gologger

import (
	"context"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-postlint/internal/logging"
	"github.com/goliatone/go-postlint/pkg/interfaces"
)

// Provider hands out go-logger children named after postlint modules.
type Provider struct {
	root *glog.BaseLogger
}

var _ interfaces.LoggerProvider = (*Provider)(nil)

// NewProvider builds the root go-logger from parsed settings.
func NewProvider(settings logging.Settings) *Provider {
	options := []glog.Option{
		glog.WithLevel(glogLevel(settings.Level)),
		glog.WithLoggerType(string(settings.Format)),
	}
	if settings.AddSource {
		options = append(options, glog.WithAddSource(true))
	}
	root := glog.NewLogger(options...)
	if focus := nonBlank(settings.Focus); len(focus) > 0 {
		root.Focus(focus...)
	}
	return &Provider{root: root}
}

// GetLogger returns the child logger registered under name.
func (p *Provider) GetLogger(name string) interfaces.Logger {
	if name == "" {
		return &adapter{inner: p.root}
	}
	return &adapter{inner: p.root.GetLogger(name)}
}

// adapter narrows glog.Logger return types to interfaces.Logger.
type adapter struct {
	inner glog.Logger
}

var _ interfaces.FieldsLogger = (*adapter)(nil)

func (a *adapter) Trace(msg string, args ...any) { a.inner.Trace(msg, args...) }
func (a *adapter) Debug(msg string, args ...any) { a.inner.Debug(msg, args...) }
func (a *adapter) Info(msg string, args ...any)  { a.inner.Info(msg, args...) }
func (a *adapter) Warn(msg string, args ...any)  { a.inner.Warn(msg, args...) }
func (a *adapter) Error(msg string, args ...any) { a.inner.Error(msg, args...) }

// Fatal is logged at ERROR. glog's Fatal exits the process, and postlint
// maps failures to exit codes itself.
func (a *adapter) Fatal(msg string, args ...any) { a.inner.Error(msg, args...) }

func (a *adapter) WithFields(fields map[string]any) interfaces.Logger {
	fl, ok := a.inner.(glog.FieldsLogger)
	if !ok || len(fields) == 0 {
		return a
	}
	return &adapter{inner: fl.WithFields(fields)}
}

// WithContext binds ctx and copies any fields stored with
// logging.ContextWithFields onto the child, since glog does not read them.
func (a *adapter) WithContext(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return a
	}
	child := &adapter{inner: a.inner.WithContext(ctx)}
	return child.WithFields(logging.ContextFields(ctx))
}

func glogLevel(level logging.Level) string {
	switch level {
	case logging.LevelTrace:
		return glog.Trace
	case logging.LevelDebug:
		return glog.Debug
	case logging.LevelWarn:
		return glog.Warn
	case logging.LevelError, logging.LevelFatal:
		return glog.Error
	default:
		return glog.Info
	}
}

func nonBlank(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
