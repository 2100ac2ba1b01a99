// Package console writes postlint log entries as single text lines on
// stderr, leaving stdout to the lint report.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/goliatone/go-postlint/internal/logging"
	"github.com/goliatone/go-postlint/pkg/interfaces"
)

// Options configures the provider. The zero value writes every level to
// stderr.
type Options struct {
	Writer io.Writer
	Level  logging.Level
	Clock  func() time.Time
}

// Provider hands out loggers sharing one writer.
type Provider struct {
	out    io.Writer
	level  logging.Level
	clock  func() time.Time
	levels map[logging.Level]lipgloss.Style
	mu     sync.Mutex
}

var _ interfaces.LoggerProvider = (*Provider)(nil)

// NewProvider builds a console provider from opts.
func NewProvider(opts Options) *Provider {
	p := &Provider{out: opts.Writer, level: opts.Level, clock: opts.Clock}
	if p.out == nil {
		p.out = os.Stderr
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	r := lipgloss.NewRenderer(p.out)
	p.levels = map[logging.Level]lipgloss.Style{
		logging.LevelTrace: r.NewStyle().Faint(true),
		logging.LevelDebug: r.NewStyle().Faint(true),
		logging.LevelInfo:  r.NewStyle().Foreground(lipgloss.Color("#3b82f6")),
		logging.LevelWarn:  r.NewStyle().Foreground(lipgloss.Color("#f59e0b")),
		logging.LevelError: r.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true),
		logging.LevelFatal: r.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true).Reverse(true),
	}
	return p
}

// GetLogger returns a logger whose entries are prefixed with name.
func (p *Provider) GetLogger(name string) interfaces.Logger {
	return &logger{provider: p, name: name}
}

type logger struct {
	provider *Provider
	name     string
	fields   map[string]any
	ctx      context.Context
}

var _ interfaces.FieldsLogger = (*logger)(nil)

func (l *logger) Trace(msg string, args ...any) { l.write(logging.LevelTrace, msg, args) }
func (l *logger) Debug(msg string, args ...any) { l.write(logging.LevelDebug, msg, args) }
func (l *logger) Info(msg string, args ...any)  { l.write(logging.LevelInfo, msg, args) }
func (l *logger) Warn(msg string, args ...any)  { l.write(logging.LevelWarn, msg, args) }
func (l *logger) Error(msg string, args ...any) { l.write(logging.LevelError, msg, args) }

// Fatal logs at FATAL. It does not exit; the CLI owns the exit code.
func (l *logger) Fatal(msg string, args ...any) { l.write(logging.LevelFatal, msg, args) }

func (l *logger) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	child := *l
	child.fields = mergeInto(l.fields, fields)
	return &child
}

func (l *logger) WithContext(ctx context.Context) interfaces.Logger {
	child := *l
	child.ctx = ctx
	return &child
}

func (l *logger) write(level logging.Level, msg string, args []any) {
	p := l.provider
	if !p.level.Enabled(level) {
		return
	}

	fields := mergeInto(mergeInto(l.fields, logging.ContextFields(l.ctx)), pairs(args))
	// module repeats the logger name for every module logger
	if fields["module"] == l.name {
		delete(fields, "module")
	}

	var b strings.Builder
	b.WriteString(p.clock().UTC().Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(p.levels[level].Render(level.String()))
	if l.name != "" {
		b.WriteString(" [" + l.name + "]")
	}
	b.WriteByte(' ')
	b.WriteString(msg)

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		b.WriteString(" " + key + "=" + render(fields[key]))
	}
	b.WriteByte('\n')

	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.out, b.String())
}

// mergeInto copies base and overlays extra. The result is always a fresh map.
func mergeInto(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// pairs reads key/value args. A dangling value is kept under "extra".
func pairs(args []any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]any, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			out["extra"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok || key == "" {
			key = fmt.Sprintf("arg%d", i/2)
		}
		out[key] = args[i+1]
	}
	return out
}

func render(value any) string {
	var s string
	switch v := value.(type) {
	case nil:
		return "<nil>"
	case string:
		s = v
	case error:
		s = v.Error()
	case time.Time:
		s = v.UTC().Format(time.RFC3339)
	case []string:
		s = strings.Join(v, ",")
	default:
		s = fmt.Sprint(v)
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
