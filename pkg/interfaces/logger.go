package interfaces

import "context"

// Logger takes a dotted event name plus alternating key/value args, for
// example Info("lint.file.checked", "post_path", p, "issues", n). A
// *glog.BaseLogger from go-logger satisfies it through internal/logging/gologger.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// FieldsLogger is implemented by loggers that can carry fields across
// entries. Use logging.WithFields rather than asserting it directly.
type FieldsLogger interface {
	WithFields(fields map[string]any) Logger
}

// LoggerProvider returns the logger for a module name such as
// "postlint.watch".
type LoggerProvider interface {
	GetLogger(name string) Logger
}
