package logging

import (
	"context"
	"testing"

	"github.com/goliatone/go-postlint/pkg/interfaces"
)

type recordingLogger struct {
	fields   []map[string]any
	contexts []context.Context
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	if fields == nil {
		fields = map[string]any{}
	}
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	r.fields = append(r.fields, copied)
	return r
}

func (r *recordingLogger) WithContext(ctx context.Context) interfaces.Logger {
	r.contexts = append(r.contexts, ctx)
	return r
}

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, "postlint.test")
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	logger = logger.WithContext(context.Background())
	logger.Debug("noop")
}

func TestModuleLoggerUsesProviderAndAnnotatesFields(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	logger := ModuleLogger(provider, lintModule)

	if len(provider.requested) != 1 || provider.requested[0] != lintModule {
		t.Fatalf("expected module %s, got %v", lintModule, provider.requested)
	}
	if len(rec.fields) != 1 {
		t.Fatalf("expected module fields to be applied once, got %d", len(rec.fields))
	}
	if got := rec.fields[0]["module"]; got != lintModule {
		t.Fatalf("expected module field %s, got %v", lintModule, got)
	}

	logger.Info("with provider")
}

func TestModuleLoggerDefaultsToRootModule(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = ModuleLogger(provider, "")

	if len(provider.requested) != 1 || provider.requested[0] != rootModule {
		t.Fatalf("expected default module %s, got %v", rootModule, provider.requested)
	}
	if rec.fields[0]["module"] != rootModule {
		t.Fatalf("expected module field %s, got %v", rootModule, rec.fields[0]["module"])
	}
}

func TestCommandLoggerScopesByName(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = CommandLogger(provider, " lint ")

	if len(provider.requested) != 1 || provider.requested[0] != "postlint.commands.lint" {
		t.Fatalf("expected postlint.commands.lint, got %v", provider.requested)
	}
	last := rec.fields[len(rec.fields)-1]
	if last["command_module"] != "lint" || last["component"] != "command" {
		t.Fatalf("unexpected command fields: %#v", last)
	}
}

func TestWithPostContextSkipsEmptyValues(t *testing.T) {
	rec := &recordingLogger{}

	_ = WithPostContext(rec, "_posts/2024-01-01-a.md", "  ", "")

	if len(rec.fields) != 1 {
		t.Fatalf("expected a single WithFields call, got %d", len(rec.fields))
	}
	if rec.fields[0][fieldPostPath] != "_posts/2024-01-01-a.md" {
		t.Fatalf("expected post path field, got %#v", rec.fields[0])
	}
	if _, ok := rec.fields[0][fieldRunID]; ok {
		t.Fatalf("expected blank run id to be dropped, got %#v", rec.fields[0])
	}
}

func TestContextFieldsRoundTrip(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{"run_id": "abc"})
	ctx = ContextWithFields(ctx, map[string]any{"post_path": "a.md"})

	fields := ContextFields(ctx)
	if fields["run_id"] != "abc" || fields["post_path"] != "a.md" {
		t.Fatalf("expected merged context fields, got %#v", fields)
	}

	fields["run_id"] = "mutated"
	if ContextFields(ctx)["run_id"] != "abc" {
		t.Fatalf("expected ContextFields to return a copy")
	}
}
