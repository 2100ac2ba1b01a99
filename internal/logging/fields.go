package logging

import (
	"context"
	"maps"

	"github.com/goliatone/go-postlint/pkg/interfaces"
)

type fieldsKey struct{}

// WithFields applies fields when logger implements interfaces.FieldsLogger
// and returns logger unchanged otherwise. The map is copied.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return logger
	}
	if fl, ok := logger.(interfaces.FieldsLogger); ok {
		return fl.WithFields(maps.Clone(fields))
	}
	return logger
}

// ContextWithFields stores fields on ctx, layered over any fields an outer
// caller already stored. Later keys win.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil || len(fields) == 0 {
		return ctx
	}
	return context.WithValue(ctx, fieldsKey{}, mergeFields(contextFields(ctx), fields))
}

// ContextFields returns a copy of the fields stored on ctx.
func ContextFields(ctx context.Context) map[string]any {
	return maps.Clone(contextFields(ctx))
}

func contextFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey{}).(map[string]any)
	return fields
}

// mergeFields returns a new map holding every layer, later layers winning.
// It returns nil when all layers are empty.
func mergeFields(layers ...map[string]any) map[string]any {
	var merged map[string]any
	for _, layer := range layers {
		if len(layer) == 0 {
			continue
		}
		if merged == nil {
			merged = make(map[string]any, len(layer))
		}
		maps.Copy(merged, layer)
	}
	return merged
}
