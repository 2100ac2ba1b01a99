package validation

import (
	"context"
	"errors"
	"testing"
)

func TestSchemaRuleJSONSchema(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{"type": "string", "maxLength": 10},
			"tags":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
	}
	set, err := NewRuleSet(Config{Schema: schema})
	if err != nil {
		t.Fatalf("NewRuleSet: %v", err)
	}

	post := buildPost(t, "post.md", "---\nlayout: post\ntitle: A title that is far too long\n---\nbody\n")
	issues := set.Check(context.Background(), post)
	if len(issues) != 1 || issues[0].Rule != RuleFrontMatterSchema {
		t.Fatalf("expected a schema issue, got %#v", issues)
	}
	if issues[0].Field != "title" || issues[0].Line != 3 {
		t.Fatalf("expected issue on title line 3, got %#v", issues[0])
	}
}

func TestSchemaRuleFieldsShorthand(t *testing.T) {
	schema := map[string]any{
		"fields": []any{
			map[string]any{"name": "description", "type": "string", "required": true},
			"title",
		},
	}
	set, err := NewRuleSet(Config{Schema: schema})
	if err != nil {
		t.Fatalf("NewRuleSet: %v", err)
	}

	issues := set.Check(context.Background(), buildPost(t, "post.md", "---\nlayout: post\ntitle: x\ndate: 2024-01-01\n---\nbody\n"))
	if len(issues) != 1 || issues[0].Rule != RuleFrontMatterSchema {
		t.Fatalf("expected missing description to be reported, got %#v", issues)
	}
}

func TestCompileSchemaRejectsInvalid(t *testing.T) {
	_, err := CompileSchema(map[string]any{"type": 12})
	if !errors.Is(err, ErrSchemaInvalid) {
		t.Fatalf("expected ErrSchemaInvalid, got %v", err)
	}
	if _, err := NewRuleSet(Config{Schema: map[string]any{"unrelated": true}}); !errors.Is(err, ErrSchemaInvalid) {
		t.Fatalf("expected ErrSchemaInvalid for empty normalised schema, got %v", err)
	}
}

func TestNormalizeSchemaKeepsAdditionalPropertiesOpen(t *testing.T) {
	normalized := NormalizeSchema(map[string]any{"fields": []any{"title"}})
	if _, ok := normalized["additionalProperties"]; ok {
		t.Fatalf("expected unknown keys to stay allowed, got %#v", normalized)
	}
	normalized = NormalizeSchema(map[string]any{"fields": []any{"title"}, "additionalProperties": false})
	if normalized["additionalProperties"] != false {
		t.Fatalf("expected explicit override to be kept, got %#v", normalized)
	}
}
