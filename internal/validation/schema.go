package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-postlint/pkg/interfaces"
)

var (
	ErrSchemaInvalid    = errors.New("schema invalid")
	ErrSchemaValidation = errors.New("schema validation failed")
)

// SchemaIssue captures a single schema violation.
type SchemaIssue struct {
	Location string
	Message  string
}

// Issues extracts schema violations from an error returned by ValidateFrontMatter.
func Issues(err error) []SchemaIssue {
	if err == nil {
		return nil
	}
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) && validationErr != nil {
		return collectValidationIssues(validationErr)
	}
	return []SchemaIssue{{Message: err.Error()}}
}

// CompileSchema accepts either a JSON Schema document or the `fields`
// shorthand and compiles it.
func CompileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	normalized := NormalizeSchema(schema)
	if normalized == nil {
		return nil, fmt.Errorf("%w: empty schema", ErrSchemaInvalid)
	}
	compiled, err := compileSchema(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return compiled, nil
}

// ValidateFrontMatter validates decoded front matter against a compiled schema.
func ValidateFrontMatter(compiled *jsonschema.Schema, raw map[string]any) error {
	if compiled == nil {
		return nil
	}
	payload, err := jsonValue(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	if err := compiled.Validate(payload); err != nil {
		return fmt.Errorf("%w: %w", ErrSchemaValidation, err)
	}
	return nil
}

// SchemaRule validates raw front matter against a JSON Schema.
type SchemaRule struct {
	compiled *jsonschema.Schema
}

// NewSchemaRule compiles the schema once for reuse across posts.
func NewSchemaRule(schema map[string]any) (*SchemaRule, error) {
	compiled, err := CompileSchema(schema)
	if err != nil {
		return nil, err
	}
	return &SchemaRule{compiled: compiled}, nil
}

func (*SchemaRule) Name() string { return RuleFrontMatterSchema }

func (r *SchemaRule) Check(_ context.Context, s *Subject) []interfaces.Issue {
	if !s.HasFrontMatter() {
		return nil
	}
	fm := s.Post.FrontMatter
	err := ValidateFrontMatter(r.compiled, fm.Raw)
	if err == nil {
		return nil
	}
	var issues []interfaces.Issue
	for _, found := range Issues(err) {
		field := topLevelKey(found.Location)
		line := lineOr(fm.Line(field), 1)
		location := found.Location
		if location == "" {
			location = "/"
		}
		issues = append(issues, issue(interfaces.SeverityError, line, field, "front matter %s: %s", location, found.Message))
	}
	return issues
}

// NormalizeSchema converts a schema definition into a JSON schema. A map
// with a `fields` list is expanded into an object schema whose unknown keys
// stay allowed unless additionalProperties says otherwise.
func NormalizeSchema(schema map[string]any) map[string]any {
	if len(schema) == 0 {
		return nil
	}
	if isJSONSchema(schema) {
		return cloneMap(schema)
	}
	fields, ok := schema["fields"]
	if !ok {
		return nil
	}
	properties, required := normalizeFields(fields)
	if len(properties) == 0 {
		return nil
	}
	normalized := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if override, ok := schema["additionalProperties"]; ok {
		if allowed, ok := override.(bool); ok {
			normalized["additionalProperties"] = allowed
		}
	}
	if len(required) > 0 {
		normalized["required"] = required
	}
	return normalized
}

func isJSONSchema(schema map[string]any) bool {
	for _, key := range []string{"$schema", "type", "properties", "oneOf", "anyOf", "allOf"} {
		if _, ok := schema[key]; ok {
			return true
		}
	}
	return false
}

func normalizeFields(fields any) (map[string]any, []any) {
	properties := make(map[string]any)
	required := make([]any, 0)

	switch typed := fields.(type) {
	case []any:
		for _, entry := range typed {
			if fieldMap, ok := entry.(map[string]any); ok {
				addField(properties, &required, fieldMap)
				continue
			}
			if name, ok := entry.(string); ok {
				addField(properties, &required, map[string]any{"name": name})
			}
		}
	case []map[string]any:
		for _, fieldMap := range typed {
			addField(properties, &required, fieldMap)
		}
	}

	return properties, required
}

func addField(properties map[string]any, required *[]any, field map[string]any) {
	name, _ := field["name"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	switch {
	case field["schema"] != nil:
		if schema, ok := field["schema"].(map[string]any); ok {
			properties[name] = cloneMap(schema)
		}
	case field["type"] != nil:
		fieldType, _ := field["type"].(string)
		if jsonType := normalizeJSONType(fieldType); jsonType != "" {
			properties[name] = map[string]any{"type": jsonType}
		} else {
			properties[name] = map[string]any{}
		}
	default:
		properties[name] = map[string]any{}
	}
	if flag, ok := field["required"].(bool); ok && flag {
		*required = append(*required, name)
	}
}

func normalizeJSONType(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "string", "number", "integer", "boolean", "object", "array", "null":
		return strings.ToLower(strings.TrimSpace(value))
	default:
		return ""
	}
}

func cloneMap(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		switch typed := value.(type) {
		case map[string]any:
			out[key] = cloneMap(typed)
		case []any:
			out[key] = cloneSlice(typed)
		default:
			out[key] = value
		}
	}
	return out
}

func cloneSlice(input []any) []any {
	out := make([]any, len(input))
	for i, value := range input {
		switch typed := value.(type) {
		case map[string]any:
			out[i] = cloneMap(typed)
		case []any:
			out[i] = cloneSlice(typed)
		default:
			out[i] = value
		}
	}
	return out
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("frontmatter.json", bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile("frontmatter.json")
}

// jsonValue round-trips through JSON so YAML timestamps become strings and
// numbers take the shapes the validator expects.
func jsonValue(raw map[string]any) (any, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func collectValidationIssues(err *jsonschema.ValidationError) []SchemaIssue {
	issues := []SchemaIssue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, SchemaIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}

func topLevelKey(location string) string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(location, "#"), "/")
	if trimmed == "" {
		return ""
	}
	if idx := strings.Index(trimmed, "/"); idx >= 0 {
		return trimmed[:idx]
	}
	return trimmed
}
