package runtimeconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-postlint/internal/validation"
	"github.com/goliatone/go-postlint/pkg/interfaces"
)

// FileNames are the config files Find looks for, in order.
var FileNames = []string{".postlint.yml", ".postlint.yaml"}

// Find returns the first config file present in dir.
func Find(dir string) (string, bool) {
	for _, name := range FileNames {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// Load reads a YAML config file over DefaultConfig and validates the result.
// A relative schema_file is resolved against the config file directory.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("postlint config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("postlint config: parse %s: %w", path, err)
	}
	if schema := strings.TrimSpace(cfg.Rules.SchemaFile); schema != "" && !filepath.IsAbs(schema) {
		cfg.Rules.SchemaFile = filepath.Join(filepath.Dir(path), schema)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadDefault loads the config file in dir when present, otherwise defaults.
func LoadDefault(dir string) (Config, string, error) {
	path, ok := Find(dir)
	if !ok {
		return DefaultConfig(), "", nil
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// ValidationConfig converts rule settings into the rule engine config,
// reading SchemaFile when set.
func (c RulesConfig) ValidationConfig() (validation.Config, error) {
	out := validation.Config{
		Disabled:           c.Disabled,
		Enabled:            c.Enabled,
		Severity:           map[string]interfaces.Severity{},
		RequiredFields:     c.RequiredFields,
		AllowScalarTags:    c.AllowScalarTags,
		AllowedLayouts:     c.AllowedLayouts,
		Schema:             c.Schema,
		RecommendedHeading: c.RecommendedHeading,
		RequireRecommended: c.RequireRecommended,
	}
	for rule, value := range c.Severity {
		severity, err := interfaces.ParseSeverity(value)
		if err != nil {
			return validation.Config{}, fmt.Errorf("%w: %s=%s", ErrSeverityInvalid, rule, value)
		}
		out.Severity[rule] = severity
	}
	if path := strings.TrimSpace(c.SchemaFile); path != "" {
		schema, err := readSchema(path)
		if err != nil {
			return validation.Config{}, err
		}
		out.Schema = schema
	}
	return out, nil
}

// readSchema accepts JSON or YAML; JSON documents are valid YAML.
func readSchema(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("postlint config: schema file %s not found", path)
		}
		return nil, fmt.Errorf("postlint config: read schema %s: %w", path, err)
	}
	var schema map[string]any
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("postlint config: parse schema %s: %w", path, err)
	}
	return schema, nil
}
