package validation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-postlint/internal/posts"
	"github.com/goliatone/go-postlint/pkg/interfaces"
)

// Rule names. They double as configuration keys and report identifiers.
const (
	RuleFrontMatterParse    = "frontmatter.parse"
	RuleFrontMatterRequired = "frontmatter.required"
	RuleFrontMatterTags     = "frontmatter.tags"
	RuleFrontMatterSchema   = "frontmatter.schema"
	RuleFrontMatterLayout   = "frontmatter.layout"
	RuleBodyNonEmpty        = "body.nonempty"
	RuleBodyCode            = "body.code"
	RuleFilenameConvention  = "filename.convention"
	RuleTagsSlug            = "tags.slug"
	RuleLinksRecommended    = "links.recommended"
)

// ErrUnknownRule is returned when configuration names a rule that does not exist.
var ErrUnknownRule = errors.New("validation: unknown rule")

// Rule inspects a single post and reports issues.
type Rule interface {
	Name() string
	Check(ctx context.Context, subject *Subject) []interfaces.Issue
}

// Subject is what a rule sees: the post plus a lazily built body outline so
// rules that only read front matter never pay for Markdown parsing.
type Subject struct {
	Post *interfaces.Post

	inspector *posts.Inspector
	once      sync.Once
	outline   posts.Outline
}

// NewSubject wraps a post for rule evaluation.
func NewSubject(post *interfaces.Post, inspector *posts.Inspector) *Subject {
	if inspector == nil {
		inspector = posts.NewInspector()
	}
	return &Subject{Post: post, inspector: inspector}
}

// Outline parses the body on first use.
func (s *Subject) Outline() posts.Outline {
	s.once.Do(func() {
		s.outline = s.inspector.Inspect(s.Post.Body, s.Post.BodyLine)
	})
	return s.outline
}

// HasFrontMatter reports whether a front matter block was found and decoded.
func (s *Subject) HasFrontMatter() bool {
	return s.Post.ParseError == nil && s.Post.FrontMatter.Present
}

// Config selects and tunes rules.
type Config struct {
	// Disabled turns off rules by name, including core rules.
	Disabled []string
	// Enabled turns on rules that are off by default.
	Enabled []string
	// Severity overrides the severity of every issue a rule emits.
	Severity map[string]interfaces.Severity
	// RequiredFields adds keys that must be present and non-empty next to layout and title.
	RequiredFields []string
	// AllowScalarTags downgrades `tags: a b` from an error to a warning.
	AllowScalarTags bool
	// AllowedLayouts restricts layout values when non-empty.
	AllowedLayouts []string
	// Schema is a JSON Schema applied to the raw front matter.
	Schema map[string]any
	// RecommendedHeading names the link-list section checked by links.recommended.
	RecommendedHeading string
	// RequireRecommended reports posts that lack the recommended section.
	RequireRecommended bool
}

// DefaultRecommendedHeading is the heading posts use for their link list.
const DefaultRecommendedHeading = "Recommended Sites"

// KnownRules lists every rule name with whether it runs by default.
var KnownRules = map[string]bool{
	RuleFrontMatterParse:    true,
	RuleFrontMatterRequired: true,
	RuleFrontMatterTags:     true,
	RuleBodyNonEmpty:        true,
	RuleFrontMatterLayout:   true,
	RuleFrontMatterSchema:   true,
	RuleFilenameConvention:  true,
	RuleLinksRecommended:    true,
	RuleTagsSlug:            false,
	RuleBodyCode:            false,
}

// Validate checks that rule names and tuning values make sense.
func (c Config) Validate() error {
	for _, name := range append(append([]string(nil), c.Disabled...), c.Enabled...) {
		if _, ok := KnownRules[strings.TrimSpace(name)]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownRule, name)
		}
	}
	for name, severity := range c.Severity {
		if _, ok := KnownRules[name]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownRule, name)
		}
		if severity < interfaces.SeverityInfo || severity > interfaces.SeverityError {
			return fmt.Errorf("validation: invalid severity for %s", name)
		}
	}
	return validation.ValidateStruct(&c,
		validation.Field(&c.RequiredFields, validation.Each(validation.Required)),
		validation.Field(&c.AllowedLayouts, validation.Each(validation.Required)),
	)
}

// RuleSet runs an ordered list of rules against posts.
type RuleSet struct {
	rules       []Rule
	severity    map[string]interfaces.Severity
	inspector   *posts.Inspector
	fingerprint string
}

// NewRuleSet builds the rule set described by cfg.
func NewRuleSet(cfg Config) (*RuleSet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	active := map[string]bool{}
	for name, on := range KnownRules {
		active[name] = on
	}
	for _, name := range cfg.Enabled {
		active[strings.TrimSpace(name)] = true
	}
	for _, name := range cfg.Disabled {
		active[strings.TrimSpace(name)] = false
	}

	heading := strings.TrimSpace(cfg.RecommendedHeading)
	if heading == "" {
		heading = DefaultRecommendedHeading
	}

	candidates := []Rule{
		ParseRule{},
		RequiredRule{Extra: cfg.RequiredFields},
		TagsRule{AllowScalar: cfg.AllowScalarTags},
		BodyRule{},
		LayoutRule{Allowed: cfg.AllowedLayouts},
		FilenameRule{},
		LinksRule{Heading: heading, Required: cfg.RequireRecommended},
		TagSlugRule{},
		CodeLanguageRule{},
	}
	if len(cfg.Schema) > 0 {
		schemaRule, err := NewSchemaRule(cfg.Schema)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, schemaRule)
	}

	set := &RuleSet{
		severity:  map[string]interfaces.Severity{},
		inspector: posts.NewInspector(),
	}
	for _, rule := range candidates {
		if active[rule.Name()] {
			set.rules = append(set.rules, rule)
		}
	}
	for name, severity := range cfg.Severity {
		set.severity[name] = severity
	}
	set.fingerprint = fingerprint(set.Names(), set.severity, cfg, heading)
	return set, nil
}

// Fingerprint identifies the active rules and their tuning. Two rule sets
// with the same fingerprint report the same issues for the same file.
func (s *RuleSet) Fingerprint() string { return s.fingerprint }

func fingerprint(active []string, severity map[string]interfaces.Severity, cfg Config, heading string) string {
	payload, err := json.Marshal(struct {
		Rules              []string                       `json:"rules"`
		Severity           map[string]interfaces.Severity `json:"severity,omitempty"`
		RequiredFields     []string                       `json:"required_fields,omitempty"`
		AllowScalarTags    bool                           `json:"allow_scalar_tags,omitempty"`
		AllowedLayouts     []string                       `json:"allowed_layouts,omitempty"`
		Schema             map[string]any                 `json:"schema,omitempty"`
		RecommendedHeading string                         `json:"recommended_heading"`
		RequireRecommended bool                           `json:"require_recommended,omitempty"`
	}{active, severity, cfg.RequiredFields, cfg.AllowScalarTags, cfg.AllowedLayouts, cfg.Schema, heading, cfg.RequireRecommended})
	if err != nil {
		payload = []byte(fmt.Sprintf("%v|%v|%#v", active, severity, cfg))
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:8])
}

// Names lists the active rule names in execution order.
func (s *RuleSet) Names() []string {
	names := make([]string, 0, len(s.rules))
	for _, rule := range s.rules {
		names = append(names, rule.Name())
	}
	return names
}

// Check runs every active rule and returns issues ordered by line, then rule.
func (s *RuleSet) Check(ctx context.Context, post *interfaces.Post) []interfaces.Issue {
	subject := NewSubject(post, s.inspector)
	var issues []interfaces.Issue
	for _, rule := range s.rules {
		if ctx.Err() != nil {
			break
		}
		found := rule.Check(ctx, subject)
		for i := range found {
			found[i].Rule = rule.Name()
			if override, ok := s.severity[rule.Name()]; ok {
				found[i].Severity = override
			}
		}
		issues = append(issues, found...)
	}
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Line != issues[j].Line {
			return issues[i].Line < issues[j].Line
		}
		return issues[i].Rule < issues[j].Rule
	})
	return issues
}

func issue(severity interfaces.Severity, line int, field, format string, args ...any) interfaces.Issue {
	return interfaces.Issue{
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
		Field:    field,
		Line:     line,
	}
}

func lineOr(line, fallback int) int {
	if line > 0 {
		return line
	}
	return fallback
}
