package validation

import (
	"bytes"
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-postlint/internal/posts"
	"github.com/goliatone/go-postlint/pkg/interfaces"
)

// ParseRule requires a front matter block that decodes as YAML.
type ParseRule struct{}

func (ParseRule) Name() string { return RuleFrontMatterParse }

func (ParseRule) Check(_ context.Context, s *Subject) []interfaces.Issue {
	post := s.Post
	if post.ParseError != nil {
		msg := "front matter could not be parsed: %v"
		if errors.Is(post.ParseError, posts.ErrFrontMatterUnterminated) {
			msg = "front matter is missing its closing delimiter: %v"
		}
		return []interfaces.Issue{issue(interfaces.SeverityError, 1, "", msg, post.ParseError)}
	}
	if !post.FrontMatter.Present {
		return []interfaces.Issue{issue(interfaces.SeverityError, 1, "", "missing front matter block delimited by --- lines")}
	}
	return nil
}

// RequiredRule requires non-empty layout and title, plus any extra keys.
type RequiredRule struct {
	Extra []string
}

func (RequiredRule) Name() string { return RuleFrontMatterRequired }

type requiredFields struct {
	Layout string `json:"layout"`
	Title  string `json:"title"`
}

var notBlank = validation.By(func(value any) error {
	str, _ := value.(string)
	if strings.TrimSpace(str) == "" {
		return validation.NewError("postlint.frontmatter.blank", "must not be empty")
	}
	return nil
})

func (r RequiredRule) Check(_ context.Context, s *Subject) []interfaces.Issue {
	if !s.HasFrontMatter() {
		return nil
	}
	fm := s.Post.FrontMatter

	fields := requiredFields{Layout: fm.Layout, Title: fm.Title}
	err := validation.ValidateStruct(&fields,
		validation.Field(&fields.Layout, notBlank),
		validation.Field(&fields.Title, notBlank),
	)

	var issues []interfaces.Issue
	var errs validation.Errors
	if errors.As(err, &errs) {
		for _, key := range []string{"layout", "title"} {
			if _, failed := errs[key]; !failed {
				continue
			}
			issues = append(issues, requiredIssue(fm, key))
		}
	}

	for _, key := range r.Extra {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		value, ok := fm.Raw[key]
		if !ok {
			issues = append(issues, requiredIssue(fm, key))
			continue
		}
		if err := validation.Validate(value, validation.Required); err != nil {
			issues = append(issues, requiredIssue(fm, key))
			continue
		}
		if str, isString := value.(string); isString && strings.TrimSpace(str) == "" {
			issues = append(issues, requiredIssue(fm, key))
		}
	}
	return issues
}

func requiredIssue(fm interfaces.FrontMatter, key string) interfaces.Issue {
	if !fm.Has(key) {
		return issue(interfaces.SeverityError, 1, key, "front matter is missing required field %q", key)
	}
	return issue(interfaces.SeverityError, lineOr(fm.Line(key), 1), key, "front matter field %q must not be empty", key)
}

// TagsRule requires tags to be a sequence of non-empty strings.
type TagsRule struct {
	AllowScalar bool
}

func (TagsRule) Name() string { return RuleFrontMatterTags }

func (r TagsRule) Check(_ context.Context, s *Subject) []interfaces.Issue {
	if !s.HasFrontMatter() {
		return nil
	}
	fm := s.Post.FrontMatter
	line := lineOr(fm.Line("tags"), 1)

	switch fm.TagsShape {
	case interfaces.TagsMissing, interfaces.TagsNull, "":
		return nil
	case interfaces.TagsInvalid:
		return []interfaces.Issue{issue(interfaces.SeverityError, line, "tags", "tags must be a sequence of strings")}
	case interfaces.TagsScalar:
		severity := interfaces.SeverityError
		if r.AllowScalar {
			severity = interfaces.SeverityWarning
		}
		return []interfaces.Issue{issue(severity, line, "tags", "tags is a single string; write it as a sequence like [%s]", strings.Join(fm.Tags, ", "))}
	}

	var issues []interfaces.Issue
	seen := map[string]struct{}{}
	for i, tag := range fm.Tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			issues = append(issues, issue(interfaces.SeverityError, line, "tags", "tag #%d is empty", i+1))
			continue
		}
		key := strings.ToLower(trimmed)
		if _, dup := seen[key]; dup {
			issues = append(issues, issue(interfaces.SeverityWarning, line, "tags", "tag %q is listed more than once", trimmed))
			continue
		}
		seen[key] = struct{}{}
	}
	return issues
}

// BodyRule requires content after the front matter block.
type BodyRule struct{}

func (BodyRule) Name() string { return RuleBodyNonEmpty }

func (BodyRule) Check(_ context.Context, s *Subject) []interfaces.Issue {
	if s.Post.ParseError != nil {
		return nil
	}
	if len(bytes.TrimSpace(s.Post.Body)) == 0 {
		return []interfaces.Issue{issue(interfaces.SeverityError, lineOr(s.Post.BodyLine, 1), "", "post has no content after the front matter block")}
	}
	return nil
}
