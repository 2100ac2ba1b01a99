package validation

import (
	"context"
	"net/url"
	"strings"

	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-postlint/internal/posts"
	"github.com/goliatone/go-postlint/pkg/interfaces"
)

// LayoutRule restricts layout values to a known set of templates.
type LayoutRule struct {
	Allowed []string
}

func (LayoutRule) Name() string { return RuleFrontMatterLayout }

func (r LayoutRule) Check(_ context.Context, s *Subject) []interfaces.Issue {
	if len(r.Allowed) == 0 || !s.HasFrontMatter() {
		return nil
	}
	layout := strings.TrimSpace(s.Post.FrontMatter.Layout)
	if layout == "" {
		return nil
	}
	for _, allowed := range r.Allowed {
		if strings.TrimSpace(allowed) == layout {
			return nil
		}
	}
	line := lineOr(s.Post.FrontMatter.Line("layout"), 1)
	return []interfaces.Issue{issue(interfaces.SeverityError, line, "layout", "layout %q is not one of %s", layout, strings.Join(r.Allowed, ", "))}
}

// FilenameRule checks the Jekyll `_posts/YYYY-MM-DD-slug.md` naming scheme.
type FilenameRule struct{}

func (FilenameRule) Name() string { return RuleFilenameConvention }

func (FilenameRule) Check(_ context.Context, s *Subject) []interfaces.Issue {
	path := s.Post.FilePath
	if !posts.InPostsDir(path) {
		return nil
	}
	name, ok := posts.ParseFilename(path)
	if !ok {
		return []interfaces.Issue{issue(interfaces.SeverityWarning, 1, "", "post filename must follow YYYY-MM-DD-slug.md")}
	}

	var issues []interfaces.Issue
	if !slug.IsValid(name.Slug) {
		suggestion, err := slug.Normalize(name.Slug)
		if err != nil || suggestion == "" {
			issues = append(issues, issue(interfaces.SeverityWarning, 1, "", "filename slug %q is not a valid slug", name.Slug))
		} else {
			issues = append(issues, issue(interfaces.SeverityWarning, 1, "", "filename slug %q is not a valid slug, expected %q", name.Slug, suggestion))
		}
	}

	fm := s.Post.FrontMatter
	if s.HasFrontMatter() && !fm.Date.IsZero() {
		if got, want := fm.Date.Format("2006-01-02"), name.Date.Format("2006-01-02"); got != want {
			line := lineOr(fm.Line("date"), 1)
			issues = append(issues, issue(interfaces.SeverityWarning, line, "date", "front matter date %s does not match filename date %s", got, want))
		}
	}
	return issues
}

// TagSlugRule reports tags that would change under slug normalisation.
type TagSlugRule struct{}

func (TagSlugRule) Name() string { return RuleTagsSlug }

func (TagSlugRule) Check(_ context.Context, s *Subject) []interfaces.Issue {
	if !s.HasFrontMatter() || s.Post.FrontMatter.TagsShape != interfaces.TagsSequence {
		return nil
	}
	fm := s.Post.FrontMatter
	line := lineOr(fm.Line("tags"), 1)

	var issues []interfaces.Issue
	for _, tag := range fm.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		normalized, err := slug.Normalize(tag)
		if err != nil || normalized == "" || normalized == tag {
			continue
		}
		issues = append(issues, issue(interfaces.SeverityInfo, line, "tags", "tag %q is not slug-normalised, expected %q", tag, normalized))
	}
	return issues
}

// LinksRule checks the link list under the recommended-sites heading.
type LinksRule struct {
	Heading  string
	Required bool
}

func (LinksRule) Name() string { return RuleLinksRecommended }

func (r LinksRule) Check(_ context.Context, s *Subject) []interfaces.Issue {
	if s.Post.ParseError != nil {
		return nil
	}
	outline := s.Outline()
	heading, found := outline.FindHeading(r.Heading)
	if !found {
		if r.Required {
			return []interfaces.Issue{issue(interfaces.SeverityWarning, lineOr(s.Post.BodyLine, 1), "", "post has no %q section", r.Heading)}
		}
		return nil
	}

	links := outline.SectionLinks(r.Heading)
	if len(links) == 0 {
		return []interfaces.Issue{issue(interfaces.SeverityWarning, heading.Line, "", "%q section has no links", r.Heading)}
	}

	var issues []interfaces.Issue
	for _, link := range links {
		if !isAbsoluteHTTP(link.Destination) {
			issues = append(issues, issue(interfaces.SeverityWarning, link.Line, "", "recommended link %q must be an absolute http(s) URL", link.Destination))
		}
	}
	return issues
}

func isAbsoluteHTTP(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// CodeLanguageRule reports fenced code blocks without a language.
type CodeLanguageRule struct{}

func (CodeLanguageRule) Name() string { return RuleBodyCode }

func (CodeLanguageRule) Check(_ context.Context, s *Subject) []interfaces.Issue {
	if s.Post.ParseError != nil {
		return nil
	}
	var issues []interfaces.Issue
	for _, block := range s.Outline().CodeBlocks {
		if strings.TrimSpace(block.Language) == "" {
			issues = append(issues, issue(interfaces.SeverityInfo, block.Line, "", "fenced code block has no language"))
		}
	}
	return issues
}
