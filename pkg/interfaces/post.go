package interfaces

import (
	"context"
	"time"
)

// TagsShape records how the `tags` key was written in a post's front matter.
type TagsShape string

const (
	// TagsMissing means the key is absent.
	TagsMissing TagsShape = "missing"
	// TagsNull means the key is present with no value.
	TagsNull TagsShape = "null"
	// TagsSequence means a YAML sequence whose items are all strings.
	TagsSequence TagsShape = "sequence"
	// TagsScalar means a single string (Jekyll splits it on whitespace).
	TagsScalar TagsShape = "scalar"
	// TagsInvalid covers mappings, numbers and sequences holding non-string items.
	TagsInvalid TagsShape = "invalid"
)

// Post is a single Markdown file of the corpus with its parsed front matter.
// ParseError is set when the front matter block exists but cannot be decoded;
// the remaining fields are still populated as far as possible so rules can run.
type Post struct {
	FilePath     string
	FrontMatter  FrontMatter
	Body         []byte
	BodyLine     int
	LastModified time.Time
	// Checksum stores the SHA-256 digest of the raw file content.
	Checksum   []byte
	ParseError error
}

// FrontMatter models the YAML block at the top of a post. Layout, Title and
// Tags are the keys every post is expected to carry; anything else lands in
// Custom. Raw keeps the decoded block with JSON-friendly values, and Lines
// maps top-level keys to their 1-based line in the file.
type FrontMatter struct {
	Present   bool           `json:"present"`
	Layout    string         `json:"layout"`
	Title     string         `json:"title"`
	Tags      []string       `json:"tags"`
	TagsShape TagsShape      `json:"tags_shape"`
	Date      time.Time      `json:"date"`
	Permalink string         `json:"permalink"`
	Draft     bool           `json:"draft"`
	Custom    map[string]any `json:"custom"`
	Raw       map[string]any `json:"raw"`
	Lines     map[string]int `json:"-"`
}

// Line returns the file line for a front matter key, or zero when unknown.
func (fm FrontMatter) Line(key string) int {
	if fm.Lines == nil {
		return 0
	}
	return fm.Lines[key]
}

// Has reports whether the key was present in the front matter block.
func (fm FrontMatter) Has(key string) bool {
	if fm.Raw == nil {
		return false
	}
	_, ok := fm.Raw[key]
	return ok
}

// LoadOptions fine-tunes how posts are discovered on disk.
type LoadOptions struct {
	Recursive *bool
	Pattern   string
	Exclude   []string
}

// PostLoader discovers and parses posts.
type PostLoader interface {
	Load(ctx context.Context, path string) (*Post, error)
	LoadDirectory(ctx context.Context, dir string, opts LoadOptions) ([]*Post, error)
}
