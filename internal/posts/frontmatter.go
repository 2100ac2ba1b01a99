package posts

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-postlint/pkg/interfaces"
)

// ErrFrontMatterInvalid wraps YAML decoding failures of the front matter block.
var ErrFrontMatterInvalid = errors.New("posts: front matter is not valid YAML")

// ErrFrontMatterUnterminated is returned when the opening delimiter has no closing line.
var ErrFrontMatterUnterminated = errors.New("posts: front matter block is not terminated")

const delimiter = "---"

var knownKeys = map[string]struct{}{
	"layout":    {},
	"title":     {},
	"tags":      {},
	"date":      {},
	"permalink": {},
	"draft":     {},
	"published": {},
}

// dateLayouts are the timestamp forms Jekyll accepts in front matter.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 -07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseFrontMatter splits source into its YAML front matter and Markdown
// body. A file without a leading `---` block yields FrontMatter.Present=false
// and the whole source as body; that is not an error here, rules decide.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	source = bytes.TrimPrefix(source, []byte("\xef\xbb\xbf"))

	header, ok, err := scanHeader(source)
	if err != nil {
		return interfaces.FrontMatter{Present: true}, nil, err
	}
	if !ok {
		return interfaces.FrontMatter{TagsShape: interfaces.TagsMissing}, source, nil
	}

	var raw map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(source), &raw)
	if err != nil {
		return interfaces.FrontMatter{Present: true}, nil, fmt.Errorf("%w: %v", ErrFrontMatterInvalid, err)
	}

	mapping := headerMapping(header)
	fm := buildFrontMatter(normaliseMap(raw))
	fm.Lines = keyLines(mapping)
	fm.Tags, fm.TagsShape = classifyTags(mapping)
	if _, ok := raw["tags"]; ok && mapping == nil {
		// yaml.v2 accepted a header that yaml.v3 rejects
		fm.TagsShape = interfaces.TagsInvalid
	}
	return fm, body, nil
}

// BuildPost assembles a Post from raw file content. Parse failures are kept on
// the Post rather than returned so a broken file still produces a lint result.
func BuildPost(path string, source []byte, modified time.Time) *interfaces.Post {
	fm, body, err := ParseFrontMatter(source)
	post := &interfaces.Post{
		FilePath:     path,
		FrontMatter:  fm,
		Body:         body,
		LastModified: modified,
		ParseError:   err,
	}
	post.BodyLine = bodyLine(source, body)
	return post
}

// scanHeader returns the YAML text between the opening and closing
// delimiters. ok is false when the source does not start with a delimiter.
func scanHeader(source []byte) ([]byte, bool, error) {
	lines := bytes.SplitAfter(source, []byte("\n"))
	if len(lines) == 0 || strings.TrimRight(string(lines[0]), " \t\r\n") != delimiter {
		return nil, false, nil
	}
	var header bytes.Buffer
	for _, line := range lines[1:] {
		trimmed := strings.TrimRight(string(line), " \t\r\n")
		if trimmed == delimiter {
			return header.Bytes(), true, nil
		}
		header.Write(line)
	}
	return nil, true, ErrFrontMatterUnterminated
}

// headerMapping decodes the header into a yaml.v3 node tree and returns the
// top-level mapping, or nil when the header is not a mapping.
func headerMapping(header []byte) *yaml.Node {
	var doc yaml.Node
	if err := yaml.Unmarshal(header, &doc); err != nil {
		return nil
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil
	}
	return doc.Content[0]
}

// keyLines maps top-level keys to file lines. The opening delimiter occupies
// line 1, so YAML line n sits on file line n+1.
func keyLines(mapping *yaml.Node) map[string]int {
	lines := map[string]int{}
	if mapping == nil {
		return lines
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i]
		lines[key.Value] = key.Line + 1
	}
	return lines
}

// lookup returns the value node for key, following aliases. Later duplicates
// win.
func lookup(mapping *yaml.Node, key string) *yaml.Node {
	if mapping == nil {
		return nil
	}
	var value *yaml.Node
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			value = mapping.Content[i+1]
		}
	}
	for value != nil && value.Kind == yaml.AliasNode {
		value = value.Alias
	}
	return value
}

func bodyLine(source, body []byte) int {
	if len(body) == 0 || !bytes.HasSuffix(source, body) {
		return 1
	}
	prefix := source[:len(source)-len(body)]
	return bytes.Count(prefix, []byte("\n")) + 1
}

func buildFrontMatter(raw map[string]any) interfaces.FrontMatter {
	if raw == nil {
		raw = map[string]any{}
	}
	fm := interfaces.FrontMatter{
		Present: true,
		Raw:     raw,
		Custom:  map[string]any{},
	}
	fm.Layout = scalarString(raw["layout"])
	fm.Title = scalarString(raw["title"])
	fm.Permalink = scalarString(raw["permalink"])
	fm.Date = parseDate(raw["date"])
	if draft, ok := raw["draft"].(bool); ok {
		fm.Draft = draft
	}
	if published, ok := raw["published"].(bool); ok && !published {
		fm.Draft = true
	}
	for key, value := range raw {
		if _, known := knownKeys[key]; known {
			continue
		}
		fm.Custom[key] = value
	}
	return fm
}

// classifyTags reads the resolved YAML tag of the `tags` node, so quoted
// numbers count as strings and bare numbers do not.
func classifyTags(mapping *yaml.Node) ([]string, interfaces.TagsShape) {
	node := lookup(mapping, "tags")
	if node == nil {
		return nil, interfaces.TagsMissing
	}
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!null":
			return nil, interfaces.TagsNull
		case "!!str":
			return strings.Fields(node.Value), interfaces.TagsScalar
		}
		return nil, interfaces.TagsInvalid
	case yaml.SequenceNode:
		tags := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			for item.Kind == yaml.AliasNode {
				item = item.Alias
			}
			if item.Kind != yaml.ScalarNode || item.ShortTag() != "!!str" {
				return nil, interfaces.TagsInvalid
			}
			tags = append(tags, item.Value)
		}
		return tags, interfaces.TagsSequence
	default:
		return nil, interfaces.TagsInvalid
	}
}

// scalarString renders scalar values as strings; Jekyll accepts `title: 404`.
func scalarString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(typed)
	default:
		return ""
	}
}

func parseDate(value any) time.Time {
	switch typed := value.(type) {
	case time.Time:
		return typed
	case string:
		trimmed := strings.TrimSpace(typed)
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, trimmed); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}

// normaliseMap converts YAML v2 style map[any]any values into
// map[string]any so the result can be fed to JSON Schema validation.
func normaliseMap(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = normaliseValue(value)
	}
	return out
}

func normaliseValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return normaliseMap(typed)
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[fmt.Sprint(key)] = normaliseValue(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = normaliseValue(item)
		}
		return out
	default:
		return value
	}
}
