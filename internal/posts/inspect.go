package posts

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Heading is a Markdown heading found in a post body.
type Heading struct {
	Level int
	Text  string
	Line  int
}

// Link is an inline or auto link. Section is the text of the closest
// preceding heading, empty when the link sits before any heading.
type Link struct {
	Destination string
	Text        string
	Section     string
	Line        int
}

// CodeBlock is a fenced code block; Language is the info string's first word.
type CodeBlock struct {
	Language string
	Line     int
}

// Outline is the structural view of a post body used by lint rules.
type Outline struct {
	Headings   []Heading
	Links      []Link
	CodeBlocks []CodeBlock
	Words      int
}

// SectionLinks returns links whose section heading matches title, ignoring case.
func (o Outline) SectionLinks(title string) []Link {
	var out []Link
	for _, link := range o.Links {
		if strings.EqualFold(strings.TrimSpace(link.Section), strings.TrimSpace(title)) {
			out = append(out, link)
		}
	}
	return out
}

// FindHeading returns the first heading whose text matches title, ignoring case.
func (o Outline) FindHeading(title string) (Heading, bool) {
	for _, heading := range o.Headings {
		if strings.EqualFold(strings.TrimSpace(heading.Text), strings.TrimSpace(title)) {
			return heading, true
		}
	}
	return Heading{}, false
}

// Inspector parses Markdown bodies into an Outline using goldmark. It only
// builds the AST; no HTML is produced. A single instance is safe for
// concurrent use.
type Inspector struct {
	md goldmark.Markdown
}

// NewInspector builds an inspector with GFM enabled so tables, autolinks and
// strikethrough parse the way GitHub Pages renders them.
func NewInspector() *Inspector {
	return &Inspector{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// Inspect walks the body AST. lineOffset is the file line the body starts
// on so reported lines point into the original file.
func (i *Inspector) Inspect(body []byte, lineOffset int) Outline {
	if lineOffset < 1 {
		lineOffset = 1
	}
	doc := i.md.Parser().Parse(text.NewReader(body))
	lines := newLineIndex(body, lineOffset)

	var outline Outline
	var section string
	var currentBlockLine int

	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Type() == ast.TypeBlock && node.Lines().Len() > 0 {
			currentBlockLine = lines.lineAt(node.Lines().At(0).Start)
		}

		switch n := node.(type) {
		case *ast.Heading:
			section = plainText(n, body)
			outline.Headings = append(outline.Headings, Heading{
				Level: n.Level,
				Text:  section,
				Line:  currentBlockLine,
			})
		case *ast.Link:
			outline.Links = append(outline.Links, Link{
				Destination: string(n.Destination),
				Text:        plainText(n, body),
				Section:     section,
				Line:        currentBlockLine,
			})
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			outline.Links = append(outline.Links, Link{
				Destination: string(n.URL(body)),
				Text:        string(n.Label(body)),
				Section:     section,
				Line:        currentBlockLine,
			})
		case *ast.FencedCodeBlock:
			block := CodeBlock{Line: currentBlockLine}
			if n.Info != nil {
				block.Line = lines.lineAt(n.Info.Segment.Start)
				block.Language = string(n.Language(body))
			} else if n.Lines().Len() > 0 {
				// content starts on the line after the opening fence
				block.Line = lines.lineAt(n.Lines().At(0).Start) - 1
			}
			outline.CodeBlocks = append(outline.CodeBlocks, block)
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			outline.Words += len(bytes.Fields(n.Segment.Value(body)))
		}
		return ast.WalkContinue, nil
	})

	return outline
}

func plainText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := child.(type) {
		case *ast.Text:
			buf.Write(n.Segment.Value(source))
			if n.SoftLineBreak() || n.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(n.Value)
		case *ast.CodeSpan:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					buf.Write(t.Segment.Value(source))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

type lineIndex struct {
	starts []int
	offset int
}

func newLineIndex(source []byte, offset int) lineIndex {
	starts := []int{0}
	for i, b := range source {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return lineIndex{starts: starts, offset: offset}
}

// lineAt maps a byte position to a file line.
func (l lineIndex) lineAt(pos int) int {
	lo, hi := 0, len(l.starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if l.starts[mid] <= pos {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + l.offset
}
