package posts

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-postlint/pkg/interfaces"
)

func testFS() fstest.MapFS {
	modified := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	file := func(body string) *fstest.MapFile {
		return &fstest.MapFile{Data: []byte(body), ModTime: modified}
	}
	return fstest.MapFS{
		"_posts/2024-01-02-react-hooks.md":    file("---\nlayout: post\ntitle: Hooks\ntags: [react]\n---\nBody\n"),
		"_posts/2024-01-03-vue-refs.markdown": file("---\nlayout: post\ntitle: Refs\ntags: [vue]\n---\nBody\n"),
		"_posts/drafts/2024-01-04-wip.md":     file("---\nlayout: post\ntitle: WIP\n---\n"),
		"_site/index.md":                      file("generated"),
		"README.txt":                          file("not a post"),
		"about.md":                            file("---\nlayout: page\ntitle: About\n---\nHi\n"),
	}
}

// loadOpts leaves every override unset so the LoaderConfig applies.
func loadOpts() interfaces.LoadOptions {
	return interfaces.LoadOptions{}
}

func TestLoaderLoadDirectoryRecursive(t *testing.T) {
	loader := NewLoader(testFS(), LoaderConfig{Recursive: true})

	posts, err := loader.LoadDirectory(context.Background(), ".", loadOpts())
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}

	want := []string{
		"_posts/2024-01-02-react-hooks.md",
		"_posts/2024-01-03-vue-refs.markdown",
		"_posts/drafts/2024-01-04-wip.md",
		"about.md",
	}
	if len(posts) != len(want) {
		t.Fatalf("expected %d posts, got %d", len(want), len(posts))
	}
	for i, post := range posts {
		if post.FilePath != want[i] {
			t.Fatalf("post %d: expected %s, got %s", i, want[i], post.FilePath)
		}
		if len(post.Checksum) != 32 {
			t.Fatalf("expected sha256 checksum for %s", post.FilePath)
		}
	}
}

func TestLoaderNonRecursiveOverride(t *testing.T) {
	loader := NewLoader(testFS(), LoaderConfig{Recursive: true})

	no := false
	opts := loadOpts()
	opts.Recursive = &no
	posts, err := loader.LoadDirectory(context.Background(), "_posts", opts)
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 top-level posts, got %d", len(posts))
	}
}

func TestLoaderPatternAndExcludeOverrides(t *testing.T) {
	loader := NewLoader(testFS(), LoaderConfig{Recursive: true})

	opts := loadOpts()
	opts.Pattern = "*.markdown"
	paths, err := loader.Discover(context.Background(), ".", opts)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(paths) != 1 || paths[0] != "_posts/2024-01-03-vue-refs.markdown" {
		t.Fatalf("unexpected pattern match: %v", paths)
	}

	opts = loadOpts()
	opts.Exclude = []string{"drafts"}
	paths, err = loader.Discover(context.Background(), ".", opts)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	for _, p := range paths {
		if p == "_posts/drafts/2024-01-04-wip.md" {
			t.Fatalf("expected drafts directory to be excluded: %v", paths)
		}
	}
}

func TestLoaderLoadSingleFile(t *testing.T) {
	loader := NewLoader(testFS(), LoaderConfig{})

	post, err := loader.Load(context.Background(), "about.md")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if post.FrontMatter.Layout != "page" {
		t.Fatalf("expected layout page, got %q", post.FrontMatter.Layout)
	}
}

func TestLoaderRejectsEscapingPaths(t *testing.T) {
	loader := NewLoader(testFS(), LoaderConfig{BasePath: "/srv/blog"})

	if _, err := loader.Load(context.Background(), "../secret.md"); err == nil {
		t.Fatalf("expected paths outside the base to be rejected")
	}
	rel, err := loader.Relative("/srv/blog/_posts/a.md")
	if err != nil || rel != "_posts/a.md" {
		t.Fatalf("Relative = %q, %v", rel, err)
	}
}

func TestLoaderHonoursCancellation(t *testing.T) {
	loader := NewLoader(testFS(), LoaderConfig{Recursive: true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := loader.LoadDirectory(ctx, ".", loadOpts()); err == nil {
		t.Fatalf("expected cancelled context to abort the walk")
	}
}

func TestLoaderMatchesAndExcluded(t *testing.T) {
	loader := NewLoader(testFS(), LoaderConfig{})

	if !loader.Matches("_posts/a.md") || loader.Matches("notes.txt") {
		t.Fatalf("unexpected Matches result")
	}
	if !loader.Excluded("_site/feed.md") || loader.Excluded("_posts/a.md") {
		t.Fatalf("unexpected Excluded result")
	}
}
