package posts

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-postlint/pkg/interfaces"
)

// DefaultPatterns match the Markdown extensions Jekyll picks up.
var DefaultPatterns = []string{"*.md", "*.markdown"}

// DefaultExclude lists directory names never walked.
var DefaultExclude = []string{".git", "_site", ".jekyll-cache", "node_modules", "vendor"}

// LoaderConfig configures how post files are discovered within a base directory.
type LoaderConfig struct {
	// BasePath is the root directory the filesystem is anchored at.
	BasePath string
	// Patterns limits discovered files to those matching one of the globs.
	Patterns []string
	// Exclude names directories skipped during the walk.
	Exclude []string
	// Recursive controls whether sub-directories are traversed.
	Recursive bool
}

// Loader turns filesystem paths into parsed posts.
type Loader struct {
	fs        fs.FS
	basePath  string
	patterns  []string
	exclude   map[string]struct{}
	recursive bool
}

var _ interfaces.PostLoader = (*Loader)(nil)

// NewLoader constructs a Loader over the provided filesystem.
func NewLoader(filesystem fs.FS, cfg LoaderConfig) *Loader {
	patterns := cleanList(cfg.Patterns)
	if len(patterns) == 0 {
		patterns = append([]string(nil), DefaultPatterns...)
	}
	exclude := cfg.Exclude
	if exclude == nil {
		exclude = DefaultExclude
	}

	return &Loader{
		fs:        filesystem,
		basePath:  filepath.Clean(cfg.BasePath),
		patterns:  patterns,
		exclude:   toSet(exclude),
		recursive: cfg.Recursive,
	}
}

// Load reads and parses a single post.
func (l *Loader) Load(ctx context.Context, name string) (*interfaces.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel, err := l.makeRelative(name)
	if err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(l.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("posts loader read %s: %w", rel, err)
	}
	info, err := fs.Stat(l.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("posts loader stat %s: %w", rel, err)
	}

	post := BuildPost(rel, data, info.ModTime())
	sum := sha256.Sum256(data)
	post.Checksum = sum[:]
	return post, nil
}

// LoadDirectory discovers posts under dir, sorted by path.
func (l *Loader) LoadDirectory(ctx context.Context, dir string, opts interfaces.LoadOptions) ([]*interfaces.Post, error) {
	paths, err := l.Discover(ctx, dir, opts)
	if err != nil {
		return nil, err
	}

	out := make([]*interfaces.Post, 0, len(paths))
	for _, p := range paths {
		post, err := l.Load(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, post)
	}
	return out, nil
}

// Discover lists matching post paths under dir without reading them.
func (l *Loader) Discover(ctx context.Context, dir string, opts interfaces.LoadOptions) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := l.makeRelative(dir)
	if err != nil {
		return nil, err
	}

	recursive := l.recursive
	if opts.Recursive != nil {
		recursive = *opts.Recursive
	}
	patterns := l.patterns
	if trimmed := strings.TrimSpace(opts.Pattern); trimmed != "" {
		patterns = []string{trimmed}
	}
	exclude := l.exclude
	if len(opts.Exclude) > 0 {
		exclude = toSet(append(setKeys(l.exclude), opts.Exclude...))
	}

	var paths []string
	walkErr := fs.WalkDir(l.fs, root, func(current string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if current == root {
				return nil
			}
			if _, skip := exclude[d.Name()]; skip || !recursive {
				return fs.SkipDir
			}
			return nil
		}
		if matchesAny(current, patterns) {
			paths = append(paths, current)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("posts loader walk %s: %w", root, walkErr)
	}

	sort.Strings(paths)
	return paths, nil
}

// Matches reports whether the path would be picked up by the configured patterns.
func (l *Loader) Matches(name string) bool {
	return matchesAny(filepath.ToSlash(name), l.patterns)
}

// Excluded reports whether any directory segment of name is excluded.
func (l *Loader) Excluded(name string) bool {
	for _, segment := range strings.Split(filepath.ToSlash(name), "/") {
		if _, skip := l.exclude[segment]; skip {
			return true
		}
	}
	return false
}

// Relative converts an absolute path into one rooted at the loader base path.
func (l *Loader) Relative(name string) (string, error) {
	return l.makeRelative(name)
}

func (l *Loader) makeRelative(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return ".", nil
	}
	clean := filepath.Clean(name)
	if filepath.IsAbs(clean) {
		if l.basePath == "" || l.basePath == "." {
			return "", fmt.Errorf("posts loader: absolute path %s provided without base path", name)
		}
		rel, err := filepath.Rel(l.basePath, clean)
		if err != nil {
			return "", fmt.Errorf("posts loader: make relative %s: %w", name, err)
		}
		clean = rel
	}
	clean = filepath.ToSlash(clean)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("posts loader: %s is outside %s", name, l.basePath)
	}
	return clean, nil
}

func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		pattern = strings.ReplaceAll(filepath.ToSlash(pattern), "**/", "")
		target := path.Base(name)
		if strings.Contains(pattern, "/") {
			target = name
		}
		if ok, err := path.Match(pattern, target); err == nil && ok {
			return true
		}
	}
	return false
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, value := range cleanList(values) {
		out[value] = struct{}{}
	}
	return out
}

func setKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	return out
}
