package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
)

// Post renders a post with the given front matter lines and body.
func Post(frontMatter, body string) string {
	return "---\n" + frontMatter + "---\n" + body
}

// WriteTree writes files keyed by slash separated paths relative to dir,
// creating parent directories as needed.
func WriteTree(dir string, files map[string]string) error {
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("testsupport: mkdir for %s: %w", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("testsupport: write %s: %w", name, err)
		}
	}
	return nil
}
