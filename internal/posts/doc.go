// Package posts discovers Markdown post files, splits their YAML front matter
// from the body and exposes a read-only view of the body structure for lint
// rules. Nothing here renders HTML or writes back to the corpus.
package posts
