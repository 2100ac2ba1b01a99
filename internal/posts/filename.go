package posts

import (
	"path"
	"regexp"
	"strings"
	"time"
)

var postFilename = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-(.+)\.(md|markdown)$`)

// PostName is the date and slug encoded in a Jekyll `_posts` filename.
type PostName struct {
	Date time.Time
	Slug string
}

// ParseFilename parses `YYYY-MM-DD-slug.md`. ok is false when the name does
// not follow the convention or the date is not a real calendar day.
func ParseFilename(name string) (PostName, bool) {
	match := postFilename.FindStringSubmatch(path.Base(name))
	if match == nil {
		return PostName{}, false
	}
	date, err := time.Parse("2006-01-02", match[1])
	if err != nil {
		return PostName{}, false
	}
	return PostName{Date: date, Slug: match[2]}, true
}

// InPostsDir reports whether the path sits inside a `_posts` directory.
func InPostsDir(name string) bool {
	for _, segment := range strings.Split(path.Dir(name), "/") {
		if segment == "_posts" {
			return true
		}
	}
	return false
}
