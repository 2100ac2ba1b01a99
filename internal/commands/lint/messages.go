package lintcmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-postlint/pkg/interfaces"
)

const (
	lintDirectoryMessageType = "postlint.lint.directory"
	lintFilesMessageType     = "postlint.lint.files"
	tagIndexMessageType      = "postlint.tags.index"
)

var notBlank = validation.By(func(value any) error {
	str, _ := value.(string)
	if strings.TrimSpace(str) == "" {
		return validation.NewError("postlint.command.blank", "must not be blank")
	}
	return nil
})

var severityLabel = validation.By(func(value any) error {
	str, _ := value.(string)
	if strings.TrimSpace(str) == "" {
		return nil
	}
	if _, err := interfaces.ParseSeverity(str); err != nil {
		return validation.NewError("postlint.command.fail_on", "must be one of error, warning, info")
	}
	return nil
})

// LintDirectoryCommand lints every post under Directory.
type LintDirectoryCommand struct {
	// Directory is resolved against the loader base path.
	Directory string `json:"directory"`
	// Pattern overrides the default Markdown globs.
	Pattern string `json:"pattern,omitempty"`
	// Recursive overrides the configured recursion when set.
	Recursive *bool `json:"recursive,omitempty"`
	// Exclude adds directory names skipped during discovery.
	Exclude []string `json:"exclude,omitempty"`
	// ChangedOnly skips files unchanged since their last clean run.
	ChangedOnly bool `json:"changed_only,omitempty"`
	// FailOn is the lowest severity that fails the command. Defaults to error.
	FailOn string `json:"fail_on,omitempty"`
}

// Type implements command.Message.
func (LintDirectoryCommand) Type() string { return lintDirectoryMessageType }

// Validate ensures the directory is present and the threshold is known.
func (cmd LintDirectoryCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.Required, notBlank),
		validation.Field(&cmd.FailOn, severityLabel),
		validation.Field(&cmd.Exclude, validation.Each(notBlank)),
	)
}

// LintFilesCommand lints an explicit list of post files.
type LintFilesCommand struct {
	Paths  []string `json:"paths"`
	FailOn string   `json:"fail_on,omitempty"`
}

// Type implements command.Message.
func (LintFilesCommand) Type() string { return lintFilesMessageType }

// Validate ensures at least one non-blank path is supplied.
func (cmd LintFilesCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Paths, validation.Required, validation.Each(notBlank)),
		validation.Field(&cmd.FailOn, severityLabel),
	)
}

// TagIndexCommand builds the tag index for posts under Directory.
type TagIndexCommand struct {
	Directory string `json:"directory"`
	Pattern   string `json:"pattern,omitempty"`
	Recursive *bool  `json:"recursive,omitempty"`
}

// Type implements command.Message.
func (TagIndexCommand) Type() string { return tagIndexMessageType }

// Validate ensures the directory is present.
func (cmd TagIndexCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.Required, notBlank),
	)
}

func failThreshold(label string) interfaces.Severity {
	if severity, err := interfaces.ParseSeverity(label); err == nil {
		return severity
	}
	return interfaces.SeverityError
}
