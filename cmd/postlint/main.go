package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-postlint"
	lintcmd "github.com/goliatone/go-postlint/internal/commands/lint"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitError  = 2
)

var moduleBuilder = postlint.New

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		if lintcmd.IsLintFailed(err) {
			return exitFailed
		}
		fmt.Fprintln(stderr, "postlint:", err)
		return exitError
	}
	return exitOK
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "postlint",
		Short: "Lint a Jekyll-style Markdown blog",
		Long: `postlint checks that every post has parseable front matter with a layout
and a title, that tags are a list of strings, and that no post is empty.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	opts.bind(root)

	root.AddCommand(newLintCommand(opts, stdout, stderr))
	root.AddCommand(newTagsCommand(opts, stdout, stderr))
	root.AddCommand(newWatchCommand(opts, stdout, stderr))
	root.AddCommand(newVersionCommand(stdout))
	return root
}

func newVersionCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the postlint version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "postlint %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
