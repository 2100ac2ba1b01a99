package main

import (
	"io"

	"github.com/spf13/cobra"

	lintcmd "github.com/goliatone/go-postlint/internal/commands/lint"
)

func newTagsCommand(global *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var (
		pattern   string
		recursive bool
	)
	cmd := &cobra.Command{
		Use:   "tags [dir]",
		Short: "List tags used across posts, most used first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			cfg, err := global.config(cmd, dir)
			if err != nil {
				return err
			}
			module, err := global.module(cfg, stderr)
			if err != nil {
				return err
			}
			defer module.Close()

			writer, err := reportWriter(cfg, module.Root(), stdout)
			if err != nil {
				return err
			}
			set, err := module.Container().RegisterCommands(nil, lintcmd.Sinks{Reports: writer, Tags: writer})
			if err != nil {
				return err
			}
			return set.Tags.Execute(cmd.Context(), lintcmd.TagIndexCommand{
				Directory: module.Root(),
				Pattern:   pattern,
				Recursive: recursiveFlag(cmd, recursive),
			})
		},
	}
	cmd.Flags().StringVar(&pattern, "pattern", "", "Glob matched against post paths")
	cmd.Flags().BoolVar(&recursive, "recursive", true, "Descend into sub-directories")
	return cmd
}
