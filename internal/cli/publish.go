package cli

import (
	"github.com/spf13/cobra"

	"iml-cli/internal/publish"
)

func newPublishCmd(app *App) *cobra.Command {
	var toDir string
	var overwrite, withSubmittal bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Export Markdown for sharing (derived, not canonical)",
	}

	listCmd := &cobra.Command{
		Use:   "list <iml-id>",
		Short: "Publish one list as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := publish.WriteList(db, args[0], toDir, publish.WriteOptions{Overwrite: overwrite, Submittal: withSubmittal})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res})
		},
	}

	projectCmd := &cobra.Command{
		Use:   "project <project-id>",
		Short: "Publish a project index plus every list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := publish.WriteProject(db, args[0], toDir, publish.WriteOptions{Overwrite: overwrite, Submittal: withSubmittal})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res})
		},
	}

	for _, c := range []*cobra.Command{listCmd, projectCmd} {
		c.Flags().StringVar(&toDir, "to", "", "Output directory")
		c.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing files")
		c.Flags().BoolVar(&withSubmittal, "submittal", false, "Also write <iml-id>.submittal.md")
		_ = c.MarkFlagRequired("to")
		cmd.AddCommand(c)
	}
	return cmd
}
