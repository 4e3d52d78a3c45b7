package cli

import (
	"fmt"

	"iml-cli/internal/publish"
	"iml-cli/internal/submittal"

	"github.com/spf13/cobra"
)

func newSubmittalCmd(app *App) *cobra.Command {
	var term string
	var asMarkdown, render bool

	cmd := &cobra.Command{
		Use:   "submittal <iml-id>",
		Short: "Derive the submittal view of a list (flags duplicate and invalid rows)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			l, ok := db.FindList(args[0])
			if !ok {
				return writeErr(cmd, errNotFound("list", args[0]))
			}
			sub := submittal.Derive(*l)
			sum := sub.Summary()
			sub = sub.Filter(term)

			if asMarkdown || render {
				md := publish.RenderSubmittalMarkdown(sub)
				if render {
					md = publish.RenderTerminal(md, 100, app.cfg.GetString("tui.style"))
				}
				_, err := fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			return writeOut(cmd, app, map[string]any{"data": sub, "meta": map[string]any{"summary": sum}})
		},
	}
	cmd.Flags().StringVar(&term, "term", "", "Only rows whose SKU or description contain this")
	cmd.Flags().BoolVar(&asMarkdown, "md", false, "Print Markdown instead of JSON")
	cmd.Flags().BoolVar(&render, "render", false, "Render Markdown for the terminal")
	return cmd
}
