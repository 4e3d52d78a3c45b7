package cli

import (
	"github.com/spf13/cobra"
)

func newCatalogCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Design option catalog (water source, pressure, controller, ...)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "kinds",
		Short: "List option kinds",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": cat.SortedKinds()})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list <kind>",
		Short: "List the active options of a kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			opts, err := cat.Active(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			meta := map[string]any{}
			if d, ok := cat.DefaultDesign()[args[0]]; ok {
				meta["default"] = d
			}
			return writeOut(cmd, app, map[string]any{"data": opts, "meta": meta})
		},
	})
	return cmd
}
