package cli

import (
	"os"
	"path/filepath"

	"iml-cli/internal/catalog"

	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	var withCatalog bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a workspace (.iml) in the current directory or --dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Dir == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return writeErr(cmd, err)
				}
				app.Dir = filepath.Join(cwd, ".iml")
			}
			db, s, err := loadDB(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.Save(ctxOf(cmd), db); err != nil {
				return writeErr(cmd, err)
			}

			out := map[string]any{
				"dir":        s.Dir,
				"sqlitePath": s.Path(),
			}
			if withCatalog {
				path := filepath.Join(s.Dir, catalog.FileName)
				if _, err := os.Stat(path); os.IsNotExist(err) {
					if err := os.WriteFile(path, catalog.DefaultYAML(), 0o644); err != nil {
						return writeErr(cmd, err)
					}
				}
				out["catalogPath"] = path
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
	cmd.Flags().BoolVar(&withCatalog, "catalog", false, "Also write an editable catalog.yaml into the workspace")
	return cmd
}
