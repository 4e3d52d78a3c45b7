package cli

import (
	"iml-cli/internal/tui"

	"github.com/spf13/cobra"
)

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui [iml-id]",
		Short: "Edit a list interactively (defaults to the last opened list)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			// Viewing works without an identity; edits are then saved without events.
			actorID, _ := currentActorID(app, db)

			listID := ""
			if len(args) == 1 {
				listID = args[0]
			}
			if err := tui.Run(ctxOf(cmd), tui.Config{
				Store:        s,
				ListID:       listID,
				ActorID:      actorID,
				DeletePolicy: app.DeletePolicy,
				Log:          app.log,
				Style:        app.cfg.GetString("tui.style"),
			}); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
}
