package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"iml-cli/internal/web"

	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workspace as a JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			cat, err := loadCatalog(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			actorID, _ := currentActorID(app, db)

			ctx, stop := signal.NotifyContext(ctxOf(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			addr := app.cfg.GetString("addr")
			fmt.Fprintf(cmd.ErrOrStderr(), "serving %s on http://%s\n", s.Dir, addr)
			if err := web.Serve(ctx, addr, web.Config{
				Store:        s,
				ActorID:      actorID,
				DeletePolicy: app.DeletePolicy,
				Catalog:      cat,
				Log:          app.log,
			}); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().String("addr", "127.0.0.1:8080", "Listen address")
	_ = app.cfg.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	return cmd
}
