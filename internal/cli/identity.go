package cli

import (
	"errors"
	"strings"

	"iml-cli/internal/model"

	"github.com/spf13/cobra"
)

func newIdentityCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Manage local identities (actors)",
	}
	cmd.AddCommand(newIdentityCreateCmd(app))
	cmd.AddCommand(newIdentityUseCmd(app))
	cmd.AddCommand(newIdentityListCmd(app))
	cmd.AddCommand(newIdentityWhoamiCmd(app))
	return cmd
}

func newIdentityCreateCmd(app *App) *cobra.Command {
	var name string
	var use bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			name = strings.TrimSpace(name)
			if name == "" {
				return writeErr(cmd, errors.New("missing --name"))
			}
			actor := model.Actor{ID: s.NextID(db, "act"), Name: name}
			db.Actors = append(db.Actors, actor)
			if use {
				db.CurrentActorID = actor.ID
				app.ActorID = actor.ID
			}
			if err := persist(cmd, app, s, db, actor.ID, "identity.create", actor.ID, map[string]any{"name": name, "use": use}); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": actor})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().BoolVar(&use, "use", false, "Make this the current identity")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newIdentityUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <actor-id>",
		Short: "Set the current identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			a, ok := db.FindActor(args[0])
			if !ok {
				return writeErr(cmd, errNotFound("actor", args[0]))
			}
			db.CurrentActorID = a.ID
			if err := s.Save(ctxOf(cmd), db); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": a})
		},
	}
}

func newIdentityListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List identities",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": db.Actors,
				"meta": map[string]any{"currentActorId": db.CurrentActorID},
			})
		},
	}
}

func newIdentityWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			id, err := requireActor(app, db)
			if err != nil {
				return writeErr(cmd, err)
			}
			a, _ := db.FindActor(id)
			return writeOut(cmd, app, map[string]any{"data": a})
		},
	}
}
