package cli

import (
	"errors"
	"strings"
	"time"

	"iml-cli/internal/model"
	"iml-cli/internal/mutate"
	"iml-cli/internal/store"

	"github.com/spf13/cobra"
)

func newProjectsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Project commands",
	}
	cmd.AddCommand(newProjectsCreateCmd(app))
	cmd.AddCommand(newProjectsListCmd(app))
	cmd.AddCommand(newProjectsShowCmd(app))
	cmd.AddCommand(newProjectsUseCmd(app))
	cmd.AddCommand(newProjectsSetStatusCmd(app))
	cmd.AddCommand(newProjectsSetDesignCmd(app))
	cmd.AddCommand(newProjectsArchiveCmd(app))
	return cmd
}

func newProjectsCreateCmd(app *App) *cobra.Command {
	var in mutate.NewProject
	var use bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			actorID, err := requireActor(app, db)
			if err != nil {
				return writeErr(cmd, err)
			}
			cat, err := loadCatalog(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := mutate.CreateProject(db, cat, s.NextID(db, "proj"), actorID, in, time.Now().UTC())
			if err != nil {
				return writeErr(cmd, err)
			}
			p := *res.Project
			if use {
				db.CurrentProjectID = p.ID
			}
			if err := persist(cmd, app, s, db, actorID, "project.create", p.ID, res.EventPayload); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": p})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Project name")
	cmd.Flags().StringVar(&in.Customer, "customer", "", "Customer name")
	cmd.Flags().StringVar(&in.JobRef, "job-ref", "", "External job reference")
	cmd.Flags().StringToStringVar(&in.Design, "design", nil, "Design options as kind=value (repeatable)")
	cmd.Flags().BoolVar(&use, "use", false, "Make this the current project")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectsListCmd(app *App) *cobra.Command {
	var archived bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			out := []model.Project{}
			for _, p := range db.Projects {
				if p.Archived && !archived {
					continue
				}
				out = append(out, p)
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
	cmd.Flags().BoolVar(&archived, "archived", false, "Include archived projects")
	return cmd
}

func newProjectsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show [project-id]",
		Short: "Show a project and its lists (default: current project)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			id, err := projectArg(db.CurrentProjectID, args)
			if err != nil {
				return writeErr(cmd, err)
			}
			p, ok := db.FindProject(id)
			if !ok {
				return writeErr(cmd, errNotFound("project", id))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"project": p,
				"lists":   listSummaries(db.ListsForProject(p.ID)),
			}})
		},
	}
}

func newProjectsUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <project-id>",
		Short: "Set the current project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			p, ok := db.FindProject(args[0])
			if !ok {
				return writeErr(cmd, errNotFound("project", args[0]))
			}
			db.CurrentProjectID = p.ID
			if err := s.Save(ctxOf(cmd), db); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": p})
		},
	}
}

func newProjectsSetStatusCmd(app *App) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "set-status <project-id>",
		Short: "Set project status (draft|submitted|in-design|complete)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := mutate.ParseProjectStatus(status)
			if err != nil {
				return writeErr(cmd, err)
			}
			return runProjectMutation(cmd, app, "project.set_status", func(db *store.DB) (mutate.ProjectResult, error) {
				return mutate.SetProjectStatus(db, args[0], st, time.Now().UTC())
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "New status")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func newProjectsSetDesignCmd(app *App) *cobra.Command {
	var kind, value string
	cmd := &cobra.Command{
		Use:   "set-design <project-id>",
		Short: "Choose a catalog option for a design field (empty --value clears it)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return runProjectMutation(cmd, app, "project.set_design", func(db *store.DB) (mutate.ProjectResult, error) {
				return mutate.SetDesignOption(db, cat, args[0], kind, value, time.Now().UTC())
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Catalog kind (see `iml catalog kinds`)")
	cmd.Flags().StringVar(&value, "value", "", "Option value")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}

func newProjectsArchiveCmd(app *App) *cobra.Command {
	var unarchive bool
	cmd := &cobra.Command{
		Use:   "archive <project-id>",
		Short: "Archive (or --unarchive) a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectMutation(cmd, app, "project.archive", func(db *store.DB) (mutate.ProjectResult, error) {
				return mutate.ArchiveProject(db, args[0], !unarchive, time.Now().UTC())
			})
		},
	}
	cmd.Flags().BoolVar(&unarchive, "unarchive", false, "Restore an archived project")
	return cmd
}

func runProjectMutation(cmd *cobra.Command, app *App, eventType string, op func(*store.DB) (mutate.ProjectResult, error)) error {
	db, s, err := loadDB(cmd, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	actorID, err := requireActor(app, db)
	if err != nil {
		return writeErr(cmd, err)
	}
	res, err := op(db)
	if err != nil {
		return writeErr(cmd, err)
	}
	if res.Changed {
		if err := persist(cmd, app, s, db, actorID, eventType, res.Project.ID, res.EventPayload); err != nil {
			return writeErr(cmd, err)
		}
	}
	return writeOut(cmd, app, map[string]any{"data": res.Project, "meta": map[string]any{"changed": res.Changed}})
}

func projectArg(current string, args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}
	if current != "" {
		return current, nil
	}
	return "", errors.New("no project given and no current project; pass a project id or run `iml projects use <id>`")
}
