package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"iml-cli/internal/editor"
	"iml-cli/internal/model"
	"iml-cli/internal/mutate"
	"iml-cli/internal/publish"
	"iml-cli/internal/store"

	"github.com/spf13/cobra"
)

type listSummary struct {
	ID        string           `json:"id"`
	ProjectID string           `json:"projectId"`
	Name      string           `json:"name"`
	Status    model.ListStatus `json:"status"`
	Sections  int              `json:"sections"`
	Rows      int              `json:"rows"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func listSummaries(ls []model.MaterialsList) []listSummary {
	out := make([]listSummary, 0, len(ls))
	for _, l := range ls {
		rows := 0
		for _, s := range l.Sections {
			rows += len(s.Items)
		}
		out = append(out, listSummary{
			ID: l.ID, ProjectID: l.ProjectID, Name: l.Name, Status: l.Status,
			Sections: len(l.Sections), Rows: rows, UpdatedAt: l.UpdatedAt,
		})
	}
	return out
}

func newListsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "lists",
		Aliases: []string{"list", "iml"},
		Short:   "Materials list commands",
	}
	cmd.AddCommand(newListsCreateCmd(app))
	cmd.AddCommand(newListsListCmd(app))
	cmd.AddCommand(newListsShowCmd(app))
	cmd.AddCommand(newListsRenameCmd(app))
	cmd.AddCommand(newListsSetStatusCmd(app))
	cmd.AddCommand(newListsAddSectionsCmd(app))
	cmd.AddCommand(newListsSearchCmd(app))
	return cmd
}

func newListsCreateCmd(app *App) *cobra.Command {
	var projectID, name string
	var categories []string
	var allCategories bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a materials list in a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			actorID, err := requireActor(app, db)
			if err != nil {
				return writeErr(cmd, err)
			}
			pid, err := projectArg(db.CurrentProjectID, []string{projectID})
			if err != nil {
				return writeErr(cmd, err)
			}
			if allCategories {
				categories = append(append([]string{}, editor.DefaultCategories...), categories...)
			}
			res, err := mutate.CreateList(db, s.NextID(db, "iml"), actorID, pid, name, categories, time.Now().UTC())
			if err != nil {
				return writeErr(cmd, err)
			}
			l := *res.List
			if err := persist(cmd, app, s, db, actorID, "list.create", l.ID, res.EventPayload); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": l})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Project id (default: current project)")
	cmd.Flags().StringVar(&name, "name", "", "List name")
	cmd.Flags().StringArrayVar(&categories, "category", nil, `Section to create (repeatable; "Other: <name>" for custom)`)
	cmd.Flags().BoolVar(&allCategories, "all-categories", false, "Create one section per standard category")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newListsListCmd(app *App) *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List materials lists (default: current project; --project all for every project)",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if projectID == "all" || (projectID == "" && db.CurrentProjectID == "") {
				return writeOut(cmd, app, map[string]any{"data": listSummaries(db.Lists)})
			}
			pid, _ := projectArg(db.CurrentProjectID, []string{projectID})
			if _, ok := db.FindProject(pid); !ok {
				return writeErr(cmd, errNotFound("project", pid))
			}
			return writeOut(cmd, app, map[string]any{"data": listSummaries(db.ListsForProject(pid))})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Project id or \"all\"")
	return cmd
}

func newListsShowCmd(app *App) *cobra.Command {
	var asMarkdown, render bool
	cmd := &cobra.Command{
		Use:   "show <iml-id>",
		Short: "Show a materials list",
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
			if asMarkdown || render {
				md, err := publish.RenderListMarkdown(db, l.ID)
				if err != nil {
					return writeErr(cmd, err)
				}
				if render {
					md = publish.RenderTerminal(md, 100, app.cfg.GetString("tui.style"))
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			return writeOut(cmd, app, map[string]any{"data": l})
		},
	}
	cmd.Flags().BoolVar(&asMarkdown, "md", false, "Print Markdown instead of JSON")
	cmd.Flags().BoolVar(&render, "render", false, "Render Markdown for the terminal")
	return cmd
}

func newListsRenameCmd(app *App) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "rename <iml-id>",
		Short: "Rename a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListMutation(cmd, app, "list.rename", args[0], func(db *store.DB) (mutate.ListResult, error) {
				return mutate.RenameList(db, args[0], name, time.Now().UTC())
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newListsSetStatusCmd(app *App) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "set-status <iml-id>",
		Short: "Set list status (draft|in-review|approved); approved lists are read-only",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := mutate.ParseListStatus(status)
			if err != nil {
				return writeErr(cmd, err)
			}
			return runListMutation(cmd, app, "list.set_status", args[0], func(db *store.DB) (mutate.ListResult, error) {
				return mutate.SetListStatus(db, args[0], st, time.Now().UTC())
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "New status")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func newListsAddSectionsCmd(app *App) *cobra.Command {
	var categories []string
	cmd := &cobra.Command{
		Use:   "add-sections <iml-id>",
		Short: "Append sections; existing names are skipped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(categories) == 0 {
				return writeErr(cmd, errors.New("missing --category"))
			}
			return runListMutation(cmd, app, "list.add_sections", args[0], func(db *store.DB) (mutate.ListResult, error) {
				return mutate.AddSections(db, args[0], categories, time.Now().UTC())
			})
		},
	}
	cmd.Flags().StringArrayVar(&categories, "category", nil, `Section name (repeatable; "Other: <name>" for custom)`)
	return cmd
}

func newListsSearchCmd(app *App) *cobra.Command {
	var term string
	cmd := &cobra.Command{
		Use:   "search <iml-id>",
		Short: "Find rows whose SKU, description or notes contain --term",
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
			type hit struct {
				editor.Position
				SectionName string     `json:"sectionName"`
				Row         model.Item `json:"row"`
			}
			hits := []hit{}
			for _, p := range editor.New(*l).Search(term) {
				sec := l.Sections[p.Section]
				hits = append(hits, hit{Position: p, SectionName: sec.Name, Row: sec.Items[p.Item]})
			}
			return writeOut(cmd, app, map[string]any{"data": hits, "meta": map[string]any{"term": strings.TrimSpace(term)}})
		},
	}
	cmd.Flags().StringVar(&term, "term", "", "Search text")
	_ = cmd.MarkFlagRequired("term")
	return cmd
}

// runListMutation loads the workspace, applies op and persists it when it
// changed. The list is always returned with meta.changed.
func runListMutation(cmd *cobra.Command, app *App, eventType, listID string, op func(*store.DB) (mutate.ListResult, error)) error {
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
		if err := persist(cmd, app, s, db, actorID, eventType, listID, res.EventPayload); err != nil {
			return writeErr(cmd, err)
		}
	}
	return writeOut(cmd, app, map[string]any{"data": res.List, "meta": map[string]any{"changed": res.Changed}})
}
