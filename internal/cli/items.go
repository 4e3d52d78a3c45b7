package cli

import (
	"errors"
	"time"

	"iml-cli/internal/editor"
	"iml-cli/internal/mutate"
	"iml-cli/internal/store"

	"github.com/spf13/cobra"
)

func newItemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "items",
		Aliases: []string{"item", "rows"},
		Short:   "Edit the rows of a materials list (sections and rows are zero-based)",
	}
	cmd.AddCommand(newItemsAddCmd(app))
	cmd.AddCommand(newItemsDeleteCmd(app))
	cmd.AddCommand(newItemsMoveCmd(app))
	cmd.AddCommand(newItemsEditCmd(app))
	return cmd
}

func newItemsAddCmd(app *App) *cobra.Command {
	var section, parent int
	cmd := &cobra.Command{
		Use:   "add <iml-id>",
		Short: "Append a parent row, or a child row under --parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("parent") {
				return runListMutation(cmd, app, "item.add_child", args[0], func(db *store.DB) (mutate.ListResult, error) {
					return mutate.AddChild(db, args[0], section, parent, time.Now().UTC())
				})
			}
			return runListMutation(cmd, app, "item.add", args[0], func(db *store.DB) (mutate.ListResult, error) {
				return mutate.AddParent(db, args[0], section, time.Now().UTC())
			})
		},
	}
	cmd.Flags().IntVar(&section, "section", 0, "Section index")
	cmd.Flags().IntVar(&parent, "parent", -1, "Parent row index (adds a child as its first child)")
	return cmd
}

func newItemsDeleteCmd(app *App) *cobra.Command {
	var section, item int
	var policy string
	cmd := &cobra.Command{
		Use:   "delete <iml-id>",
		Short: "Delete a row (see --delete-policy for parents with children)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := app.DeletePolicy
			if cmd.Flags().Changed("policy") {
				parsed, err := editor.ParseDeletePolicy(policy)
				if err != nil {
					return writeErr(cmd, err)
				}
				p = parsed
			}
			return runListMutation(cmd, app, "item.delete", args[0], func(db *store.DB) (mutate.ListResult, error) {
				return mutate.DeleteItem(db, args[0], section, item, p, time.Now().UTC())
			})
		},
	}
	cmd.Flags().IntVar(&section, "section", 0, "Section index")
	cmd.Flags().IntVar(&item, "item", -1, "Row index")
	cmd.Flags().StringVar(&policy, "policy", "", "Override the delete policy for this call (keep|cascade|promote)")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func newItemsMoveCmd(app *App) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "move <iml-id>",
		Short: "Move a row (with its children) from section:item to section:item",
		Long: `Move a row the way dragging it would.

Parents carry their children and land on group boundaries; they may move to
another section (use the section's length as item to append). Children only
move within their own parent's rows. Illegal moves are reported with
meta.changed=false and leave the list untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := parsePosition(from)
			if err != nil {
				return writeErr(cmd, err)
			}
			dst, err := parsePosition(to)
			if err != nil {
				return writeErr(cmd, err)
			}
			return runListMutation(cmd, app, "item.move", args[0], func(db *store.DB) (mutate.ListResult, error) {
				return mutate.MoveItem(db, args[0], src, dst, time.Now().UTC())
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Source position section:item")
	cmd.Flags().StringVar(&to, "to", "", "Target position section:item")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newItemsEditCmd(app *App) *cobra.Command {
	var section, item int
	var sku, content, quantity, uom, notes string
	cmd := &cobra.Command{
		Use:   "edit <iml-id>",
		Short: "Edit a row in place (only the flags given are changed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch editor.ItemPatch
			set := func(name string, v *string) *string {
				if cmd.Flags().Changed(name) {
					return v
				}
				return nil
			}
			patch.SKU = set("sku", &sku)
			patch.Content = set("content", &content)
			patch.Quantity = set("quantity", &quantity)
			patch.UOM = set("uom", &uom)
			patch.Notes = set("notes", &notes)
			if patch == (editor.ItemPatch{}) {
				return writeErr(cmd, errors.New("nothing to edit; pass at least one of --sku --content --quantity --uom --notes"))
			}
			return runListMutation(cmd, app, "item.edit", args[0], func(db *store.DB) (mutate.ListResult, error) {
				return mutate.EditItem(db, args[0], section, item, patch, time.Now().UTC())
			})
		},
	}
	cmd.Flags().IntVar(&section, "section", 0, "Section index")
	cmd.Flags().IntVar(&item, "item", -1, "Row index")
	cmd.Flags().StringVar(&sku, "sku", "", "SKU")
	cmd.Flags().StringVar(&content, "content", "", "Description")
	cmd.Flags().StringVar(&quantity, "quantity", "", "Quantity")
	cmd.Flags().StringVar(&uom, "uom", "", "Unit of measure (EA, FT, LF, BX, BG, CS, PK, RL, GAL, LB)")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}
