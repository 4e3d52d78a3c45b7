package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"iml-cli/internal/catalog"
	"iml-cli/internal/editor"
	"iml-cli/internal/format"
	"iml-cli/internal/logging"
	"iml-cli/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type App struct {
	Dir          string
	ActorID      string
	PrettyJSON   bool
	Format       string
	Verbose      bool
	ConfigFile   string
	DeletePolicy editor.DeletePolicy

	cfg *viper.Viper
	log *logrus.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{cfg: viper.New(), log: logging.Discard()}

	cmd := &cobra.Command{
		Use:          "iml",
		Short:        "Interactive Materials Lists for irrigation projects (CLI + TUI + HTTP)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Set up a workspace and an identity
  iml init
  iml identity create --name "Dana" --use

  # Scope a project and start a list
  iml projects create --name "Backyard" --design waterSource=well --use
  iml lists create --name "Phase 1" --category "Remote Control Valves" --category "Other: Drip zone"

  # Edit rows
  iml items add iml-xxxxxxxx --section 0
  iml items move iml-xxxxxxxx --from 0:0 --to 0:3

  # Direct list lookup (shortcut for: iml lists show <iml-id>)
  iml iml-xxxxxxxx
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := initConfig(app); err != nil {
			return writeErr(cmd, err)
		}
		return nil
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.ConfigFile, "config", "", "Config file (default $HOME/.config/iml/config.yaml)")
	pf.String("dir", "", "Workspace dir (default: nearest .iml walking up from cwd)")
	pf.String("actor", "", "Actor id (overrides currentActorId)")
	pf.String("format", "json", "Output format (json|edn)")
	pf.Bool("pretty", false, "Pretty-print output")
	pf.BoolP("verbose", "v", false, "Debug logging on stderr")
	pf.String("delete-policy", string(editor.DeleteKeep), "What deleting a parent does to its children (keep|cascade|promote)")
	for _, name := range []string{"dir", "actor", "format", "pretty", "verbose", "delete-policy"} {
		_ = app.cfg.BindPFlag(name, pf.Lookup(name))
	}

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDoctorCmd(app))
	cmd.AddCommand(newIdentityCmd(app))
	cmd.AddCommand(newProjectsCmd(app))
	cmd.AddCommand(newListsCmd(app))
	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newCatalogCmd(app))
	cmd.AddCommand(newSubmittalCmd(app))
	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newPublishCmd(app))
	cmd.AddCommand(newBackupCmd(app))
	cmd.AddCommand(newTUICmd(app))
	cmd.AddCommand(newServeCmd(app))

	return cmd
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func openStore(app *App) (store.Store, error) {
	dir := strings.TrimSpace(app.Dir)
	if dir == "" {
		d, err := store.DefaultDir()
		if err != nil {
			return store.Store{}, err
		}
		dir = d
		app.Dir = d
	}
	return store.Store{Dir: dir, Log: app.log}, nil
}

func loadDB(cmd *cobra.Command, app *App) (*store.DB, store.Store, error) {
	s, err := openStore(app)
	if err != nil {
		return nil, s, err
	}
	db, err := s.Load(ctxOf(cmd))
	if err != nil {
		return nil, s, fmt.Errorf("load workspace %s: %w", s.Dir, err)
	}
	return db, s, nil
}

func loadCatalog(app *App) (*catalog.Catalog, error) {
	s, err := openStore(app)
	if err != nil {
		return nil, err
	}
	return catalog.Load(s.Dir)
}

func currentActorID(app *App, db *store.DB) (string, error) {
	if app.ActorID != "" {
		return app.ActorID, nil
	}
	if db.CurrentActorID != "" {
		return db.CurrentActorID, nil
	}
	return "", errors.New("no current actor; run `iml identity create --name ... --use` or `iml identity use <actor-id>` (or pass --actor)")
}

// requireActor resolves the current actor and checks it exists.
func requireActor(app *App, db *store.DB) (string, error) {
	id, err := currentActorID(app, db)
	if err != nil {
		return "", err
	}
	if _, ok := db.FindActor(id); !ok {
		return "", errNotFound("actor", id)
	}
	return id, nil
}

// persist saves db and records the event that explains the change.
func persist(cmd *cobra.Command, app *App, s store.Store, db *store.DB, actorID, typ, entityID string, payload any) error {
	ctx := ctxOf(cmd)
	if err := s.Save(ctx, db); err != nil {
		return err
	}
	if err := s.AppendEvent(ctx, actorID, typ, entityID, payload); err != nil {
		return err
	}
	app.log.WithFields(logrus.Fields{"type": typ, "entity": entityID, "actor": actorID}).Debug("event appended")
	return nil
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
