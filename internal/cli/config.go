package cli

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"iml-cli/internal/editor"
	"iml-cli/internal/format"
	"iml-cli/internal/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configKeys are the settings `iml config set` accepts.
var configKeys = map[string]bool{
	"dir":           true,
	"actor":         true,
	"format":        true,
	"pretty":        true,
	"delete-policy": true,
	"addr":          true,
	"tui.style":     true,
}

func configDir() (string, error) {
	// Keeps tests away from the real home directory.
	if v := strings.TrimSpace(os.Getenv("IML_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "iml"), nil
}

// initConfig layers flags over IML_* env vars over the config file over
// defaults, then copies the result onto app.
func initConfig(app *App) error {
	v := app.cfg
	if app.ConfigFile != "" {
		v.SetConfigFile(app.ConfigFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return err
		}
		v.AddConfigPath(dir)
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("IML")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("format", "json")
	v.SetDefault("delete-policy", string(editor.DeleteKeep))
	v.SetDefault("addr", "127.0.0.1:8080")
	v.SetDefault("tui.style", "dark")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(app.ConfigFile == "" && os.IsNotExist(err)) {
			return err
		}
	}

	app.Dir = strings.TrimSpace(v.GetString("dir"))
	app.ActorID = strings.TrimSpace(v.GetString("actor"))
	app.Format = strings.ToLower(strings.TrimSpace(v.GetString("format")))
	app.PrettyJSON = v.GetBool("pretty")
	app.Verbose = v.GetBool("verbose")
	if !format.Valid(app.Format) {
		return errors.New("invalid --format: " + app.Format + " (expected json|edn)")
	}
	p, err := editor.ParseDeletePolicy(v.GetString("delete-policy"))
	if err != nil {
		return err
	}
	app.DeletePolicy = p

	app.log = logging.New(os.Stderr, app.Verbose)
	app.log.WithField("config", v.ConfigFileUsed()).Debug("config loaded")
	return nil
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change persistent settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := make([]string, 0, len(configKeys))
			for k := range configKeys {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			out := map[string]any{}
			for _, k := range keys {
				out[k] = app.cfg.Get(k)
			}
			return writeOut(cmd, app, map[string]any{
				"data": out,
				"meta": map[string]any{"file": app.cfg.ConfigFileUsed()},
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist a setting to the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.ToLower(strings.TrimSpace(args[0]))
			if !configKeys[key] {
				return writeErr(cmd, errors.New("unknown config key: "+key))
			}
			if key == "delete-policy" {
				if _, err := editor.ParseDeletePolicy(args[1]); err != nil {
					return writeErr(cmd, err)
				}
			}
			if key == "format" && !format.Valid(args[1]) {
				return writeErr(cmd, errors.New("invalid format: "+args[1]))
			}

			path := app.cfg.ConfigFileUsed()
			if path == "" {
				dir, err := configDir()
				if err != nil {
					return writeErr(cmd, err)
				}
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return writeErr(cmd, err)
				}
				path = filepath.Join(dir, "config.yaml")
			}

			// Write through a fresh instance so flag and env values are not persisted.
			file := viper.New()
			file.SetConfigFile(path)
			if _, err := os.Stat(path); err == nil {
				if err := file.ReadInConfig(); err != nil {
					return writeErr(cmd, err)
				}
			}
			file.Set(key, args[1])
			if err := file.WriteConfigAs(path); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"key": key, "value": args[1], "file": path}})
		},
	})
	return cmd
}
