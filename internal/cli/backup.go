package cli

import (
	"iml-cli/internal/store"

	"github.com/spf13/cobra"
)

func newBackupCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore a whole workspace",
	}

	var out string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write state and event log to a JSON snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			snap, err := s.ExportSnapshot(ctxOf(cmd))
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := store.WriteSnapshot(out, snap); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"file":     out,
				"projects": len(snap.State.Projects),
				"lists":    len(snap.State.Lists),
				"events":   len(snap.Events),
			}})
		},
	}
	exportCmd.Flags().StringVar(&out, "out", "", "Snapshot file to write")
	_ = exportCmd.MarkFlagRequired("out")

	var in string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Replace this workspace with a JSON snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			snap, err := store.ReadSnapshot(in)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.RestoreSnapshot(ctxOf(cmd), snap); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"dir":    s.Dir,
				"lists":  len(snap.State.Lists),
				"events": len(snap.Events),
			}})
		},
	}
	importCmd.Flags().StringVar(&in, "in", "", "Snapshot file to read")
	_ = importCmd.MarkFlagRequired("in")

	var eventsOut string
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Write the event log as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			evs, err := s.ReadEvents(ctxOf(cmd), 0)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := store.WriteEventsJSONL(eventsOut, evs); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"file": eventsOut, "events": len(evs)}})
		},
	}
	eventsCmd.Flags().StringVar(&eventsOut, "out", "", "JSONL file to write")
	_ = eventsCmd.MarkFlagRequired("out")

	var eventsIn string
	restoreEventsCmd := &cobra.Command{
		Use:   "restore-events",
		Short: "Replace the event log with a JSON lines file",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			evs, err := store.ReadEventsJSONL(eventsIn)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.ReplaceEvents(ctxOf(cmd), evs); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"file": eventsIn, "events": len(evs)}})
		},
	}
	restoreEventsCmd.Flags().StringVar(&eventsIn, "in", "", "JSONL file to read")
	_ = restoreEventsCmd.MarkFlagRequired("in")

	cmd.AddCommand(exportCmd, importCmd, eventsCmd, restoreEventsCmd)
	return cmd
}
