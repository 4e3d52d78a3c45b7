package cli

import (
	"errors"

	"iml-cli/internal/store"

	"github.com/spf13/cobra"
)

var errDoctorIssuesFound = errors.New("doctor: issues found")

func newDoctorCmd(app *App) *cobra.Command {
	var fail, fix bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check lists for orphaned children, stale line numbers and dangling ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}

			fixed := 0
			if fix {
				if fixed = store.DoctorFix(db); fixed > 0 {
					if err := s.Save(ctxOf(cmd), db); err != nil {
						return writeErr(cmd, err)
					}
				}
			}
			report := store.Doctor(db)

			if err := writeOut(cmd, app, map[string]any{
				"data": report,
				"meta": map[string]any{
					"issues":    len(report.Issues),
					"hasErrors": report.HasErrors(),
					"fixed":     fixed,
				},
			}); err != nil {
				return err
			}
			if fail && report.HasErrors() {
				return errDoctorIssuesFound
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fail, "fail", false, "Exit with non-zero status if errors are found")
	cmd.Flags().BoolVar(&fix, "fix", false, "Renumber stale line numbers before checking")
	return cmd
}
