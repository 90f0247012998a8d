package cli

import (
	"fmt"

	"github.com/alexanderramin/termplan/internal/cli/formatter"
	"github.com/alexanderramin/termplan/internal/service"
	"github.com/spf13/cobra"
)

func newSaveCmd(app *App) *cobra.Command {
	var planID string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save the local copy of a plan to the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			svc := app.newSession()
			snap, err := loadForCommand(ctx, app, svc, planID, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if snap.Notice != "" {
				fmt.Fprintln(out, formatter.Notice(snap.Notice))
			}

			stored, err := svc.SaveToDashboard(ctx)
			if err != nil {
				fmt.Fprintln(out, formatter.ErrorLine(service.NoticeSaveFailed))
				return err
			}
			fmt.Fprintln(out, formatter.Success(fmt.Sprintf("%s (v%d)", service.NoticeSaved, stored.Version)))
			return nil
		},
	}

	cmd.Flags().StringVar(&planID, "id", "", "Term plan ID")
	return cmd
}
