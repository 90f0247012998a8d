package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newTUICmd(app *App) *cobra.Command {
	var (
		planID string
		edit   bool
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive plan view",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlanTUI(cmd.Context(), app, planID, edit)
		},
	}

	cmd.Flags().StringVar(&planID, "id", "", "Term plan ID")
	cmd.Flags().BoolVar(&edit, "edit", false, "Open the term editor once the plan is shown")
	return cmd
}

// runPlanTUI runs the plan view until the user leaves. Leaving cancels
// any load still in flight.
func runPlanTUI(ctx context.Context, app *App, planID string, edit bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	m := newPlanModel(ctx, app.newSession(), planID, edit, app.Now)
	defer m.cancel()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running plan view: %w", err)
	}
	return nil
}
