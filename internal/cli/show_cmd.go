package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/alexanderramin/termplan/internal/cli/formatter"
	"github.com/alexanderramin/termplan/internal/codec"
	"github.com/alexanderramin/termplan/internal/domain"
	"github.com/alexanderramin/termplan/internal/service"
	"github.com/spf13/cobra"
)

func newShowCmd(app *App) *cobra.Command {
	var (
		planID    string
		studentID string
		asJSON    bool
		plain     bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a term plan (interactive view on a terminal)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.interactive() && !asJSON && !plain {
				return runPlanTUI(cmd.Context(), app, planID, false)
			}

			ctx := cmd.Context()
			svc := app.newSession()
			snap, err := loadForCommand(ctx, app, svc, planID, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if asJSON {
				return writePlanJSON(cmd.OutOrStdout(), *snap.Plan)
			}
			return writePlanText(cmd.OutOrStdout(), app, snap, studentID)
		},
	}

	cmd.Flags().StringVar(&planID, "id", "", "Term plan ID")
	cmd.Flags().StringVar(&studentID, "student", "", "Only show this student")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the stored document as JSON")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print text even on a terminal")

	return cmd
}

func writePlanJSON(out io.Writer, plan domain.TermPlan) error {
	b, err := json.MarshalIndent(codec.ToDoc(plan), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}

func writePlanText(out io.Writer, app *App, snap service.Snapshot, studentID string) error {
	plan := *snap.Plan
	fmt.Fprint(out, formatter.FormatPlan(plan, string(snap.Source), app.now()))

	if studentID != "" {
		sp, idx := plan.Student(studentID)
		if idx < 0 {
			return fmt.Errorf("student %q: %w", studentID, domain.ErrStudentNotFound)
		}
		fmt.Fprintln(out)
		fmt.Fprint(out, formatter.FormatStudent(*sp))
	} else {
		for _, sp := range plan.Students {
			fmt.Fprintln(out)
			fmt.Fprint(out, formatter.FormatStudent(sp))
		}
	}

	if snap.Notice != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, formatter.Notice(snap.Notice))
	}
	return nil
}
