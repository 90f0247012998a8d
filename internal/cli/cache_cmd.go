package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/alexanderramin/termplan/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newCacheCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the local plan cache",
	}
	cmd.AddCommand(newCacheListCmd(app), newCacheClearCmd(app))
	return cmd
}

func newCacheListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := app.Cache.List(cmd.Context())
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, formatter.Dim("No cached plans."))
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				if !e.Valid {
					rows = append(rows, []string{e.PlanID, formatter.StyleRed.Render("unreadable"), "", "", ""})
					continue
				}
				updated := formatter.Dim("—")
				if !e.Plan.UpdatedAt.IsZero() {
					updated = formatter.RelativeDateFrom(e.Plan.UpdatedAt, app.now())
				}
				rows = append(rows, []string{
					e.PlanID,
					formatter.TermTitle(e.Plan),
					strconv.FormatInt(e.Plan.Version, 10),
					strconv.Itoa(len(e.Plan.Students)),
					updated,
				})
			}
			fmt.Fprint(out, formatter.RenderTable([]string{"ID", "TERM", "VERSION", "STUDENTS", "UPDATED"}, rows))
			return nil
		},
	}
}

func newCacheClearCmd(app *App) *cobra.Command {
	var (
		planID string
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			switch {
			case all:
				n := 0
				for _, e := range app.Cache.List(ctx) {
					if app.Cache.Forget(ctx, e.PlanID) {
						n++
					}
				}
				fmt.Fprintln(out, formatter.Success(fmt.Sprintf("Removed %d cached plan(s)", n)))
			case planID != "":
				if !app.Cache.Forget(ctx, planID) {
					return fmt.Errorf("plan %s is not cached", planID)
				}
				fmt.Fprintln(out, formatter.Success("Removed cached plan "+planID))
			default:
				return errors.New("pass --id or --all")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&planID, "id", "", "Term plan ID")
	cmd.Flags().BoolVar(&all, "all", false, "Remove every cached plan")
	return cmd
}
