package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/termplan/internal/cli/formatter"
	"github.com/alexanderramin/termplan/internal/service"
	"github.com/spf13/cobra"
)

func newWhoamiCmd(app *App) *cobra.Command {
	var remember string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the user plans are loaded for",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if id := strings.TrimSpace(remember); id != "" {
				if err := app.Identity.Remember(ctx, id); err != nil {
					return fmt.Errorf("remembering user: %w", err)
				}
				fmt.Fprintln(out, formatter.Success("Remembered user "+id))
				return nil
			}

			id, ok := app.Identity.Resolve(ctx)
			if !ok {
				return errors.New(service.MsgNoIdentity)
			}
			fmt.Fprintln(out, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&remember, "remember", "", "Store a fallback user ID on this device")
	return cmd
}
