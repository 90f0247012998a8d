package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/termplan/internal/auth"
	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference dashboard backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Serve == nil {
				return errors.New("serve is not available in this build")
			}
			return app.Serve(cmd.Context(), app.Config)
		},
	}

	// Bound to server.address and store.driver by config.Load.
	cmd.Flags().String("addr", "", "Listen address (default :8080)")
	cmd.Flags().String("store", "", "Backend store: sqlite or mongo")
	return cmd
}

func newTokenCmd(app *App) *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a dashboard token for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(userID) == "" {
				return errors.New("--user is required")
			}
			if ttl <= 0 {
				ttl = app.Config.Server.TokenTTL
			}
			tok, err := auth.IssueToken(app.Config.Server.JWTSecret, userID, ttl)
			if err != nil {
				return fmt.Errorf("issuing token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID to embed")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default server.token_ttl)")
	return cmd
}
