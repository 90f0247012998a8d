package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/termplan/internal/cache"
	"github.com/alexanderramin/termplan/internal/config"
	"github.com/alexanderramin/termplan/internal/service"
	"github.com/spf13/cobra"
)

// PlanCache is the local cache as the CLI sees it: the session port plus
// the listing and eviction used by `cache`.
type PlanCache interface {
	service.PlanCache
	List(ctx context.Context) []cache.Entry
	Forget(ctx context.Context, planID string) bool
}

// Identity resolves the acting user and can persist a fallback id.
type Identity interface {
	service.IdentityResolver
	Remember(ctx context.Context, id string) error
}

// App holds the collaborators used by CLI commands.
type App struct {
	Cache    PlanCache
	Remote   service.PlanRemote
	Identity Identity
	Observer service.UseCaseObserver
	Options  service.PlanServiceOptions
	Config   config.Config

	// Bootstrap wires the fields above from the loaded configuration. It
	// runs before every command; tests leave it nil and pre-wire the App.
	Bootstrap func(cmd *cobra.Command, cfg config.Config, app *App) error

	// Serve runs the dashboard backend until ctx is done.
	Serve func(ctx context.Context, cfg config.Config) error

	// IsInteractive reports whether stdin is a terminal.
	IsInteractive func() bool

	Now func() time.Time
}

func (a *App) newSession() *service.PlanService {
	return service.NewPlanService(a.Cache, a.Remote, a.Identity, a.Options, a.Observer)
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// NewRootCmd creates the top-level "termplan" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "termplan",
		Short:         "Homeschool term plans, cached locally and synced to the dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Bootstrap == nil {
				return nil
			}
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := app.Bootstrap(cmd, cfg, app); err != nil {
				return fmt.Errorf("starting termplan: %w", err)
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (default ./termplan.yaml or ~/.termplan/termplan.yaml)")
	pf.String("db", "", "Local database path")
	pf.String("backend-url", "", "Dashboard base URL")
	pf.String("token", "", "Dashboard bearer token")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("log-file", "", "Also write JSON logs to this file")

	root.AddCommand(
		newShowCmd(app),
		newTUICmd(app),
		newAssignCmd(app),
		newGoalsCmd(app),
		newTermCmd(app),
		newScheduleCmd(app),
		newSubjectsCmd(app),
		newActivitiesCmd(app),
		newSaveCmd(app),
		newCacheCmd(app),
		newWhoamiCmd(app),
		newServeCmd(app),
		newTokenCmd(app),
	)

	return root
}
