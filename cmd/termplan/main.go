package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alexanderramin/termplan/internal/cache"
	"github.com/alexanderramin/termplan/internal/cli"
	"github.com/alexanderramin/termplan/internal/config"
	"github.com/alexanderramin/termplan/internal/db"
	"github.com/alexanderramin/termplan/internal/identity"
	"github.com/alexanderramin/termplan/internal/logger"
	"github.com/alexanderramin/termplan/internal/remote"
	"github.com/alexanderramin/termplan/internal/repository"
	"github.com/alexanderramin/termplan/internal/server"
	"github.com/alexanderramin/termplan/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resources are opened by bootstrap and released once the command returns.
type resources struct {
	conn        *sql.DB
	log         *zap.Logger
	registry    *prometheus.Registry
	metricsFile string
}

func (r *resources) close() {
	if r.registry != nil && r.metricsFile != "" {
		if err := prometheus.WriteToTextfile(r.metricsFile, r.registry); err != nil && r.log != nil {
			r.log.Warn("writing metrics textfile", zap.String("path", r.metricsFile), zap.Error(err))
		}
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
	if r.log != nil {
		_ = r.log.Sync()
	}
}

func run(ctx context.Context) error {
	res := &resources{}
	defer res.close()

	app := &cli.App{
		IsInteractive: func() bool {
			fd := os.Stdin.Fd()
			return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		},
	}
	app.Bootstrap = func(cmd *cobra.Command, cfg config.Config, app *cli.App) error {
		return bootstrap(cmd, cfg, app, res)
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

func bootstrap(cmd *cobra.Command, cfg config.Config, app *cli.App, res *resources) error {
	// Only the server logs to the console; everything else keeps stderr for
	// errors so the TUI and plain output stay readable.
	log, err := logger.New(cfg.Log, cmd.Name() != "serve")
	if err != nil {
		return err
	}
	res.log = log

	conn, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	res.conn = conn

	res.registry = prometheus.NewRegistry()
	res.metricsFile = cfg.Metrics.TextFile
	metricsObs, err := remote.NewMetricsObserver(res.registry)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	kv := repository.NewSQLiteKVRepo(conn)
	local := cache.NewLocal(kv, log)
	client := remote.NewClient(remote.ConfigFrom(cfg.Remote), remote.Observers{remote.NewZapObserver(log), metricsObs})
	fetcher := remote.NewFetcher(client, local, log)

	token := cfg.Auth.SessionToken
	if token == "" {
		token = cfg.Remote.Token
	}

	app.Cache = local
	app.Remote = fetcher
	app.Identity = identity.NewResolver(kv, log, identity.DefaultSources(token, fetcher, kv)...)
	app.Observer = service.NewZapUseCaseObserver(log)
	app.Options = service.PlanServiceOptions{
		OverallTimeout: cfg.Remote.OverallTimeout,
		Logger:         log,
	}
	app.Config = cfg
	app.Serve = func(ctx context.Context, cfg config.Config) error {
		return server.Serve(ctx, cfg, conn, log)
	}

	log.Debug("bootstrapped",
		zap.String("command", cmd.Name()),
		zap.String("db", cfg.DBPath),
		zap.String("backend", cfg.Remote.BaseURL))
	return nil
}
