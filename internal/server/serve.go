package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alexanderramin/termplan/internal/config"
	"github.com/alexanderramin/termplan/internal/db"
	"github.com/alexanderramin/termplan/internal/repository"
	mongostore "github.com/alexanderramin/termplan/internal/repository/mongo"
)

// Serve runs the dashboard on cfg.Server.Address until ctx is done, backed
// by the store cfg.Store.Driver names. conn is used by the sqlite store.
func Serve(ctx context.Context, cfg config.Config, conn *sql.DB, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	repo, closeStore, err := OpenStore(ctx, cfg.Store, conn, log)
	if err != nil {
		return err
	}
	defer closeStore()

	metrics, err := NewMetrics()
	if err != nil {
		return fmt.Errorf("creating metrics: %w", err)
	}
	router, err := NewRouter(Deps{
		Repo:      repo,
		JWTSecret: cfg.Server.JWTSecret,
		Metrics:   metrics,
		Logger:    log,
	})
	if err != nil {
		return err
	}
	return Run(ctx, cfg.Server.Address, router, log)
}

// OpenStore returns the term plan repository for sc and a function that
// releases it.
func OpenStore(ctx context.Context, sc config.StoreConfig, conn *sql.DB, log *zap.Logger) (repository.TermPlanRepo, func(), error) {
	switch sc.Driver {
	case "mongo":
		client, err := mongostore.Connect(ctx, sc.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		repo := mongostore.NewTermPlanRepo(client.Database(sc.MongoDB))
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = mongostore.Disconnect(client)
			return nil, nil, fmt.Errorf("creating mongo indexes: %w", err)
		}
		log.Info("using mongo store", zap.String("database", sc.MongoDB))
		return repo, func() {
			if err := mongostore.Disconnect(client); err != nil {
				log.Warn("disconnecting mongo", zap.Error(err))
			}
		}, nil

	case "sqlite", "":
		if conn == nil {
			return nil, nil, fmt.Errorf("sqlite store: no database connection")
		}
		log.Info("using sqlite store")
		repo := repository.NewSQLiteTermPlanRepo(conn).WithUnitOfWork(db.NewSQLiteUnitOfWork(conn))
		return repo, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("%w: store.driver %q", config.ErrInvalidConfig, sc.Driver)
	}
}
