// Package server is a reference dashboard backend serving the term_plans
// API the CLI syncs against.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alexanderramin/termplan/internal/repository"
)

// Deps are the collaborators of the router.
type Deps struct {
	Repo      repository.TermPlanRepo
	JWTSecret string
	Metrics   *Metrics
	Logger    *zap.Logger
}

// NewRouter wires routes and middleware.
func NewRouter(d Deps) (*gin.Engine, error) {
	if d.JWTSecret == "" {
		return nil, errors.New("server: jwt secret is required")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		m, err := NewMetrics()
		if err != nil {
			return nil, fmt.Errorf("creating metrics: %w", err)
		}
		d.Metrics = m
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(d.Logger.Named("http")), d.Metrics.Middleware())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", d.Metrics.Handler())

	h := &termPlanHandler{repo: d.Repo, log: d.Logger.Named("termplans")}
	protected := router.Group("/api/v1")
	protected.Use(AuthMiddleware(d.JWTSecret))
	{
		protected.GET("/me", h.me)
		protected.GET("/term-plans", h.list)
		protected.POST("/term-plans", h.create)
		protected.GET("/term-plans/:id", h.get)
		protected.PUT("/term-plans/:id", h.put)
	}
	return router, nil
}

// Run serves handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("dashboard listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info("shutting down dashboard")
		return srv.Shutdown(shutdownCtx)
	}
}
