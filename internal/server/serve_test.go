package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alexanderramin/termplan/internal/config"
	"github.com/alexanderramin/termplan/internal/repository"
	"github.com/alexanderramin/termplan/internal/testutil"
)

func TestOpenStore_SQLite(t *testing.T) {
	conn := testutil.NewTestDB(t)
	repo, closeStore, err := OpenStore(context.Background(), config.StoreConfig{Driver: "sqlite"}, conn, zap.NewNop())
	require.NoError(t, err)
	defer closeStore()

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOpenStore_Errors(t *testing.T) {
	_, _, err := OpenStore(context.Background(), config.StoreConfig{Driver: "sqlite"}, nil, zap.NewNop())
	assert.Error(t, err)

	_, _, err = OpenStore(context.Background(), config.StoreConfig{Driver: "dynamo"}, nil, zap.NewNop())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestServe_StopsWithContext(t *testing.T) {
	cfg := config.Config{
		Server: config.ServerConfig{Address: "127.0.0.1:0", JWTSecret: testSecret},
		Store:  config.StoreConfig{Driver: "sqlite"},
		Log:    config.LogConfig{Level: "debug"},
	}
	conn := testutil.NewTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, cfg, conn, zap.NewNop()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServe_RequiresSecret(t *testing.T) {
	cfg := config.Config{
		Server: config.ServerConfig{Address: "127.0.0.1:0"},
		Store:  config.StoreConfig{Driver: "sqlite"},
		Log:    config.LogConfig{Level: "debug"},
	}
	err := Serve(context.Background(), cfg, testutil.NewTestDB(t), zap.NewNop())
	assert.Error(t, err)
}
