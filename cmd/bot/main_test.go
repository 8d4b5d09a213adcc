package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"carcamalbot/internal/config"
	"carcamalbot/internal/domain"
	"carcamalbot/internal/handler"
	"carcamalbot/internal/repository/file"
	"carcamalbot/internal/repository/sqlite"
	"carcamalbot/internal/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCleanupInterval(t *testing.T) {
	assert.Equal(t, time.Minute, cleanupInterval(10*time.Second))
	assert.Equal(t, 15*time.Minute, cleanupInterval(30*time.Minute))
}

func TestMenuCommands(t *testing.T) {
	reg := handler.NewRegistry()
	noop := func(context.Context, domain.Message) error { return nil }
	require.NoError(t, reg.Command("b").Describe("second").Handle(noop))
	require.NoError(t, reg.Command("a").Describe("first").Handle(noop))

	assert.Equal(t, []telegram.Command{
		{Name: "a", Description: "first"},
		{Name: "b", Description: "second"},
	}, menuCommands(reg))
}

func TestOpenSessionRepository(t *testing.T) {
	dir := t.TempDir()

	repo, closeFn, err := openSessionRepository(&config.Config{
		SessionBackend: config.BackendFile,
		SessionDir:     filepath.Join(dir, "sessions"),
	}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &file.SessionRepo{}, repo)
	closeFn()

	repo, closeFn, err = openSessionRepository(&config.Config{
		SessionBackend: config.BackendSQLite,
		SQLitePath:     filepath.Join(dir, "sessions.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &sqlite.SessionRepo{}, repo)
	closeFn()
}
