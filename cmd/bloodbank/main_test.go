package main

import (
	"path/filepath"
	"testing"

	"github.com/fekuna/omnipos-bloodbank-service/config"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePort(t *testing.T) {
	assert.Equal(t, ":8080", normalizePort("8080"))
	assert.Equal(t, ":8080", normalizePort(":8080"))
	assert.Equal(t, "127.0.0.1:8080", normalizePort("127.0.0.1:8080"))
}

func TestOpenDatabase(t *testing.T) {
	appLogger = logger.NewNop()

	db, err := openDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "bb.db")})
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	db.Close()

	_, err = openDatabase(&config.DatabaseConfig{Driver: "mysql"})
	assert.ErrorContains(t, err, "unsupported")
}

func TestMigrateCommand(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "bb.db"))

	rootCmd.SetArgs([]string{"migrate"})
	require.NoError(t, rootCmd.Execute())

	// Re-running is a no-op.
	rootCmd.SetArgs([]string{"migrate"})
	require.NoError(t, rootCmd.Execute())
}
