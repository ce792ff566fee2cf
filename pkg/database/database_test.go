package database

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresConfig_DSN(t *testing.T) {
	cfg := &PostgresConfig{
		Host:     "db",
		Port:     "5432",
		User:     "bloodbank",
		Password: "secret",
		DBName:   "ledger",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=db port=5432 user=bloodbank password=secret dbname=ledger sslmode=disable", cfg.DSN())
}

func TestNewSQLite_RebindsToQuestionMarks(t *testing.T) {
	db, err := NewSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, sqlx.QUESTION, sqlx.BindType(db.DriverName()))
	assert.Equal(t, "SELECT ? + ?", db.Rebind("SELECT ? + ?"))

	var sum int
	require.NoError(t, db.Get(&sum, db.Rebind("SELECT ? + ?"), 2, 3))
	assert.Equal(t, 5, sum)
}
