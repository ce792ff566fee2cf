package migrations

import (
	"context"
	"testing"

	"github.com/fekuna/omnipos-bloodbank-service/pkg/database"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUp_IsRepeatable(t *testing.T) {
	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, Up(ctx, db, logger.NewNop()))
	require.NoError(t, Up(ctx, db, logger.NewNop()))

	var versions []string
	require.NoError(t, db.Select(&versions, `SELECT version FROM schema_migrations ORDER BY version`))
	assert.Equal(t, []string{"0001_init", "0002_movement_batches"}, versions)

	for _, table := range []string{"accounts", "donors", "inventory", "donations", "blood_requests", "inventory_movements"} {
		var n int
		require.NoError(t, db.Get(&n, `SELECT count(*) FROM `+table), table)
	}
}

func TestSchema_RejectsNegativeInventory(t *testing.T) {
	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, Up(context.Background(), db, logger.NewNop()))

	_, err = db.Exec(`INSERT INTO inventory (id, location_id, blood_type, units_available, updated_at) VALUES ('i1', 'loc', 'O+', -1, CURRENT_TIMESTAMP)`)
	assert.Error(t, err)
}
