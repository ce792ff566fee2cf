// Package testutil holds fixtures shared by repository and use case tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
	"github.com/fekuna/omnipos-bloodbank-service/migrations"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/database"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// NewDB returns a migrated in-memory SQLite database closed at test cleanup.
func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.Up(context.Background(), db, logger.NewNop()))
	return db
}

// InsertDonor stores an eligible donor and returns it.
func InsertDonor(t *testing.T, db *sqlx.DB, bloodType model.BloodType) *model.Donor {
	t.Helper()
	now := time.Now().UTC()
	id := uuid.New().String()
	d := &model.Donor{
		ID:                id,
		FirstName:         "Test",
		LastName:          "Donor",
		Email:             id + "@example.org",
		BloodType:         bloodType,
		EligibilityStatus: model.Eligible,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	_, err := db.NamedExec(`
        INSERT INTO donors (id, account_id, first_name, last_name, email, blood_type, last_donation, eligibility_status, created_at, updated_at)
        VALUES (:id, :account_id, :first_name, :last_name, :email, :blood_type, :last_donation, :eligibility_status, :created_at, :updated_at)
    `, d)
	require.NoError(t, err)
	return d
}

// SetUnits forces an inventory row to units, bypassing the ledger.
func SetUnits(t *testing.T, db *sqlx.DB, locationID string, bloodType model.BloodType, units int) {
	t.Helper()
	_, err := db.Exec(db.Rebind(`
        INSERT INTO inventory (id, location_id, blood_type, units_available, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (location_id, blood_type) DO UPDATE SET units_available = excluded.units_available
    `), uuid.New().String(), locationID, bloodType, units, time.Now().UTC())
	require.NoError(t, err)
}

// Units reads the current count, 0 when the row does not exist.
func Units(t *testing.T, db *sqlx.DB, locationID string, bloodType model.BloodType) int {
	t.Helper()
	var units []int
	require.NoError(t, db.Select(&units, db.Rebind(`SELECT units_available FROM inventory WHERE location_id = ? AND blood_type = ?`), locationID, bloodType))
	if len(units) == 0 {
		return 0
	}
	return units[0]
}
