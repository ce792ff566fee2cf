package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
	"github.com/fekuna/omnipos-bloodbank-service/internal/testutil"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccount(id, username string) *model.Account {
	return &model.Account{
		ID:           id,
		Username:     username,
		PasswordHash: "$2a$04$hash",
		Role:         model.RoleDonor,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestCreate_UniqueUsername(t *testing.T) {
	repo := NewSQLRepository(testutil.NewDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, newAccount("a1", "bob"))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Create(ctx, newAccount("a2", "bob"))
	require.NoError(t, err)
	assert.False(t, created)

	acc, err := repo.FindByUsername(ctx, "bob")
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, "a1", acc.ID)
	assert.Equal(t, model.RoleDonor, acc.Role)
}

func TestFind_Missing(t *testing.T) {
	repo := NewSQLRepository(testutil.NewDB(t))

	acc, err := repo.FindByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, acc)

	acc, err = repo.FindByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, acc)
}

func TestCreate_StorageError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewSQLRepository(sqlx.NewDb(mockDB, "postgres"))
	mock.ExpectExec(`INSERT INTO accounts`).WillReturnError(errors.New("connection refused"))

	_, err = repo.Create(context.Background(), newAccount("a1", "bob"))
	assert.True(t, model.IsStorageError(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_UnlinksDonor(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSQLRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, newAccount("a1", "dan"))
	require.NoError(t, err)
	donor := testutil.InsertDonor(t, db, model.BloodTypeOPos)
	_, err = db.Exec(db.Rebind(`UPDATE donors SET account_id = ? WHERE id = ?`), "a1", donor.ID)
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, deleted)

	acc, err := repo.FindByID(ctx, "a1")
	require.NoError(t, err)
	assert.Nil(t, acc)

	var linked []string
	require.NoError(t, db.Select(&linked, `SELECT account_id FROM donors WHERE account_id IS NOT NULL`))
	assert.Empty(t, linked)

	deleted, err = repo.Delete(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDelete_RollsBackOnFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewSQLRepository(sqlx.NewDb(mockDB, "postgres"))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE donors SET account_id = NULL`).WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM accounts`).WithArgs("a1").WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	_, err = repo.Delete(context.Background(), "a1")
	assert.True(t, model.IsStorageError(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
