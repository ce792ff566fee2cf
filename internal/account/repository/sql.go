package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type SQLRepository struct {
	DB *sqlx.DB
}

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{DB: db}
}

func (r *SQLRepository) Create(ctx context.Context, acc *model.Account) (bool, error) {
	query := `
        INSERT INTO accounts (id, username, password_hash, role, created_at)
        VALUES (:id, :username, :password_hash, :role, :created_at)
        ON CONFLICT (username) DO NOTHING
    `
	res, err := r.DB.NamedExecContext(ctx, query, acc)
	if err != nil {
		return false, model.NewStorageError("create account", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, model.NewStorageError("create account", err)
	}
	return n == 1, nil
}

func (r *SQLRepository) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	return r.findOne(ctx, "find account by username", `SELECT * FROM accounts WHERE username = ?`, username)
}

func (r *SQLRepository) FindByID(ctx context.Context, id string) (*model.Account, error) {
	return r.findOne(ctx, "find account by id", `SELECT * FROM accounts WHERE id = ?`, id)
}

func (r *SQLRepository) Delete(ctx context.Context, id string) (bool, error) {
	const op = "delete account"

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, model.NewStorageError(op, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.DB.Rebind(`UPDATE donors SET account_id = NULL WHERE account_id = ?`), id); err != nil {
		return false, model.NewStorageError(op, fmt.Errorf("unlink donor: %w", err))
	}
	res, err := tx.ExecContext(ctx, r.DB.Rebind(`DELETE FROM accounts WHERE id = ?`), id)
	if err != nil {
		return false, model.NewStorageError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, model.NewStorageError(op, err)
	}

	if err := tx.Commit(); err != nil {
		return false, model.NewStorageError(op, err)
	}
	return n == 1, nil
}

func (r *SQLRepository) findOne(ctx context.Context, op, query string, arg interface{}) (*model.Account, error) {
	var acc model.Account
	err := r.DB.GetContext(ctx, &acc, r.DB.Rebind(query), arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, model.NewStorageError(op, err)
	}
	return &acc, nil
}
