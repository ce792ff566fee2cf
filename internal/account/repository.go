package account

import (
	"context"

	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
)

type Repository interface {
	// Create inserts acc unless the username is taken; created is false in that case.
	Create(ctx context.Context, acc *model.Account) (created bool, err error)
	FindByUsername(ctx context.Context, username string) (*model.Account, error)
	FindByID(ctx context.Context, id string) (*model.Account, error)
	// Delete removes the account and unlinks any donor profile that referenced it.
	Delete(ctx context.Context, id string) (deleted bool, err error)
}
