package account

import (
	"context"

	"github.com/fekuna/omnipos-bloodbank-service/internal/account/dto"
	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
)

// UseCase is the Authenticator.
type UseCase interface {
	Register(ctx context.Context, input *dto.RegisterInput) (string, error)
	Login(ctx context.Context, input *dto.LoginInput) (*model.Account, error)
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	DeleteAccount(ctx context.Context, id, actorID string) error
}
