package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-bloodbank-service/internal/account"
	"github.com/fekuna/omnipos-bloodbank-service/internal/account/dto"
	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt only hashes the first 72 bytes of its input.
const maxPasswordBytes = 72

type accountUseCase struct {
	repo   account.Repository
	cost   int
	logger logger.ZapLogger

	// Compared against when the username is unknown so that a miss costs the
	// same bcrypt work as a wrong password.
	dummyHash []byte
}

func NewAccountUseCase(repo account.Repository, bcryptCost int, log logger.ZapLogger) (account.UseCase, error) {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &accountUseCase{
		repo:      repo,
		cost:      bcryptCost,
		logger:    log,
		dummyHash: dummy,
	}, nil
}

func (uc *accountUseCase) Register(ctx context.Context, input *dto.RegisterInput) (string, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return "", fmt.Errorf("%w: username and password are required", model.ErrValidation)
	}
	if len(input.Password) > maxPasswordBytes {
		return "", fmt.Errorf("%w: password must be at most %d bytes", model.ErrValidation, maxPasswordBytes)
	}
	if !input.Role.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", model.ErrValidation, input.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), uc.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	acc := &model.Account{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         input.Role,
		CreatedAt:    time.Now().UTC(),
	}

	created, err := uc.repo.Create(ctx, acc)
	if err != nil {
		return "", err
	}
	if !created {
		return "", model.ErrDuplicateUsername
	}

	uc.logger.Info("Account registered", zap.String("account_id", acc.ID), zap.String("role", string(acc.Role)))
	return acc.ID, nil
}

func (uc *accountUseCase) Login(ctx context.Context, input *dto.LoginInput) (*model.Account, error) {
	acc, err := uc.repo.FindByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		return nil, err
	}

	hash := uc.dummyHash
	if acc != nil {
		hash = []byte(acc.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(input.Password)); err != nil || acc == nil {
		return nil, model.ErrInvalidCredentials
	}
	return acc, nil
}

func (uc *accountUseCase) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	acc, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, fmt.Errorf("account %w", model.ErrNotFound)
	}
	return acc, nil
}

// DeleteAccount removes an account on behalf of actorID, who may not delete
// their own account.
func (uc *accountUseCase) DeleteAccount(ctx context.Context, id, actorID string) error {
	if id == actorID {
		return fmt.Errorf("%w: an account cannot delete itself", model.ErrValidation)
	}
	deleted, err := uc.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("account %w", model.ErrNotFound)
	}
	uc.logger.Info("Account deleted", zap.String("account_id", id), zap.String("deleted_by", actorID))
	return nil
}
