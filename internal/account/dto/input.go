package dto

import "github.com/fekuna/omnipos-bloodbank-service/internal/model"

type RegisterInput struct {
	Username string
	Password string
	Role     model.Role
}

type LoginInput struct {
	Username string
	Password string
}
