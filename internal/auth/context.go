package auth

import (
	"context"

	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
)

type contextKey struct{}

// UserContext is what an authenticated request carries past the middleware.
type UserContext struct {
	AccountID string
	Username  string
	Role      model.Role
}

func WithUser(ctx context.Context, u *UserContext) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

func UserFromContext(ctx context.Context) (*UserContext, bool) {
	u, ok := ctx.Value(contextKey{}).(*UserContext)
	return u, ok && u != nil
}

// GetAccountID returns the caller's account id, or "" for anonymous calls.
func GetAccountID(ctx context.Context) string {
	if u, ok := UserFromContext(ctx); ok {
		return u.AccountID
	}
	return ""
}
