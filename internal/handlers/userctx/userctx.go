package userctx

import (
	"context"

	"github.com/nkiryanov/lockpass/internal/models"
)

type ctxKey string

const userKey ctxKey = "user"

// Create a new context with the authorized user
func New(ctx context.Context, u models.AuthorizedUser) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// Extract the authorized user from the context
func FromContext(ctx context.Context) (models.AuthorizedUser, bool) {
	u, ok := ctx.Value(userKey).(models.AuthorizedUser)
	return u, ok
}
