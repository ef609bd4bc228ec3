package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/nkiryanov/lockpass/internal/apperrors"
	"github.com/nkiryanov/lockpass/internal/handlers/render"
	"github.com/nkiryanov/lockpass/internal/handlers/userctx"
	"github.com/nkiryanov/lockpass/internal/models"
)

type guard interface {
	// Verify the bearer token from the authorization header
	// Must run before any business logic of a protected route
	AuthenticateAccess(ctx context.Context, authorizationHeader string) (models.AuthorizedUser, error)
}

// AuthMiddleware guards protected routes
//
// A header or token the client composed wrong is a client error (400), a
// token that parses but matches no live session or fails verification is
// unauthorized (401). Anything else is a store failure, not the client's
// fault.
func AuthMiddleware(g guard, l logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := g.AuthenticateAccess(r.Context(), r.Header.Get("Authorization"))

			switch {
			case err == nil:
				ctx := userctx.New(r.Context(), user)
				next.ServeHTTP(w, r.WithContext(ctx))
			case errors.Is(err, apperrors.ErrAuthHeaderMissing):
				render.Detail(w, "Authorization header is missing", http.StatusBadRequest)
			case errors.Is(err, apperrors.ErrAuthHeaderMalformed):
				render.Detail(w, "Authorization header is malformed", http.StatusBadRequest)
			case errors.Is(err, apperrors.ErrTokenMalformed):
				render.Detail(w, "Bearer token is malformed", http.StatusBadRequest)
			case errors.Is(err, apperrors.ErrTokenNotFound),
				errors.Is(err, apperrors.ErrTokenExpired),
				errors.Is(err, apperrors.ErrTokenSignature):
				render.Detail(w, "Invalid or expired token", http.StatusUnauthorized)
			default:
				l.Error("Failed to authenticate request", "error", err)
				render.Detail(w, "Internal server error", http.StatusInternalServerError)
			}
		})
	}
}
