package handlers

import (
	"context"
	"net/http"

	"github.com/nkiryanov/lockpass/internal/handlers/middleware"
	"github.com/nkiryanov/lockpass/internal/logger"
	"github.com/nkiryanov/lockpass/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	userService userService,
	passwordService passwordService,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authService, logger)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}

	mux := http.NewServeMux()

	mux.Handle("POST /auth/users", handleRegister(authService, logger))
	mux.Handle("GET /auth/users/me", withAuth(handleUserMe()))
	mux.Handle("DELETE /auth/users/me", withAuth(handleDeleteAccount(userService, logger)))
	mux.Handle("POST /auth/users/set_password", withAuth(handleSetPassword(userService, logger)))
	mux.Handle("POST /auth/jwt/create", handleTokenCreate(authService, logger))
	mux.Handle("POST /auth/jwt/refresh", handleTokenRefresh(authService, logger))

	mux.Handle("GET /passwords", withAuth(handleListPasswords(passwordService, logger)))
	mux.Handle("POST /passwords", withAuth(handleCreatePassword(passwordService, logger)))
	mux.Handle("GET /passwords/{id}", withAuth(handleGetPassword(passwordService, logger)))
	mux.Handle("PUT /passwords/{id}", withAuth(handleUpdatePassword(passwordService, logger)))
	mux.Handle("DELETE /passwords/{id}", withAuth(handleDeletePassword(passwordService, logger)))

	// CORS preflight, every route answers 204 without auth
	for _, path := range []string{
		"/auth/users",
		"/auth/users/me",
		"/auth/users/set_password",
		"/auth/jwt/create",
		"/auth/jwt/refresh",
		"/passwords",
		"/passwords/{id}",
	} {
		mux.Handle("OPTIONS "+path, handlePreflight())
	}

	handler := chain(mux,
		middleware.LoggerMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	return handler
}

func handlePreflight() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

type authService interface {
	// Register user with email and password
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	// and apperrors.ErrRegistrationDisabled if registration is switched off
	Register(ctx context.Context, email string, password string) (models.User, error)

	// Login user with email and password
	// Has to return apperrors.ErrUserNotFound on bad credentials
	Login(ctx context.Context, email string, password string) (models.TokenPair, error)

	// Exchange valid refresh token for a new pair, rotating the session
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Authorization guard, used by middleware on protected routes
	AuthenticateAccess(ctx context.Context, authorizationHeader string) (models.AuthorizedUser, error)
}

type userService interface {
	// Replace password and invalidate every session, returns count of killed sessions
	// Has to return apperrors.ErrPasswordMismatch if current password is wrong
	SetPassword(ctx context.Context, user models.User, currentPassword string, newPassword string) (int64, error)

	// Delete account with dependent rows
	// Has to return apperrors.ErrPasswordMismatch if current password is wrong
	DeleteAccount(ctx context.Context, user models.User, currentPassword string) error
}

type passwordService interface {
	Create(ctx context.Context, userID int64, params models.PasswordParams) (models.Password, error)
	Get(ctx context.Context, userID int64, id int64) (models.Password, error)
	List(ctx context.Context, userID int64, search string) ([]models.Password, error)
	Update(ctx context.Context, userID int64, id int64, params models.PasswordParams) (models.Password, error)
	Delete(ctx context.Context, userID int64, id int64) error
}
