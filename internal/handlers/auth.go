package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nkiryanov/lockpass/internal/apperrors"
	"github.com/nkiryanov/lockpass/internal/handlers/render"
	"github.com/nkiryanov/lockpass/internal/logger"
)

func handleRegister(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}
	type response struct {
		Detail string `json:"detail"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, err := authService.Register(r.Context(), data.Email, data.Password)

		switch {
		case err == nil:
			render.JSONWithStatus(w,
				response{Detail: fmt.Sprintf("Created %s user", user.Email)},
				http.StatusCreated,
			)
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.Detail(w, "User already exists", http.StatusConflict)
		case errors.Is(err, apperrors.ErrRegistrationDisabled):
			render.Detail(w, "Registration is disabled", http.StatusForbidden)
		default:
			l.Error("Failed to register user", "error", err)
			render.Detail(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleTokenCreate(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	type response struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := authService.Login(r.Context(), data.Email, data.Password)

		switch {
		case err == nil:
			render.JSONWithStatus(w,
				response{Access: pair.Access.Value, Refresh: pair.Refresh.Value},
				http.StatusCreated,
			)
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.Detail(w, "No active account found with the given credentials", http.StatusUnauthorized)
		default:
			l.Error("Failed to login user", "error", err)
			render.Detail(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleTokenRefresh(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Refresh string `json:"refresh" validate:"required"`
	}
	type response struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := authService.Refresh(r.Context(), data.Refresh)

		switch {
		case err == nil:
			render.JSONWithStatus(w,
				response{Access: pair.Access.Value, Refresh: pair.Refresh.Value},
				http.StatusCreated,
			)
		case errors.Is(err, apperrors.ErrTokenMalformed),
			errors.Is(err, apperrors.ErrTokenNotFound),
			errors.Is(err, apperrors.ErrTokenExpired),
			errors.Is(err, apperrors.ErrTokenSignature):
			render.Detail(w, "Refresh token is invalid or expired", http.StatusUnauthorized)
		default:
			l.Error("Failed to refresh tokens", "error", err)
			render.Detail(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
