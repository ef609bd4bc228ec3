package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nkiryanov/lockpass/internal/apperrors"
	"github.com/nkiryanov/lockpass/internal/handlers/render"
	"github.com/nkiryanov/lockpass/internal/handlers/userctx"
	"github.com/nkiryanov/lockpass/internal/logger"
)

func handleUserMe() http.Handler {
	type response struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())
		render.JSON(w, response{ID: user.ID, Email: user.Email})
	})
}

func handleSetPassword(userService userService, l logger.Logger) http.Handler {
	type request struct {
		CurrentPassword string `json:"current_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required,min=8"`
	}
	type response struct {
		Detail          string `json:"detail"`
		DeletedSessions int64  `json:"deleted_sessions"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Detail(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		deleted, err := userService.SetPassword(r.Context(), user.User, data.CurrentPassword, data.NewPassword)

		switch {
		case err == nil:
			render.JSON(w, response{
				Detail:          fmt.Sprintf("Password changed, %d sessions closed", deleted),
				DeletedSessions: deleted,
			})
		case errors.Is(err, apperrors.ErrPasswordMismatch):
			render.Detail(w, "Current password does not match", http.StatusForbidden)
		default:
			l.Error("Failed to change password", "error", err)
			render.Detail(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleDeleteAccount(userService userService, l logger.Logger) http.Handler {
	type request struct {
		CurrentPassword string `json:"current_password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Detail(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = userService.DeleteAccount(r.Context(), user.User, data.CurrentPassword)

		switch {
		case err == nil:
			render.Detail(w, fmt.Sprintf("Deleted %s user", user.Email), http.StatusOK)
		case errors.Is(err, apperrors.ErrPasswordMismatch):
			render.Detail(w, "Current password does not match", http.StatusForbidden)
		default:
			l.Error("Failed to delete account", "error", err)
			render.Detail(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
