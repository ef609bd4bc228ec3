package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/nkiryanov/lockpass/internal/apperrors"
	"github.com/nkiryanov/lockpass/internal/handlers/render"
	"github.com/nkiryanov/lockpass/internal/handlers/userctx"
	"github.com/nkiryanov/lockpass/internal/logger"
	"github.com/nkiryanov/lockpass/internal/models"
)

// passwordRequest is the body of create and update
//
// Older clients send the digits flag as 'numbers', current ones as
// 'digits'. Both are accepted, 'digits' wins when both present. Flags are
// pointers to tell "absent" apart from "false".
type passwordRequest struct {
	Login     string `json:"login" validate:"required"`
	Site      string `json:"site" validate:"required"`
	Uppercase *bool  `json:"uppercase"`
	Symbols   *bool  `json:"symbols"`
	Lowercase *bool  `json:"lowercase"`
	Digits    *bool  `json:"digits"`
	Numbers   *bool  `json:"numbers"`
	Counter   int32  `json:"counter" validate:"omitempty,min=1"`
	Version   int32  `json:"version" validate:"omitempty,oneof=1 2"`
	Length    int32  `json:"length" validate:"omitempty,min=5,max=35"`
}

func (req passwordRequest) toParams() models.PasswordParams {
	flag := func(v *bool, def bool) bool {
		if v == nil {
			return def
		}
		return *v
	}

	digits := req.Digits
	if digits == nil {
		digits = req.Numbers
	}

	params := models.PasswordParams{
		Login:     req.Login,
		Site:      req.Site,
		Uppercase: flag(req.Uppercase, true),
		Symbols:   flag(req.Symbols, true),
		Lowercase: flag(req.Lowercase, true),
		Digits:    flag(digits, true),
		Counter:   req.Counter,
		Version:   req.Version,
		Length:    req.Length,
	}

	if params.Counter == 0 {
		params.Counter = 1
	}
	if params.Version == 0 {
		params.Version = 2
	}
	if params.Length == 0 {
		params.Length = 16
	}

	return params
}

// Responses carry the digits flag under both names so every client
// generation keeps working
type passwordResponse struct {
	ID        int64     `json:"id"`
	Login     string    `json:"login"`
	Site      string    `json:"site"`
	Uppercase bool      `json:"uppercase"`
	Symbols   bool      `json:"symbols"`
	Lowercase bool      `json:"lowercase"`
	Digits    bool      `json:"digits"`
	Numbers   bool      `json:"numbers"`
	Counter   int32     `json:"counter"`
	Version   int32     `json:"version"`
	Length    int32     `json:"length"`
	Created   time.Time `json:"created"`
	Modified  time.Time `json:"modified"`
}

func toPasswordResponse(p models.Password) passwordResponse {
	return passwordResponse{
		ID:        p.ID,
		Login:     p.Login,
		Site:      p.Site,
		Uppercase: p.Uppercase,
		Symbols:   p.Symbols,
		Lowercase: p.Lowercase,
		Digits:    p.Digits,
		Numbers:   p.Digits,
		Counter:   p.Counter,
		Version:   p.Version,
		Length:    p.Length,
		Created:   p.CreatedAt,
		Modified:  p.ModifiedAt,
	}
}

// passwordID reads the {id} path value, responds 400 itself on garbage
func passwordID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		render.Detail(w, "Password entry id must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func handleListPasswords(passwordService passwordService, l logger.Logger) http.Handler {
	type response struct {
		Count   int                `json:"count"`
		Results []passwordResponse `json:"results"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Detail(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		passwords, err := passwordService.List(r.Context(), user.ID, r.URL.Query().Get("search"))
		if err != nil {
			l.Error("Failed to list password entries", "error", err)
			render.Detail(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		results := make([]passwordResponse, 0, len(passwords))
		for _, p := range passwords {
			results = append(results, toPasswordResponse(p))
		}

		render.JSON(w, response{Count: len(results), Results: results})
	})
}

func handleCreatePassword(passwordService passwordService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Detail(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[passwordRequest](w, r)
		if err != nil {
			return
		}

		password, err := passwordService.Create(r.Context(), user.ID, data.toParams())
		if err != nil {
			l.Error("Failed to create password entry", "error", err)
			render.Detail(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSONWithStatus(w, toPasswordResponse(password), http.StatusCreated)
	})
}

func handleGetPassword(passwordService passwordService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Detail(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		id, ok := passwordID(w, r)
		if !ok {
			return
		}

		password, err := passwordService.Get(r.Context(), user.ID, id)

		switch {
		case err == nil:
			render.JSON(w, toPasswordResponse(password))
		case errors.Is(err, apperrors.ErrPasswordEntryNotFound):
			render.Detail(w, "Password entry not found", http.StatusNotFound)
		default:
			l.Error("Failed to get password entry", "error", err)
			render.Detail(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleUpdatePassword(passwordService passwordService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Detail(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		id, ok := passwordID(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[passwordRequest](w, r)
		if err != nil {
			return
		}

		password, err := passwordService.Update(r.Context(), user.ID, id, data.toParams())

		switch {
		case err == nil:
			render.JSON(w, toPasswordResponse(password))
		case errors.Is(err, apperrors.ErrPasswordEntryNotFound):
			render.Detail(w, "Password entry not found", http.StatusNotFound)
		default:
			l.Error("Failed to update password entry", "error", err)
			render.Detail(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleDeletePassword(passwordService passwordService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Detail(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		id, ok := passwordID(w, r)
		if !ok {
			return
		}

		err := passwordService.Delete(r.Context(), user.ID, id)

		switch {
		case err == nil:
			render.Detail(w, "Deleted password entry", http.StatusOK)
		case errors.Is(err, apperrors.ErrPasswordEntryNotFound):
			render.Detail(w, "Password entry not found", http.StatusNotFound)
		default:
			l.Error("Failed to delete password entry", "error", err)
			render.Detail(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
