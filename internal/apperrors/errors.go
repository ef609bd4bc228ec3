package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrRegistrationDisabled = errors.New("registration is disabled")
	ErrPasswordMismatch     = errors.New("password does not match")

	ErrAuthHeaderMissing   = errors.New("authorization header is missing")
	ErrAuthHeaderMalformed = errors.New("authorization header is malformed")

	ErrTokenNotFound  = errors.New("token not found")
	ErrTokenExpired   = errors.New("token is expired")
	ErrTokenSignature = errors.New("token signature is invalid")
	ErrTokenMalformed = errors.New("token is malformed")

	ErrPasswordEntryNotFound = errors.New("password entry not found")
)
