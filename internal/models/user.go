package models

import (
	"time"
)

type User struct {
	ID           int64
	CreatedAt    time.Time
	Email        string
	PasswordHash string
}

// User that passed the authorization guard
// TokenID points to the session row the bearer token was matched against
type AuthorizedUser struct {
	User
	TokenID int64
}
