package models

import (
	"time"

	"github.com/google/uuid"
)

// Session row: one per active session, a user may hold many
// Access and refresh hold session identifiers, not the signed tokens
type Token struct {
	ID         int64
	UserID     int64
	Access     uuid.UUID
	Refresh    uuid.UUID
	CreatedAt  time.Time
	ModifiedAt time.Time
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair returned to the user on login or refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
