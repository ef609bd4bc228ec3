package models

import (
	"time"
)

// Password generation parameters for one site
// The actual password is never stored, clients derive it on their side
type Password struct {
	ID         int64
	UserID     int64
	Login      string
	Site       string
	Uppercase  bool
	Symbols    bool
	Lowercase  bool
	Digits     bool
	Counter    int32
	Version    int32
	Length     int32
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Fields the user controls on create or update
type PasswordParams struct {
	Login     string
	Site      string
	Uppercase bool
	Symbols   bool
	Lowercase bool
	Digits    bool
	Counter   int32
	Version   int32
	Length    int32
}
