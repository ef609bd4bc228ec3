package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/lockpass/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with email exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, email string, passwordHash string) (models.User, error)

	// Get user by it's id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID int64) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Replace user password hash
	// If user not found must return apperrors.ErrUserNotFound
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error

	// Delete user and all dependent rows (tokens, passwords cascade in db)
	DeleteUser(ctx context.Context, userID int64) error
}

// Session token repository interface
type TokenRepo interface {
	// Create session row with both session identifiers
	Create(ctx context.Context, userID int64, access uuid.UUID, refresh uuid.UUID) (models.Token, error)

	// Find session row by one of it's identifiers
	// If no row matches must return apperrors.ErrTokenNotFound
	GetByAccess(ctx context.Context, access uuid.UUID) (models.Token, error)
	GetByRefresh(ctx context.Context, refresh uuid.UUID) (models.Token, error)

	// Replace both identifiers in place and bump modified_at
	// Matches the row by id AND the refresh identifier it is replacing, so
	// of two concurrent rotations exactly one wins
	// If no row matches must return apperrors.ErrTokenNotFound
	Rotate(ctx context.Context, tokenID int64, oldRefresh uuid.UUID, access uuid.UUID, refresh uuid.UUID) (models.Token, error)

	// Delete every session row for the user, returns count of deleted rows
	DeleteUserTokens(ctx context.Context, userID int64) (int64, error)

	// Delete user session rows not touched since the cutoff
	DeleteStaleTokens(ctx context.Context, userID int64, modifiedBefore time.Time) (int64, error)
}

// Password generation parameters repository interface
// Every method is scoped by the owning user, a row of another user behaves
// as if it does not exist
type PasswordRepo interface {
	Create(ctx context.Context, userID int64, params models.PasswordParams) (models.Password, error)

	// If no row matches must return apperrors.ErrPasswordEntryNotFound
	Get(ctx context.Context, userID int64, id int64) (models.Password, error)
	Update(ctx context.Context, userID int64, id int64, params models.PasswordParams) (models.Password, error)
	Delete(ctx context.Context, userID int64, id int64) error

	// List user entries, optionally filtered by search over site and login
	List(ctx context.Context, userID int64, search string) ([]models.Password, error)
}

// Storage aggregates repositories over single connection source
type Storage interface {
	User() UserRepo
	Token() TokenRepo
	Password() PasswordRepo

	// Run fn within single db transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
