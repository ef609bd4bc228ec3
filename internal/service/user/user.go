package user

import (
	"context"
	"fmt"

	"github.com/nkiryanov/lockpass/internal/apperrors"
	"github.com/nkiryanov/lockpass/internal/models"
	"github.com/nkiryanov/lockpass/internal/repository"
	"github.com/nkiryanov/lockpass/internal/service/auth"
)

// Account level operations: password change and account deletion
// Both are destructive, so both re-verify the current password even though
// the caller already holds a valid access token
type UserService struct {
	hasher  auth.PasswordHasher
	storage repository.Storage
}

func NewService(hasher auth.PasswordHasher, storage repository.Storage) *UserService {
	if hasher == nil {
		hasher = auth.BcryptHasher{}
	}

	return &UserService{
		hasher:  hasher,
		storage: storage,
	}
}

// SetPassword replaces the user password and kills every active session
// Returns the number of sessions invalidated
func (s *UserService) SetPassword(ctx context.Context, user models.User, currentPassword string, newPassword string) (int64, error) {
	if err := s.hasher.Compare(user.PasswordHash, currentPassword); err != nil {
		return 0, apperrors.ErrPasswordMismatch
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return 0, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	var deleted int64
	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		if err := storage.User().UpdatePassword(ctx, user.ID, hash); err != nil {
			return err
		}

		// Tokens signed by the old hash are unverifiable already, the rows
		// are deleted so their identifiers stop matching too
		deleted, err = storage.Token().DeleteUserTokens(ctx, user.ID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("error while changing password. Err: %w", err)
	}

	return deleted, nil
}

// DeleteAccount removes the user, dependent session and password rows
// cascade in the database
func (s *UserService) DeleteAccount(ctx context.Context, user models.User, currentPassword string) error {
	if err := s.hasher.Compare(user.PasswordHash, currentPassword); err != nil {
		return apperrors.ErrPasswordMismatch
	}

	if err := s.storage.User().DeleteUser(ctx, user.ID); err != nil {
		return fmt.Errorf("error while deleting account. Err: %w", err)
	}

	return nil
}
