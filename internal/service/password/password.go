package password

import (
	"context"

	"github.com/nkiryanov/lockpass/internal/models"
	"github.com/nkiryanov/lockpass/internal/repository"
)

// Service over the password-parameter store
// All access is scoped by the owning user, the guard has run before any of
// these are called
type PasswordService struct {
	passwordRepo repository.PasswordRepo
}

func NewService(passwordRepo repository.PasswordRepo) *PasswordService {
	return &PasswordService{passwordRepo: passwordRepo}
}

func (s *PasswordService) Create(ctx context.Context, userID int64, params models.PasswordParams) (models.Password, error) {
	return s.passwordRepo.Create(ctx, userID, params)
}

func (s *PasswordService) Get(ctx context.Context, userID int64, id int64) (models.Password, error) {
	return s.passwordRepo.Get(ctx, userID, id)
}

func (s *PasswordService) List(ctx context.Context, userID int64, search string) ([]models.Password, error) {
	return s.passwordRepo.List(ctx, userID, search)
}

func (s *PasswordService) Update(ctx context.Context, userID int64, id int64, params models.PasswordParams) (models.Password, error) {
	return s.passwordRepo.Update(ctx, userID, id, params)
}

func (s *PasswordService) Delete(ctx context.Context, userID int64, id int64) error {
	return s.passwordRepo.Delete(ctx, userID, id)
}
