package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"ledger/internal/model"
	"ledger/internal/repo"
)

// UserService covers the directory operations outside auth: partial profile
// updates and name search.
type UserService interface {
	Update(ctx context.Context, userID int64, password, firstName, lastName *string) error
	Search(ctx context.Context, filter string) ([]model.User, error)
}

type userService struct {
	users repo.UserRepository
}

func NewUserService(users repo.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) Update(ctx context.Context, userID int64, password, firstName, lastName *string) error {
	upd := model.UserUpdate{FirstName: firstName, LastName: lastName}
	if password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		h := string(hash)
		upd.PasswordHash = &h
	}
	return s.users.Update(ctx, userID, upd)
}

func (s *userService) Search(ctx context.Context, filter string) ([]model.User, error) {
	return s.users.Search(ctx, filter)
}
