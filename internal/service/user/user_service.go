package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sportease/sportease/internal/domain"
	"github.com/sportease/sportease/internal/repository"
)

type UserUseCase interface {
	Upsert(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Upsert(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user.Email == "" {
		return nil, errors.New("email is required")
	}
	if user.Role == "" {
		user.Role = domain.RolePlayer
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

var _ UserUseCase = (*UserService)(nil)
