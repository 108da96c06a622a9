package services

import (
	"farmmarket/internal/models"
	"farmmarket/internal/repositories"
)

// UserService exposes user reads for the admin API.
type UserService struct {
	repo repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(repo repositories.UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

// ListUsers returns a page of users, optionally filtered by role, with
// password hashes stripped.
func (s *UserService) ListUsers(role string, offset, limit int) ([]models.User, int64, error) {
	users, total, err := s.repo.List(role, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	for i := range users {
		users[i].Password = ""
	}
	return users, total, nil
}
