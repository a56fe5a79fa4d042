package services

import (
	"context"

	"github.com/ArowuTest/easyearning-backend/internal/models"
	"github.com/ArowuTest/easyearning-backend/internal/store"
)

// UserService handles user-related business logic
type UserService struct {
	store *store.Store
}

// NewUserService creates a new UserService
func NewUserService(st *store.Store) *UserService {
	return &UserService{
		store: st,
	}
}

// Me returns the session user
func (s *UserService) Me(ctx context.Context) (*models.User, error) {
	user, ok := s.store.CurrentUser()
	if !ok {
		return nil, store.ErrNoSession
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.User(id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchUsers lists users whose name or email contains term
func (s *UserService) SearchUsers(ctx context.Context, term string) []models.User {
	return s.store.Users(term)
}

// SetBanned bans or unbans a user
func (s *UserService) SetBanned(ctx context.Context, id string, banned bool) (*models.User, error) {
	var (
		user models.User
		err  error
	)
	if banned {
		user, err = s.store.BanUser(id)
	} else {
		user, err = s.store.UnbanUser(id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ToggleBan flips a user between ACTIVE and BANNED
func (s *UserService) ToggleBan(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.User(id)
	if err != nil {
		return nil, err
	}
	return s.SetBanned(ctx, id, !user.IsBanned())
}

// Stats returns the admin dashboard summary
func (s *UserService) Stats(ctx context.Context) models.AppStats {
	return s.store.Stats()
}
