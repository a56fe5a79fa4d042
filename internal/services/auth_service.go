package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ArowuTest/easyearning-backend/internal/config"
	"github.com/ArowuTest/easyearning-backend/internal/models"
	"github.com/ArowuTest/easyearning-backend/internal/store"
	"github.com/ArowuTest/easyearning-backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

// ErrSessionReplaced is returned when a valid token belongs to a user who no
// longer holds the single active session
var ErrSessionReplaced = errors.New("session is no longer active")

// AuthService handles login, logout and token checks
type AuthService struct {
	store *store.Store
	cfg   *config.Config
}

// NewAuthService creates a new AuthService
func NewAuthService(st *store.Store, cfg *config.Config) *AuthService {
	return &AuthService{
		store: st,
		cfg:   cfg,
	}
}

// Login resolves or registers a member and issues a session token
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, created, err := s.store.Login(req.Identity, store.Registration{
		Name:         req.Name,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		slog.Warn("Login refused", "identity", req.Identity, "error", err)
		return nil, err
	}
	return s.issue(user, created)
}

// AdminLogin checks the master admin credentials and opens an admin session
func (s *AuthService) AdminLogin(ctx context.Context, req *models.AdminLoginRequest) (*models.LoginResponse, error) {
	if !s.checkAdminCredentials(req.Email, req.Password) {
		slog.Warn("Admin login refused", "email", req.Email)
		return nil, fmt.Errorf("%w: invalid master admin credentials", store.ErrAccessDenied)
	}
	admin, err := s.store.LoginAdmin()
	if err != nil {
		return nil, err
	}
	slog.Info("Admin logged in", "userID", admin.ID)
	return s.issue(admin, false)
}

// Logout ends the session
func (s *AuthService) Logout(ctx context.Context) {
	s.store.Logout()
}

// Authenticate validates a token and returns the session user it belongs to
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, *utils.Claims, error) {
	claims, err := utils.ValidateJWT(token, s.cfg)
	if err != nil {
		return nil, nil, err
	}
	user, ok := s.store.CurrentUser()
	if !ok || user.ID != claims.Subject {
		return nil, nil, ErrSessionReplaced
	}
	return &user, claims, nil
}

func (s *AuthService) issue(user models.User, created bool) (*models.LoginResponse, error) {
	token, err := utils.GenerateJWT(user.ID, string(user.Role), s.cfg)
	if err != nil {
		slog.Error("Failed to sign session token", "error", err, "userID", user.ID)
		return nil, errors.New("failed to generate token")
	}
	return &models.LoginResponse{Token: token, User: user, Created: created}, nil
}

func (s *AuthService) checkAdminCredentials(email, password string) bool {
	if s.cfg.Admin.PasswordHash == "" || !strings.EqualFold(strings.TrimSpace(email), s.cfg.Admin.Email) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s.cfg.Admin.PasswordHash), []byte(password)) == nil
}
