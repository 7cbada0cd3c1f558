package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/reviewplay/campaign-backend/internal/config"
	"github.com/reviewplay/campaign-backend/internal/models"
	"github.com/reviewplay/campaign-backend/internal/repositories"
	"github.com/reviewplay/campaign-backend/internal/utils"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

// ErrInvalidCredentials is returned on any failed login; it deliberately does
// not say whether the account exists.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService handles operator registration and login.
type AuthService struct {
	users repositories.AdminUserRepository
	cfg   *config.Config
}

// NewAuthService creates an AuthService.
func NewAuthService(users repositories.AdminUserRepository, cfg *config.Config) *AuthService {
	return &AuthService{users: users, cfg: cfg}
}

// Register creates an admin account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AdminUser, error) {
	existing, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, errors.New("an account with this email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.AdminUser{
		Email:    req.Email,
		Password: string(hashed),
		Role:     "admin",
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.Info("Admin user registered", "email", user.Email)
	return user, nil
}

// Login verifies credentials and returns a signed JWT.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (string, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Email, user.Role, s.cfg)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}
