package service

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pray3m/hyteno-fullstack-todo/internal/auth"
	"github.com/pray3m/hyteno-fullstack-todo/internal/errors"
	"github.com/pray3m/hyteno-fullstack-todo/internal/model"
	"github.com/pray3m/hyteno-fullstack-todo/internal/repository"
)

const bcryptCost = 10

// AuthService handles registration and login. Registration triggers the
// welcome notification as an explicit post-commit call, not an event bus.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*model.User, error)
	Login(ctx context.Context, email, password string) (accessToken string, user *model.User, err error)
}

type authService struct {
	userRepo      repository.UserRepository
	jwtService    *auth.JWTService
	notifications NotificationService
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, notifications NotificationService) AuthService {
	return &authService{
		userRepo:      userRepo,
		jwtService:    jwtService,
		notifications: notifications,
	}
}

// Register creates a new USER-role account with hashed password, then
// creates the account's welcome notification.
func (s *authService) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, errors.ErrEmailExists
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hashedPassword),
		Role:         model.RoleUser,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// The existence check above races with concurrent registrations;
		// the unique index on email is the real arbiter.
		if err == gorm.ErrDuplicatedKey {
			return nil, errors.ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	// Post-commit hook: the user row exists, so a lost notification can
	// only mean a missing greeting, never a phantom one.
	if err := s.notifications.CreateWelcome(ctx, user.ID, user.Name); err != nil {
		return nil, fmt.Errorf("create welcome notification: %w", err)
	}

	return user, nil
}

// Login authenticates a user and returns a signed access token. An unknown
// email and a wrong password surface as distinct errors.
func (s *authService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil, errors.ErrUserNotFound
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, errors.ErrUnauthorized
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("generate access token: %w", err)
	}

	return accessToken, user, nil
}
