package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yukikurage/tripmate-api/internal/constants"
	"github.com/yukikurage/tripmate-api/internal/models"
	"github.com/yukikurage/tripmate-api/internal/repository"
	"github.com/yukikurage/tripmate-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrNameRequired         = errors.New("name is required")
	ErrEmailRequired        = errors.New("email is required")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrEmailDeliveryFailed  = errors.New("failed to deliver email")
	ErrInvalidOrExpiredOTP  = errors.New("invalid or expired reset code")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	mailer   Mailer
	now      func() time.Time
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithClock replaces the time source used for reset code expiry.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) {
		s.now = now
	}
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, hasher PasswordHasher, tokens TokenIssuer, mailer Mailer, opts ...AuthOption) *AuthService {
	s := &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		mailer:   mailer,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthResult is an authenticated user with a freshly issued bearer token.
type AuthResult struct {
	User  *models.User
	Token string
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// Signup creates a new user and signs them in.
func (s *AuthService) Signup(input SignupInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := models.NormalizeEmail(input.Email)
	if name == "" {
		return nil, ErrNameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
	}
	if err := s.userRepo.Create(user); err != nil {
		// A concurrent signup can win between the lookup and the insert.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issue(user)
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// RequestPasswordReset issues a new one-time code for the account and
// emails it. Any code issued earlier stops working.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate reset code: %w", err)
	}

	reset := &models.PasswordReset{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: s.now().Add(constants.OTPTTL),
	}
	if err := s.userRepo.SavePasswordReset(reset); err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}

	mailCtx, cancel := context.WithTimeout(ctx, constants.EmailTimeout)
	defer cancel()

	if err := s.mailer.SendPasswordReset(mailCtx, user.Email, code); err != nil {
		slog.ErrorContext(ctx, "password reset email failed", "user_id", user.ID, "error", err)
		return ErrEmailDeliveryFailed
	}

	return nil
}

// ConfirmResetInput carries a reset confirmation.
type ConfirmResetInput struct {
	Email       string
	Code        string
	NewPassword string
}

// ConfirmPasswordReset replaces the password when the code is the
// account's current, unexpired code. The code is consumed on success.
func (s *AuthService) ConfirmPasswordReset(input ConfirmResetInput) error {
	if len(input.NewPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.userRepo.FindByEmail(input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidOrExpiredOTP
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	hashedPassword, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return ErrFailedToHashPassword
	}

	err = s.userRepo.ResetPassword(user.ID, strings.TrimSpace(input.Code), s.now(), hashedPassword)
	if err != nil {
		if errors.Is(err, repository.ErrResetNotUsable) {
			return ErrInvalidOrExpiredOTP
		}
		return fmt.Errorf("failed to reset password: %w", err)
	}

	return nil
}
