package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"hospital-directory/internal/adapters/persistence/models"
	"hospital-directory/internal/adapters/persistence/repositories"
	"hospital-directory/internal/core/domain"
	"hospital-directory/internal/pkg/jwt"
	"hospital-directory/internal/pkg/password"

	"gorm.io/gorm"
)

// Auth errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid password")
)

// Column sizes of the users table
const (
	maxUserNameLength = 100
	maxEmailLength    = 255
)

// AuthService handles signup, login and session resolution
type AuthService struct {
	userRepo repositories.UserRepository
	tokens   *jwt.Manager
	hasher   *password.Hasher
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	tokens *jwt.Manager,
	hasher *password.Hasher,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		hasher:   hasher,
	}
}

// SignupInput represents signup input
type SignupInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Role            string
}

// LoginInput represents login input
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is returned by a successful login
type AuthResult struct {
	User      *domain.PublicUser
	Token     string
	ExpiresIn time.Duration
}

// Signup validates the input and creates a user with a hashed password
func (s *AuthService) Signup(ctx context.Context, input *SignupInput) (*domain.PublicUser, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)

	// 1. Validate input
	if name == "" || email == "" || input.Password == "" || input.ConfirmPassword == "" {
		return nil, domain.Invalid("fields", "All fields are required")
	}
	if utf8.RuneCountInString(name) > maxUserNameLength {
		return nil, domain.Invalid("name", fmt.Sprintf("Name must be at most %d characters", maxUserNameLength))
	}
	if utf8.RuneCountInString(email) > maxEmailLength {
		return nil, domain.Invalid("email", fmt.Sprintf("Email must be at most %d characters", maxEmailLength))
	}
	if !strings.Contains(email, "@") {
		return nil, domain.Invalid("email", "Please enter a valid email")
	}
	if input.Password != input.ConfirmPassword {
		return nil, domain.Invalid("confirmPassword", "Passwords do not match")
	}
	if !password.ValidatePassword(input.Password) {
		return nil, domain.Invalid("password", "Password must be at most 72 bytes")
	}
	role, ok := domain.ParseRole(input.Role)
	if !ok {
		return nil, domain.Invalid("role", "Role must be doctor or patient")
	}

	// 2. Check if email already exists
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicateEmail
	}

	// 3. Hash password
	hashedPassword, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// 4. Create user; the unique index settles concurrent signups
	user := &models.User{
		Name:     name,
		Email:    email,
		Password: hashedPassword,
		Role:     string(role),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Printf("✅ User registered: %d (%s)", user.ID, user.Role)
	return user.ToPublic(), nil
}

// Login authenticates a user and issues a session token
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, domain.Invalid("fields", "Email and password are required")
	}

	// 1. Find user by email
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	// 2. Verify password
	if !s.hasher.Verify(input.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	// 3. Issue token
	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	log.Printf("✅ User logged in: %d", user.ID)

	return &AuthResult{
		User:      user.ToPublic(),
		Token:     token,
		ExpiresIn: s.tokens.Validity(),
	}, nil
}

// ValidateToken verifies a session token without touching the store
func (s *AuthService) ValidateToken(token string) (*jwt.Claims, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}
	return claims, nil
}

// WhoAmI resolves the live user behind a session token
func (s *AuthService) WhoAmI(ctx context.Context, token string) (*domain.PublicUser, error) {
	claims, err := s.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return user.ToPublic(), nil
}

// GetUserByID gets a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
