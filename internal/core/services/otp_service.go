package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"hospital-directory/internal/adapters/persistence/models"
	"hospital-directory/internal/adapters/persistence/repositories"
	"hospital-directory/internal/core/domain"
	"hospital-directory/internal/pkg/password"

	"gorm.io/gorm"
)

// ============================================================
// OTP Service - password reset one-time codes
// ============================================================

// OTP errors
var (
	ErrOTPInvalid          = errors.New("invalid OTP")
	ErrOTPExpired          = errors.New("OTP has expired")
	ErrOTPTooSoon          = errors.New("please wait before requesting another OTP")
	ErrOTPAttemptsExceeded = errors.New("too many wrong OTP attempts")
)

const (
	otpLength      = 6
	otpMaxAttempts = 5
	otpCooldown    = time.Minute
)

// OTPService issues and checks password reset codes. Only a SHA-256 hash of
// the code is stored on the user record; a code is single-use and a new
// request replaces the previous one. Every write goes through a conditional
// store call, so concurrent requests cannot undo each other.
type OTPService struct {
	userRepo   repositories.UserRepository
	dispatcher OTPDispatcher
	hasher     *password.Hasher
	ttl        time.Duration
	now        func() time.Time
}

// NewOTPService creates a new OTP service
func NewOTPService(
	userRepo repositories.UserRepository,
	dispatcher OTPDispatcher,
	hasher *password.Hasher,
	ttl time.Duration,
) *OTPService {
	return &OTPService{
		userRepo:   userRepo,
		dispatcher: dispatcher,
		hasher:     hasher,
		ttl:        ttl,
		now:        time.Now,
	}
}

// ResetPasswordInput represents reset password input
type ResetPasswordInput struct {
	Email           string
	OTP             string
	Password        string
	ConfirmPassword string
}

// RequestOTP generates a code for the account behind email and dispatches it
func (s *OTPService) RequestOTP(ctx context.Context, email string) error {
	user, err := s.findUser(ctx, email)
	if err != nil {
		return err
	}

	now := s.now()

	// Rate limit: a code issued less than a minute ago is still fresh
	replaceableUntil := now.Add(s.ttl - otpCooldown)
	if user.HasLiveResetCode(now) && user.ForgotPasswordExpiry.After(replaceableUntil) {
		return ErrOTPTooSoon
	}

	code, err := generateSecureOTP(otpLength)
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	hash := password.HashToken(code)
	expiresAt := now.Add(s.ttl)
	stored, err := s.userRepo.StoreResetCode(ctx, user.ID, hash, expiresAt, replaceableUntil)
	if err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	if !stored {
		return ErrOTPTooSoon
	}

	if err := s.dispatcher.SendOTP(ctx, OTPMessage{
		Email:     user.Email,
		Name:      user.Name,
		Code:      code,
		ExpiresAt: expiresAt,
	}); err != nil {
		// An undelivered code must not hold the cooldown
		if clearErr := s.userRepo.ClearResetCode(ctx, user.ID, hash); clearErr != nil {
			log.Printf("⚠️ Failed to drop undelivered OTP for user %d: %v", user.ID, clearErr)
		}
		return fmt.Errorf("dispatch otp: %w", err)
	}

	log.Printf("✅ Password reset OTP issued for user: %d", user.ID)
	return nil
}

// VerifyOTP checks a code without consuming it
func (s *OTPService) VerifyOTP(ctx context.Context, email, code string) error {
	user, err := s.findUser(ctx, email)
	if err != nil {
		return err
	}
	return s.checkCode(ctx, user, code)
}

// ResetPassword consumes a valid code and stores the new password hash
func (s *OTPService) ResetPassword(ctx context.Context, input *ResetPasswordInput) error {
	if input.OTP == "" || input.Password == "" || input.ConfirmPassword == "" {
		return domain.Invalid("fields", "All fields are required")
	}
	if input.Password != input.ConfirmPassword {
		return domain.Invalid("confirmPassword", "Passwords do not match")
	}
	if !password.ValidatePassword(input.Password) {
		return domain.Invalid("password", "Password must be at most 72 bytes")
	}

	user, err := s.findUser(ctx, input.Email)
	if err != nil {
		return err
	}
	if err := s.checkCode(ctx, user, input.OTP); err != nil {
		return err
	}

	hashedPassword, err := s.hasher.Hash(input.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	consumed, err := s.userRepo.ConsumeResetCode(ctx, user.ID, password.HashToken(input.OTP), hashedPassword, s.now())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if !consumed {
		return ErrOTPInvalid
	}

	log.Printf("✅ Password reset for user: %d", user.ID)
	return nil
}

func (s *OTPService) findUser(ctx context.Context, email string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, domain.Invalid("email", "Email is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// checkCode compares code against the stored hash. Each comparison holds one
// of the code's attempts; a correct guess gives it back.
func (s *OTPService) checkCode(ctx context.Context, user *models.User, code string) error {
	if user.ForgotPasswordToken == nil || user.ForgotPasswordExpiry == nil {
		return ErrOTPInvalid
	}
	stored := *user.ForgotPasswordToken

	if !user.HasLiveResetCode(s.now()) {
		if err := s.userRepo.ClearResetCode(ctx, user.ID, stored); err != nil {
			return fmt.Errorf("clear otp: %w", err)
		}
		return ErrOTPExpired
	}

	if user.ForgotPasswordAttempts >= otpMaxAttempts {
		if err := s.userRepo.ClearResetCode(ctx, user.ID, stored); err != nil {
			return fmt.Errorf("clear otp: %w", err)
		}
		return ErrOTPAttemptsExceeded
	}

	// Fails if another request replaced or consumed the code since it was read
	claimed, err := s.userRepo.ClaimResetAttempt(ctx, user.ID, stored, otpMaxAttempts)
	if err != nil {
		return fmt.Errorf("count otp attempt: %w", err)
	}
	if !claimed {
		return ErrOTPInvalid
	}

	given := password.HashToken(code)
	if subtle.ConstantTimeCompare([]byte(given), []byte(stored)) != 1 {
		return ErrOTPInvalid
	}

	if err := s.userRepo.ReleaseResetAttempt(ctx, user.ID, stored); err != nil {
		return fmt.Errorf("release otp attempt: %w", err)
	}
	return nil
}

// generateSecureOTP generates a cryptographically secure random OTP
func generateSecureOTP(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
