package handlers

import (
	"errors"
	"time"

	"hospital-directory/internal/adapters/http/middleware"
	"hospital-directory/internal/config"
	"hospital-directory/internal/core/domain"
	"hospital-directory/internal/core/services"
	"hospital-directory/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	otpService  *services.OTPService
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, otpService *services.OTPService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		otpService:  otpService,
		cfg:         cfg,
	}
}

// SignupRequest represents signup request body
type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest represents forgot password request body
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// VerifyOTPRequest represents verify OTP request body
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// ResetPasswordRequest represents reset password request body
type ResetPasswordRequest struct {
	Email           string `json:"email"`
	OTP             string `json:"otp"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Signup handles user registration
// @Summary Register new user
// @Description Create a doctor or patient account. No session is started.
// @Tags Users
// @Accept json
// @Produce json
// @Param body body SignupRequest true "Signup data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /users/signup [post]
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.authService.Signup(c.Context(), &services.SignupInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            req.Role,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return response.BadRequest(c, "User already exists with this email")
		}
		return writeError(c, err, "Failed to register user")
	}

	return response.Created(c, "User registered successfully", fiber.Map{
		"user": user,
	})
}

// Login handles user login
// @Summary Login user
// @Description Authenticate and set the session cookie
// @Tags Users
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /users/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.authService.Login(c.Context(), &services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return response.BadRequest(c, "User not found")
		case errors.Is(err, services.ErrInvalidCredentials):
			return response.BadRequest(c, "Invalid password")
		default:
			return writeError(c, err, "Failed to login")
		}
	}

	h.setSessionCookie(c, result.Token, result.ExpiresIn)

	return response.Success(c, "Login successful", fiber.Map{
		"user": result.User,
	})
}

// Logout handles user logout
// @Summary Logout user
// @Description Clear the session cookie
// @Tags Users
// @Produce json
// @Success 200 {object} response.Response
// @Router /users/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.clearSessionCookie(c)
	return response.Success(c, "Logged out successfully", nil)
}

// Me returns the current user info
// @Summary Get current user
// @Description Resolve the user behind the session cookie
// @Tags Users
// @Produce json
// @Security CookieAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.authService.WhoAmI(c.Context(), middleware.TokenFromRequest(c))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return writeError(c, err, "Failed to get user")
	}

	return response.Success(c, "User retrieved successfully", fiber.Map{
		"user": user,
	})
}

// ForgotPassword issues a password reset code
// @Summary Request password reset code
// @Description Send a one-time code to the account's email
// @Tags Users
// @Accept json
// @Produce json
// @Param body body ForgotPasswordRequest true "Account email"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /users/forgotPassword [post]
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.otpService.RequestOTP(c.Context(), req.Email); err != nil {
		return h.otpError(c, err, "Failed to send OTP")
	}

	return response.Success(c, "OTP sent", nil)
}

// VerifyOtp checks a password reset code without consuming it
// @Summary Verify password reset code
// @Tags Users
// @Accept json
// @Produce json
// @Param body body VerifyOTPRequest true "Email and code"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /users/verifyOtp [post]
func (h *AuthHandler) VerifyOtp(c *fiber.Ctx) error {
	var req VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.otpService.VerifyOTP(c.Context(), req.Email, req.OTP); err != nil {
		return h.otpError(c, err, "Failed to verify OTP")
	}

	return response.Success(c, "OTP verified", nil)
}

// ResetPassword sets a new password using a valid code
// @Summary Reset password
// @Tags Users
// @Accept json
// @Produce json
// @Param body body ResetPasswordRequest true "Email, code and new password"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /users/resetPassword [post]
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	err := h.otpService.ResetPassword(c.Context(), &services.ResetPasswordInput{
		Email:           req.Email,
		OTP:             req.OTP,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return h.otpError(c, err, "Failed to reset password")
	}

	return response.Success(c, "Password reset successfully", nil)
}

func (h *AuthHandler) otpError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return response.BadRequest(c, "User not found")
	case errors.Is(err, services.ErrOTPTooSoon):
		return response.TooManyRequests(c, "Please wait before requesting another OTP")
	case errors.Is(err, services.ErrOTPExpired):
		return response.BadRequest(c, "OTP has expired")
	case errors.Is(err, services.ErrOTPAttemptsExceeded):
		return response.BadRequest(c, "Too many wrong attempts, request a new OTP")
	case errors.Is(err, services.ErrOTPInvalid):
		return response.BadRequest(c, "Invalid OTP")
	default:
		return writeError(c, err, fallback)
	}
}

// setSessionCookie sets the session token cookie
func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, token string, validity time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(validity.Seconds()),
		Expires:  time.Now().Add(validity),
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}

// clearSessionCookie overwrites the session cookie with an expired empty value
func (h *AuthHandler) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-1 * time.Hour),
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}
