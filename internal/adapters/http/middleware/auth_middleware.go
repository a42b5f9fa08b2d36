package middleware

import (
	"errors"
	"strings"

	"hospital-directory/internal/pkg/jwt"
	"hospital-directory/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the name of the cookie carrying the session token
const SessionCookie = "token"

// LocalUserID is the context key AuthMiddleware stores the caller under.
// Roles are not taken from the token; services re-read the live user.
const LocalUserID = "userID"

// TokenFromRequest returns the session token from the cookie, falling back
// to an Authorization Bearer header
func TokenFromRequest(c *fiber.Ctx) string {
	// 1. Try to get token from cookie first
	if token := c.Cookies(SessionCookie); token != "" {
		return token
	}

	// 2. If not in cookie, try Authorization header
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// AuthMiddleware creates authentication middleware
func AuthMiddleware(tokens *jwt.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := TokenFromRequest(c)
		if token == "" {
			return response.Unauthorized(c, "Unauthenticated")
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Token expired")
			}
			return response.Unauthorized(c, "Invalid token")
		}

		c.Locals(LocalUserID, claims.UserID)

		return c.Next()
	}
}

// CurrentUserID returns the caller resolved by AuthMiddleware
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(LocalUserID).(uint)
	return id, ok && id != 0
}
