package handlers

import (
	"errors"
	"log"

	"hospital-directory/internal/core/domain"
	"hospital-directory/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// writeError maps domain errors to responses; anything unrecognised is
// logged and reported as fallback with a 500
func writeError(c *fiber.Ctx, err error, fallback string) error {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return response.ValidationFailed(c, ve.Field, ve.Message)
	case errors.Is(err, domain.ErrUnauthenticated):
		return response.Unauthorized(c, "Unauthenticated")
	case errors.Is(err, domain.ErrTokenInvalid):
		return response.Unauthorized(c, "Invalid token")
	case errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, "Forbidden")
	}

	log.Printf("❌ %s: %v", fallback, err)
	return response.InternalServerError(c, fallback)
}
