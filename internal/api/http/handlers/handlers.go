package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/learnhub/content-subscriptions/internal/auth"
	"github.com/learnhub/content-subscriptions/internal/domain"
	apperrors "github.com/learnhub/content-subscriptions/pkg/util/errorutil"
)

// currentUser returns the authenticated caller loaded by the auth middleware.
func currentUser(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.User, nil
}

// parseBody decodes the JSON body into req.
func parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}
