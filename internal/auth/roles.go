package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/learnhub/content-subscriptions/internal/access"
	apperrors "github.com/learnhub/content-subscriptions/pkg/util/errorutil"
)

// RequireAuthenticated ensures a principal was loaded.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireAdmin rejects callers who may not mutate content. It runs before
// the body is parsed, so non-admins are refused whatever they send.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !access.CanMutate(principal.Role()) {
			return apperrors.NewForbidden("Forbidden: Admins only!")
		}
		return c.Next()
	}
}
