package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/learnhub/content-subscriptions/internal/domain"
)

// CookieSettings controls how the session cookie is written.
type CookieSettings struct {
	Name   string
	Secure bool
}

// SetSessionCookie writes the session token as an http-only, strict same-site cookie.
func SetSessionCookie(c *fiber.Ctx, settings CookieSettings, session *domain.Session) {
	c.Cookie(&fiber.Cookie{
		Name:     settings.Name,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HTTPOnly: true,
		Secure:   settings.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// ClearSessionCookie overwrites the session cookie with an empty, already expired value.
func ClearSessionCookie(c *fiber.Ctx, settings CookieSettings) {
	c.Cookie(&fiber.Cookie{
		Name:     settings.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   settings.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
