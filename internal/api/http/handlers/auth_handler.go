package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/learnhub/content-subscriptions/internal/api/dto"
	"github.com/learnhub/content-subscriptions/internal/auth"
	"github.com/learnhub/content-subscriptions/internal/service"
)

// AuthHandler exposes registration, verification and session endpoints.
type AuthHandler struct {
	auth   *service.AuthService
	cookie auth.CookieSettings
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cookie auth.CookieSettings) *AuthHandler {
	return &AuthHandler{auth: authService, cookie: cookie}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := dto.Validate(&req, "All fields are required"); err != nil {
		return err
	}

	user, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "Registration successful! Please check your email to verify your account.",
		"user":    dto.NewUserResponse(user),
	})
}

// Verify handles GET /api/auth/verify/:id/:token.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	if err := h.auth.Verify(c.UserContext(), c.Params("id"), c.Params("token")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Email verified successfully"})
}

// Login handles POST /api/auth/login. The session token is only ever
// written to the cookie.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := dto.Validate(&req, "Please provide email and password"); err != nil {
		return err
	}

	user, session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	auth.SetSessionCookie(c, h.cookie, session)
	return c.JSON(fiber.Map{
		"message": "Login successful!",
		"user":    dto.NewUserResponse(user),
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	auth.ClearSessionCookie(c, h.cookie)
	return c.JSON(dto.MessageResponse{Message: "Logout successful"})
}

// Me handles GET /api/users/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	user, err := h.auth.CurrentUser(c.UserContext(), caller.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}
