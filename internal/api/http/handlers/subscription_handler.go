package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/learnhub/content-subscriptions/internal/api/dto"
	"github.com/learnhub/content-subscriptions/internal/service"
)

// SubscriptionHandler exposes the subscription lifecycle to subscribers.
type SubscriptionHandler struct {
	subscriptions *service.SubscriptionService
}

// NewSubscriptionHandler constructs handler.
func NewSubscriptionHandler(subscriptions *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

// Subscribe handles POST /api/subscriptions/subscribe.
func (h *SubscriptionHandler) Subscribe(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.SubscribeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := dto.Validate(&req, "Invalid plan"); err != nil {
		return err
	}

	session, err := h.subscriptions.StartCheckout(c.UserContext(), user.ID, req.Plan)
	if err != nil {
		return err
	}
	return c.JSON(dto.CheckoutResponse{CheckoutURL: session.URL, SessionID: session.ID})
}

// Me handles GET /api/subscriptions/me.
func (h *SubscriptionHandler) Me(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	sub, err := h.subscriptions.GetActive(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSubscriptionResponse(sub))
}

// Cancel handles DELETE /api/subscriptions/cancel.
func (h *SubscriptionHandler) Cancel(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	sub, err := h.subscriptions.Cancel(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":      "Subscription cancelled successfully",
		"subscription": dto.NewSubscriptionResponse(sub),
	})
}

// PaymentSuccess handles GET /api/subscriptions/payment-success.
func (h *SubscriptionHandler) PaymentSuccess(c *fiber.Ctx) error {
	return c.JSON(dto.MessageResponse{Message: "Payment was successful! Your subscription is now active."})
}

// PaymentCancelled handles GET /api/subscriptions/payment-cancelled.
func (h *SubscriptionHandler) PaymentCancelled(c *fiber.Ctx) error {
	return c.JSON(dto.MessageResponse{Message: "Payment was cancelled. You can try subscribing again."})
}
