package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/learnhub/content-subscriptions/internal/api/dto"
	"github.com/learnhub/content-subscriptions/internal/service"
)

// StripeSignatureHeader carries the callback signature.
const StripeSignatureHeader = "Stripe-Signature"

// WebhookHandler receives payment processor callbacks.
type WebhookHandler struct {
	subscriptions *service.SubscriptionService
}

// NewWebhookHandler constructs handler.
func NewWebhookHandler(subscriptions *service.SubscriptionService) *WebhookHandler {
	return &WebhookHandler{subscriptions: subscriptions}
}

// Stripe handles POST /api/webhooks/stripe. The body is verified as raw
// bytes; it is copied because fasthttp reuses the request buffer.
func (h *WebhookHandler) Stripe(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.Body()...)
	if _, err := h.subscriptions.ConfirmPayment(c.UserContext(), payload, c.Get(StripeSignatureHeader)); err != nil {
		return err
	}
	return c.JSON(dto.WebhookResponse{Received: true})
}
