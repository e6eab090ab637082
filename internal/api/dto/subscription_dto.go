package dto

import (
	"time"

	"github.com/learnhub/content-subscriptions/internal/domain"
)

// SubscribeRequest payload for starting a checkout.
type SubscribeRequest struct {
	Plan string `json:"plan" validate:"required"`
}

// CheckoutResponse carries the hosted payment page.
type CheckoutResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
	SessionID   string `json:"sessionId"`
}

// SubscriptionResponse represents a subscription.
type SubscriptionResponse struct {
	ID        string                    `json:"id"`
	UserID    string                    `json:"userId"`
	Plan      domain.Plan               `json:"plan"`
	Price     float64                   `json:"price"`
	Status    domain.SubscriptionStatus `json:"status"`
	StartedAt time.Time                 `json:"startedAt"`
	ExpiresAt time.Time                 `json:"expiresAt"`
	CreatedAt time.Time                 `json:"createdAt"`
	UpdatedAt time.Time                 `json:"updatedAt"`
}

// NewSubscriptionResponse maps a subscription.
func NewSubscriptionResponse(s *domain.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:        s.ID,
		UserID:    s.UserID,
		Plan:      s.Plan,
		Price:     s.Price,
		Status:    s.Status,
		StartedAt: s.StartedAt,
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// WebhookResponse acknowledges a processed callback.
type WebhookResponse struct {
	Received bool `json:"received"`
}
