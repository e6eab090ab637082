// Package payment talks to the external payment processor: it opens hosted
// checkout sessions and authenticates the callbacks that report their outcome.
package payment

import (
	"context"
	"errors"
)

// ErrInvalidSignature is returned when a callback cannot be authenticated.
var ErrInvalidSignature = errors.New("payment: invalid webhook signature")

// ErrMalformedEvent is returned when an authenticated callback cannot be decoded.
var ErrMalformedEvent = errors.New("payment: malformed webhook event")

// CheckoutRequest describes a one-off payment for a subscription plan.
type CheckoutRequest struct {
	UserID      string
	Plan        string
	ProductName string
	Currency    string
	// AmountMinor is the price in minor currency units.
	AmountMinor int64
}

// CheckoutSession is a processor-hosted payment page.
type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutCompleted carries the fields of a paid checkout session.
type CheckoutCompleted struct {
	SessionID   string
	UserID      string
	Plan        string
	AmountTotal int64
}

// Event is an authenticated processor callback.
type Event struct {
	ID   string
	Type string
	// Checkout is set for completed checkout sessions only.
	Checkout *CheckoutCompleted
}

// Gateway is the payment processor as seen by the subscription lifecycle.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// ParseWebhook authenticates payload against signature before decoding it.
	ParseWebhook(payload []byte, signature string) (*Event, error)
}
