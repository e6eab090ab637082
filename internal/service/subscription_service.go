package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/learnhub/content-subscriptions/internal/config"
	"github.com/learnhub/content-subscriptions/internal/domain"
	"github.com/learnhub/content-subscriptions/internal/events"
	"github.com/learnhub/content-subscriptions/internal/observability"
	"github.com/learnhub/content-subscriptions/internal/payment"
	"github.com/learnhub/content-subscriptions/internal/repository"
	apperrors "github.com/learnhub/content-subscriptions/pkg/util/errorutil"
)

// Webhook outcomes reported to metrics.
const (
	WebhookActivated = "activated"
	WebhookDuplicate = "duplicate"
	WebhookIgnored   = "ignored"
	WebhookRejected  = "rejected"
)

// SubscriptionService drives the subscription lifecycle: checkout,
// payment confirmation, lazy expiry and cancellation.
type SubscriptionService struct {
	subs       repository.SubscriptionRepository
	gateway    payment.Gateway
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	currency   string
	now        func() time.Time
}

// SubscriptionDependencies bundles collaborators of the subscription service.
type SubscriptionDependencies struct {
	SubscriptionRepo repository.SubscriptionRepository
	Gateway          payment.Gateway
	Dispatcher       events.Dispatcher
	Metrics          *observability.Metrics
	Logger           *zap.Logger
	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewSubscriptionService creates the service.
func NewSubscriptionService(cfg config.StripeConfig, deps SubscriptionDependencies) *SubscriptionService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriptionService{
		subs:       deps.SubscriptionRepo,
		gateway:    deps.Gateway,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		currency:   cfg.Currency,
		now:        now,
	}
}

// StartCheckout opens a payment page for plan. No subscription is stored
// until the payment is confirmed.
func (s *SubscriptionService) StartCheckout(ctx context.Context, userID, planName string) (*payment.CheckoutSession, error) {
	plan, err := domain.ParsePlan(planName)
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid plan", map[string]any{"plan": planName})
	}

	current, err := s.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return nil, apperrors.NewConflict("You already have an active subscription", map[string]any{
			"expiresAt": current.ExpiresAt,
		})
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		UserID:      userID,
		Plan:        string(plan),
		ProductName: plan.Label(),
		Currency:    s.currency,
		AmountMinor: plan.PriceMinor(),
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return session, nil
}

// ConfirmPayment authenticates a processor callback and activates the paid
// subscription. Replays of the same checkout session are no-ops. It reports
// whether a subscription was created.
func (s *SubscriptionService) ConfirmPayment(ctx context.Context, payload []byte, signature string) (bool, error) {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		s.metrics.RecordWebhook(WebhookRejected)
		return false, apperrors.NewWebhookRejected(err)
	}
	if event.Checkout == nil {
		s.metrics.RecordWebhook(WebhookIgnored)
		return false, nil
	}

	completed := event.Checkout
	if !domain.ValidID(completed.UserID) {
		s.metrics.RecordWebhook(WebhookRejected)
		return false, apperrors.NewWebhookRejected(fmt.Errorf("%w: user id %q", payment.ErrMalformedEvent, completed.UserID))
	}
	plan, err := domain.ParsePlan(completed.Plan)
	if err != nil {
		s.metrics.RecordWebhook(WebhookRejected)
		return false, apperrors.NewWebhookRejected(errors.Join(payment.ErrMalformedEvent, err))
	}

	price := float64(plan.Price())
	if completed.AmountTotal > 0 {
		price = float64(completed.AmountTotal) / 100
	}
	startedAt := s.now().UTC()
	sub := &domain.Subscription{
		UserID:            completed.UserID,
		Plan:              plan,
		Price:             price,
		Status:            domain.SubscriptionActive,
		StartedAt:         startedAt,
		ExpiresAt:         plan.ExpiresAt(startedAt),
		CheckoutSessionID: completed.SessionID,
	}

	created, err := s.subs.CreateFromCheckout(ctx, sub)
	if errors.Is(err, repository.ErrNotFound) {
		s.metrics.RecordWebhook(WebhookRejected)
		return false, apperrors.NewWebhookRejected(errors.Join(payment.ErrMalformedEvent, errors.New("unknown user")))
	}
	if err != nil {
		return false, apperrors.NewInternalError(err)
	}
	if !created {
		s.metrics.RecordWebhook(WebhookDuplicate)
		s.logger.Info("checkout already processed", zap.String("session_id", completed.SessionID))
		return false, nil
	}

	s.metrics.RecordWebhook(WebhookActivated)
	s.metrics.RecordSubscription(string(domain.SubscriptionActive))
	s.publish(ctx, events.EventSubscriptionActivated, sub)
	return true, nil
}

// GetActive returns the caller's active subscription, demoting any lapsed
// record it encounters on the way.
func (s *SubscriptionService) GetActive(ctx context.Context, userID string) (*domain.Subscription, error) {
	sub, err := s.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperrors.NewNotFound("active subscription", nil)
	}
	return sub, nil
}

// HasActive reports whether the user currently holds an active subscription.
func (s *SubscriptionService) HasActive(ctx context.Context, userID string) (bool, error) {
	sub, err := s.active(ctx, userID)
	if err != nil {
		return false, err
	}
	return sub != nil, nil
}

// Cancel ends the caller's active subscription.
func (s *SubscriptionService) Cancel(ctx context.Context, userID string) (*domain.Subscription, error) {
	sub, err := s.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperrors.NewNotFound("active subscription", nil)
	}

	ok, err := s.subs.Transition(ctx, sub.ID, domain.SubscriptionActive, domain.SubscriptionCancelled)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !ok {
		// Lost a race with another cancel or an expiry.
		return nil, apperrors.NewNotFound("active subscription", nil)
	}
	sub.Status = domain.SubscriptionCancelled
	s.metrics.RecordSubscription(string(domain.SubscriptionCancelled))
	s.publish(ctx, events.EventSubscriptionCancelled, sub)
	return sub, nil
}

// active finds the user's live subscription, or nil when there is none.
// Records that are marked active but past expiry are moved to expired.
func (s *SubscriptionService) active(ctx context.Context, userID string) (*domain.Subscription, error) {
	for {
		sub, err := s.subs.FindActive(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}

		state := sub.Evaluate(s.now())
		if state.Active {
			return sub, nil
		}
		if !state.NeedsExpiry {
			return nil, nil
		}
		if err := s.expire(ctx, sub); err != nil {
			return nil, err
		}
	}
}

func (s *SubscriptionService) expire(ctx context.Context, sub *domain.Subscription) error {
	ok, err := s.subs.Transition(ctx, sub.ID, domain.SubscriptionActive, domain.SubscriptionExpired)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if ok {
		s.metrics.RecordSubscription(string(domain.SubscriptionExpired))
		s.logger.Info("subscription expired",
			zap.String("subscription_id", sub.ID),
			zap.String("user_id", sub.UserID),
			zap.Time("expires_at", sub.ExpiresAt))
	}
	return nil
}

func (s *SubscriptionService) publish(ctx context.Context, eventType events.EventType, sub *domain.Subscription) {
	if s.dispatcher == nil {
		return
	}
	event := events.New(eventType, sub.UserID, s.now(), events.SubscriptionPayload{
		SubscriptionID: sub.ID,
		Plan:           sub.Plan,
		Price:          sub.Price,
		ExpiresAt:      sub.ExpiresAt,
		Status:         sub.Status,
	})
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}
