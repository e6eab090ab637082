package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/learnhub/content-subscriptions/internal/events"
	"github.com/learnhub/content-subscriptions/internal/mail"
	"github.com/learnhub/content-subscriptions/internal/repository"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	users      repository.UserRepository
	mailer     mail.Mailer
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, users repository.UserRepository, mailer mail.Mailer, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		users:      users,
		mailer:     mailer,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events and returns the handled event types.
func (n *NotificationService) RegisterHandlers() []events.EventType {
	if n.dispatcher == nil {
		return nil
	}
	handlers := []struct {
		eventType events.EventType
		handle    events.EventHandler
	}{
		{events.EventUserRegistered, n.handleUserRegistered},
		{events.EventSubscriptionActivated, n.handleSubscriptionActivated},
		{events.EventSubscriptionCancelled, n.handleSubscriptionCancelled},
	}
	types := make([]events.EventType, 0, len(handlers))
	for _, h := range handlers {
		n.dispatcher.Subscribe(h.eventType, h.handle)
		types = append(types, h.eventType)
	}
	return types
}

func (n *NotificationService) handleUserRegistered(_ context.Context, event events.Event) error {
	n.logger.Info("UserRegistered", zap.String("event_id", event.ID), zap.String("user_id", event.UserID))
	return nil
}

func (n *NotificationService) handleSubscriptionActivated(ctx context.Context, event events.Event) error {
	n.logger.Info("SubscriptionActivated", zap.String("event_id", event.ID), zap.String("user_id", event.UserID), zap.Any("payload", event.Payload))
	payload, ok := event.Payload.(events.SubscriptionPayload)
	if !ok {
		return nil
	}
	return n.sendReceipt(ctx, event.UserID, "Your subscription is active", fmt.Sprintf(
		"Thank you for subscribing to the %s plan.\n\nAmount paid: %.2f\nValid until: %s\n",
		payload.Plan, payload.Price, payload.ExpiresAt.UTC().Format(time.RFC1123)))
}

func (n *NotificationService) handleSubscriptionCancelled(ctx context.Context, event events.Event) error {
	n.logger.Info("SubscriptionCancelled", zap.String("event_id", event.ID), zap.String("user_id", event.UserID), zap.Any("payload", event.Payload))
	payload, ok := event.Payload.(events.SubscriptionPayload)
	if !ok {
		return nil
	}
	return n.sendReceipt(ctx, event.UserID, "Your subscription was cancelled", fmt.Sprintf(
		"Your %s subscription has been cancelled. You can subscribe again at any time.\n", payload.Plan))
}

func (n *NotificationService) sendReceipt(ctx context.Context, userID, subject, body string) error {
	if n.mailer == nil || n.users == nil {
		return nil
	}
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load recipient %s: %w", userID, err)
	}
	return n.mailer.Send(ctx, mail.Message{
		To:      user.Email,
		Subject: subject,
		Body:    fmt.Sprintf("Hi %s,\n\n%s", user.Name, body),
	})
}
