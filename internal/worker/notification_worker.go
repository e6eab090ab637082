package worker

import (
	"go.uber.org/zap"

	"github.com/learnhub/content-subscriptions/internal/events"
	"github.com/learnhub/content-subscriptions/internal/service"
)

// StartNotificationWorker attaches the notification handlers to the event
// dispatcher. Handlers run inline with Publish, so there is no goroutine to own.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) []events.EventType {
	if notificationService == nil {
		return nil
	}
	types := notificationService.RegisterHandlers()
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	logger.Info("notification handlers registered", zap.Strings("events", names))
	return types
}
