package http

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/learnhub/content-subscriptions/pkg/util/errorutil"
)

// Counter is a shared fixed-window hit counter.
type Counter interface {
	IncrWithExpire(ctx context.Context, key string, window time.Duration) (int64, error)
}

// NewRateLimiter allows limit requests per client IP and route within each
// window. When the counter is unreachable requests are let through.
func NewRateLimiter(counter Counter, limit int, window time.Duration, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limit <= 0 || counter == nil {
			return c.Next()
		}
		key := fmt.Sprintf("ratelimit:%s:%s", c.Route().Path, c.IP())
		count, err := counter.IncrWithExpire(c.UserContext(), key, window)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}
		if count > int64(limit) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(window.Seconds())))
			return apperrors.NewRateLimited("too many requests, try again later")
		}
		return c.Next()
	}
}
