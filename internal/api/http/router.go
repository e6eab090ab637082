package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/learnhub/content-subscriptions/internal/api/http/handlers"
	"github.com/learnhub/content-subscriptions/internal/auth"
	"github.com/learnhub/content-subscriptions/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Contents       *handlers.ContentHandler
	Ratings        *handlers.RatingHandler
	Subscriptions  *handlers.SubscriptionHandler
	Webhooks       *handlers.WebhookHandler
	AuthMiddleware *auth.AuthMiddleware
	// RateLimit guards the anonymous credential endpoints.
	RateLimit fiber.Handler
	Metrics   *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))

	rateLimit := cfg.RateLimit
	if rateLimit == nil {
		rateLimit = func(c *fiber.Ctx) error { return c.Next() }
	}
	session := cfg.AuthMiddleware.Handle

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", rateLimit, cfg.Auth.Register)
	authGroup.Post("/login", rateLimit, cfg.Auth.Login)
	authGroup.Get("/verify/:id/:token", cfg.Auth.Verify)
	authGroup.Post("/logout", session, cfg.Auth.Logout)

	api.Get("/users/me", session, cfg.Auth.Me)

	contents := api.Group("/contents", session)
	contents.Get("/", cfg.Contents.List)
	contents.Get("/search", cfg.Contents.Search)
	contents.Get("/:id", cfg.Contents.Get)
	contents.Post("/", auth.RequireAdmin(), cfg.Contents.Create)
	contents.Put("/:id", auth.RequireAdmin(), cfg.Contents.Update)
	contents.Delete("/:id", auth.RequireAdmin(), cfg.Contents.Delete)

	ratings := api.Group("/ratings", session)
	ratings.Post("/:contentId", cfg.Ratings.Submit)
	ratings.Get("/:contentId", cfg.Ratings.Aggregate)

	subscriptions := api.Group("/subscriptions", session)
	subscriptions.Post("/subscribe", cfg.Subscriptions.Subscribe)
	subscriptions.Get("/me", cfg.Subscriptions.Me)
	subscriptions.Delete("/cancel", cfg.Subscriptions.Cancel)
	subscriptions.Get("/payment-success", cfg.Subscriptions.PaymentSuccess)
	subscriptions.Get("/payment-cancelled", cfg.Subscriptions.PaymentCancelled)

	api.Post("/webhooks/stripe", cfg.Webhooks.Stripe)
}
