package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/learnhub/content-subscriptions/internal/api/http"
	"github.com/learnhub/content-subscriptions/internal/api/http/handlers"
	"github.com/learnhub/content-subscriptions/internal/auth"
	"github.com/learnhub/content-subscriptions/internal/config"
	"github.com/learnhub/content-subscriptions/internal/events"
	"github.com/learnhub/content-subscriptions/internal/mail"
	"github.com/learnhub/content-subscriptions/internal/observability"
	"github.com/learnhub/content-subscriptions/internal/payment"
	"github.com/learnhub/content-subscriptions/internal/persistence"
	"github.com/learnhub/content-subscriptions/internal/repository"
	"github.com/learnhub/content-subscriptions/internal/service"
	"github.com/learnhub/content-subscriptions/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	mailer, err := mail.New(cfg.Mail, logger)
	if err != nil {
		logger.Fatal("failed to init mailer", zap.Error(err))
	}
	if closer, ok := mailer.(mail.Closer); ok {
		defer closer.Close() //nolint:errcheck
	}
	if queued, ok := mailer.(*mail.AMQPMailer); ok {
		mailWorker, err := worker.NewMailWorker(queued.Connection(), cfg.Mail.AMQPQueue, mail.NewSMTPMailer(cfg.Mail), logger)
		if err != nil {
			logger.Fatal("failed to start mail worker", zap.Error(err))
		}
		go func() {
			if err := mailWorker.Run(ctx); err != nil {
				logger.Error("mail worker stopped", zap.Error(err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	contentRepo := repository.NewContentRepository(pool)
	ratingRepo := repository.NewRatingRepository(pool)
	subscriptionRepo := repository.NewSubscriptionRepository(pool)
	tokenRepo := repository.NewVerificationTokenRepository(redis.Client, cfg.Auth.VerificationTTL())

	sessions := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL())
	cookie := auth.CookieSettings{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure}
	if !cfg.Stripe.Configured() {
		logger.Warn("stripe keys not configured; checkout and webhooks will fail")
	}

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   userRepo,
		TokenRepo:  tokenRepo,
		Sessions:   sessions,
		Mailer:     mailer,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	subscriptionService := service.NewSubscriptionService(cfg.Stripe, service.SubscriptionDependencies{
		SubscriptionRepo: subscriptionRepo,
		Gateway:          payment.NewStripeGateway(cfg.Stripe, nil),
		Dispatcher:       dispatcher,
		Metrics:          metrics,
		Logger:           logger,
	})
	contentService := service.NewContentService(contentRepo, subscriptionService)
	ratingService := service.NewRatingService(ratingRepo, contentService)
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, userRepo, mailer, logger), logger)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService, cookie),
		Contents:       handlers.NewContentHandler(contentService),
		Ratings:        handlers.NewRatingHandler(ratingService),
		Subscriptions:  handlers.NewSubscriptionHandler(subscriptionService),
		Webhooks:       handlers.NewWebhookHandler(subscriptionService),
		AuthMiddleware: auth.NewAuthMiddleware(sessions, userRepo, cookie),
		RateLimit:      httptransport.NewRateLimiter(redis, cfg.RateLimit.AuthRequestsPerMinute, time.Minute, logger),
		Metrics:        metrics,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
