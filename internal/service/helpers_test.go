package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/learnhub/content-subscriptions/internal/auth"
	"github.com/learnhub/content-subscriptions/internal/config"
	"github.com/learnhub/content-subscriptions/internal/domain"
	"github.com/learnhub/content-subscriptions/internal/events"
	"github.com/learnhub/content-subscriptions/internal/observability"
	"github.com/learnhub/content-subscriptions/internal/repository"
	"github.com/learnhub/content-subscriptions/internal/testutil"
	apperrors "github.com/learnhub/content-subscriptions/pkg/util/errorutil"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	cfg        config.Config
	clock      *clock
	redis      *miniredis.Miniredis
	users      *testutil.Users
	contents   *testutil.Contents
	ratings    *testutil.Ratings
	subs       *testutil.Subscriptions
	tokens     repository.VerificationTokenRepository
	sessions   *auth.TokenManager
	gateway    *testutil.Gateway
	mailbox    *testutil.Mailbox
	dispatcher events.Dispatcher

	auth          *AuthService
	subscriptions *SubscriptionService
	content       *ContentService
	rating        *RatingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := config.Config{
		App:    config.AppConfig{PublicBaseURL: "http://localhost:5174"},
		Auth:   config.AuthConfig{JWTSecret: "test-secret", BcryptCost: 4, VerificationTTLSeconds: 900},
		Stripe: config.StripeConfig{Currency: "bdt"},
	}

	env := &testEnv{
		cfg:        cfg,
		clock:      &clock{now: time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC)},
		redis:      mr,
		users:      testutil.NewUsers(),
		contents:   testutil.NewContents(),
		subs:       testutil.NewSubscriptions(),
		tokens:     repository.NewVerificationTokenRepository(client, cfg.Auth.VerificationTTL()),
		sessions:   auth.NewTokenManager(cfg.Auth.JWTSecret, 24*time.Hour),
		gateway:    &testutil.Gateway{ValidSignature: "t=1,v1=good"},
		mailbox:    &testutil.Mailbox{},
		dispatcher: events.NewInMemoryDispatcher(),
	}
	env.ratings = testutil.NewRatings(env.users, env.contents)

	env.auth = NewAuthService(cfg, AuthDependencies{
		UserRepo:   env.users,
		TokenRepo:  env.tokens,
		Sessions:   env.sessions,
		Mailer:     env.mailbox,
		Dispatcher: env.dispatcher,
		Logger:     zap.NewNop(),
	})
	env.subscriptions = NewSubscriptionService(cfg.Stripe, SubscriptionDependencies{
		SubscriptionRepo: env.subs,
		Gateway:          env.gateway,
		Dispatcher:       env.dispatcher,
		Metrics:          observability.NewMetrics(),
		Logger:           zap.NewNop(),
		Now:              env.clock.Now,
	})
	env.content = NewContentService(env.contents, env.subscriptions)
	env.rating = NewRatingService(env.ratings, env.content)
	return env
}

func (e *testEnv) learner(name string) *domain.User {
	u := e.users.Put(domain.User{Name: name, Email: name + "@example.com", Role: domain.RoleLearner, Verified: true})
	return &u
}

func (e *testEnv) admin() *domain.User {
	u := e.users.Put(domain.User{Name: "root", Email: "root@example.com", Role: domain.RoleAdmin, Verified: true})
	return &u
}

func (e *testEnv) subscribe(userID string, plan domain.Plan, expiresIn time.Duration) domain.Subscription {
	now := e.clock.Now()
	return e.subs.Put(domain.Subscription{
		UserID:            userID,
		Plan:              plan,
		Price:             float64(plan.Price()),
		Status:            domain.SubscriptionActive,
		StartedAt:         now.Add(-time.Hour),
		ExpiresAt:         now.Add(expiresIn),
		CheckoutSessionID: "cs_" + testutil.NewID(),
	})
}

func (e *testEnv) createContent(t *testing.T, title string, tier domain.AccessTier) *domain.Content {
	t.Helper()
	c, err := e.content.Create(context.Background(), ContentInput{Title: title, Description: title + " description", Access: tier})
	require.NoError(t, err)
	return c
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %T: %v", err, err)
	require.Equal(t, code, domainErr.Code, domainErr.Message)
}
