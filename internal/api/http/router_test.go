package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/learnhub/content-subscriptions/internal/api/http"
	"github.com/learnhub/content-subscriptions/internal/api/http/handlers"
	"github.com/learnhub/content-subscriptions/internal/auth"
	"github.com/learnhub/content-subscriptions/internal/config"
	"github.com/learnhub/content-subscriptions/internal/domain"
	"github.com/learnhub/content-subscriptions/internal/events"
	"github.com/learnhub/content-subscriptions/internal/observability"
	"github.com/learnhub/content-subscriptions/internal/persistence"
	"github.com/learnhub/content-subscriptions/internal/repository"
	"github.com/learnhub/content-subscriptions/internal/service"
	"github.com/learnhub/content-subscriptions/internal/testutil"
)

const validSignature = "t=1,v1=good"

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type harness struct {
	app      *fiber.App
	users    *testutil.Users
	contents *testutil.Contents
	ratings  *testutil.Ratings
	subs     *testutil.Subscriptions
	gateway  *testutil.Gateway
	mailbox  *testutil.Mailbox
	sessions *auth.TokenManager
}

type harnessOptions struct {
	rateLimit int
	postgres  error
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	rdb := &persistence.Redis{Client: client}

	cfg := config.Config{
		App:    config.AppConfig{Name: "content-subscriptions", Version: "test", PublicBaseURL: "http://localhost:5174"},
		Auth:   config.AuthConfig{JWTSecret: "test-secret", BcryptCost: 4, CookieName: "token", CookieSecure: true},
		Stripe: config.StripeConfig{Currency: "bdt"},
	}
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	h := &harness{
		users:    testutil.NewUsers(),
		contents: testutil.NewContents(),
		subs:     testutil.NewSubscriptions(),
		gateway:  &testutil.Gateway{ValidSignature: validSignature},
		mailbox:  &testutil.Mailbox{},
		sessions: auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL()),
	}
	h.ratings = testutil.NewRatings(h.users, h.contents)

	dispatcher := events.NewInMemoryDispatcher()
	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:   h.users,
		TokenRepo:  repository.NewVerificationTokenRepository(client, 900*time.Second),
		Sessions:   h.sessions,
		Mailer:     h.mailbox,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	subscriptions := service.NewSubscriptionService(cfg.Stripe, service.SubscriptionDependencies{
		SubscriptionRepo: h.subs,
		Gateway:          h.gateway,
		Dispatcher:       dispatcher,
		Metrics:          metrics,
		Logger:           logger,
	})
	contents := service.NewContentService(h.contents, subscriptions)
	ratings := service.NewRatingService(h.ratings, contents)

	cookie := auth.CookieSettings{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure}
	h.app = fiber.New()
	httptransport.RegisterMiddlewares(h.app, logger, metrics, 5*time.Second)
	httptransport.RegisterRoutes(h.app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pinger{err: opts.postgres},
			"redis":    rdb,
		}),
		Auth:           handlers.NewAuthHandler(authService, cookie),
		Contents:       handlers.NewContentHandler(contents),
		Ratings:        handlers.NewRatingHandler(ratings),
		Subscriptions:  handlers.NewSubscriptionHandler(subscriptions),
		Webhooks:       handlers.NewWebhookHandler(subscriptions),
		AuthMiddleware: auth.NewAuthMiddleware(h.sessions, h.users, cookie),
		RateLimit:      httptransport.NewRateLimiter(rdb, opts.rateLimit, time.Minute, logger),
		Metrics:        metrics,
	})
	return h
}

type request struct {
	method  string
	path    string
	body    any
	raw     []byte
	cookie  string
	headers map[string]string
}

type response struct {
	*http.Response
	body []byte
}

func (r response) json(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

func (r response) errorCode(t *testing.T) string {
	t.Helper()
	envelope, ok := r.json(t)["error"].(map[string]any)
	require.True(t, ok, string(r.body))
	return envelope["code"].(string)
}

func (r response) cookie(name string) *http.Cookie {
	for _, c := range r.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (h *harness) do(t *testing.T, r request) response {
	t.Helper()
	var body io.Reader
	switch {
	case r.raw != nil:
		body = bytes.NewReader(r.raw)
	case r.body != nil:
		payload, err := json.Marshal(r.body)
		require.NoError(t, err)
		body = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.cookie != "" {
		req.Header.Set("Cookie", "token="+r.cookie)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return response{Response: resp, body: data}
}

func (h *harness) sessionFor(t *testing.T, user domain.User) string {
	t.Helper()
	session, err := h.sessions.GenerateToken(user.ID, user.Role)
	require.NoError(t, err)
	return session.Token
}

func (h *harness) learner(t *testing.T, name string) (domain.User, string) {
	u := h.users.Put(domain.User{Name: name, Email: name + "@example.com", Role: domain.RoleLearner, Verified: true})
	return u, h.sessionFor(t, u)
}

func (h *harness) admin(t *testing.T) (domain.User, string) {
	u := h.users.Put(domain.User{Name: "root", Email: "root@example.com", Role: domain.RoleAdmin, Verified: true})
	return u, h.sessionFor(t, u)
}

func (h *harness) content(t *testing.T, title string, tier domain.AccessTier) domain.Content {
	t.Helper()
	c := &domain.Content{Title: title, Description: "about " + title, Access: tier}
	c.Slug = domain.Slugify(c.Title, c.Description, c.Access)
	require.NoError(t, h.contents.Create(context.Background(), c))
	return *c
}

func TestSessionRoutesRequireAuthentication(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodGet, "/api/users/me"},
		{http.MethodGet, "/api/contents"},
		{http.MethodGet, "/api/contents/search?q=go"},
		{http.MethodGet, "/api/contents/aaaaaaaaaaaaaaaaaaaaaaaa"},
		{http.MethodPost, "/api/contents"},
		{http.MethodPut, "/api/contents/aaaaaaaaaaaaaaaaaaaaaaaa"},
		{http.MethodDelete, "/api/contents/aaaaaaaaaaaaaaaaaaaaaaaa"},
		{http.MethodPost, "/api/ratings/aaaaaaaaaaaaaaaaaaaaaaaa"},
		{http.MethodGet, "/api/ratings/aaaaaaaaaaaaaaaaaaaaaaaa"},
		{http.MethodPost, "/api/subscriptions/subscribe"},
		{http.MethodGet, "/api/subscriptions/me"},
		{http.MethodDelete, "/api/subscriptions/cancel"},
		{http.MethodGet, "/api/subscriptions/payment-success"},
		{http.MethodGet, "/api/subscriptions/payment-cancelled"},
	}
	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			resp := h.do(t, request{method: route.method, path: route.path})
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "UNAUTHORIZED", resp.errorCode(t))

			resp = h.do(t, request{method: route.method, path: route.path, cookie: "not-a-jwt"})
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestSessionForDeletedUserIsRejected(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	token := h.sessionFor(t, domain.User{ID: "ffffffffffffffffffffffff", Role: domain.RoleAdmin})

	resp := h.do(t, request{method: http.MethodGet, path: "/api/users/me", cookie: token})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNonAdminMutationsAreForbiddenWhateverThePayload(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	_, token := h.learner(t, "ada")
	c := h.content(t, "Intro", domain.AccessFree)

	payloads := []any{
		nil,
		map[string]any{"title": "x"},
		map[string]any{"title": "x", "description": "y", "access": "free"},
	}
	for _, payload := range payloads {
		for _, r := range []request{
			{method: http.MethodPost, path: "/api/contents", body: payload},
			{method: http.MethodPut, path: "/api/contents/" + c.ID, body: payload},
			{method: http.MethodDelete, path: "/api/contents/" + c.ID, body: payload},
		} {
			r.cookie = token
			resp := h.do(t, r)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode, r.method)
			assert.Equal(t, "Forbidden: Admins only!", resp.json(t)["error"].(map[string]any)["message"])
		}
	}
	stored, err := h.contents.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Intro", stored.Title)
}

func TestAdminContentLifecycle(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	_, token := h.admin(t)

	resp := h.do(t, request{method: http.MethodPost, path: "/api/contents", cookie: token, body: map[string]any{"title": "x"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", resp.errorCode(t))

	resp = h.do(t, request{method: http.MethodPost, path: "/api/contents", cookie: token, body: map[string]any{
		"title": "Go Basics", "description": "Learn Go", "access": "premium",
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.body))
	created := resp.json(t)
	id := created["id"].(string)
	assert.Len(t, id, 24)
	assert.Equal(t, "go-basics-learn-go-premium", created["slug"])

	resp = h.do(t, request{method: http.MethodPut, path: "/api/contents/" + id, cookie: token, body: map[string]any{
		"title": "Go Basics", "description": "Learn Go fast", "access": "free",
	}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "go-basics-learn-go-fast-free", resp.json(t)["slug"])

	resp = h.do(t, request{method: http.MethodDelete, path: "/api/contents/" + id, cookie: token})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = h.do(t, request{method: http.MethodGet, path: "/api/contents/" + id, cookie: token})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", resp.errorCode(t))
}

func TestRegisterVerifyLoginOverHTTP(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	creds := map[string]any{"email": "ada@example.com", "password": "s3cret!"}

	resp := h.do(t, request{method: http.MethodPost, path: "/api/auth/register", body: map[string]any{
		"name": "Ada", "email": "ada@example.com", "password": "s3cret!",
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.body))
	assert.Nil(t, resp.cookie("token"))
	assert.NotContains(t, string(resp.body), "password")

	resp = h.do(t, request{method: http.MethodPost, path: "/api/auth/register", body: map[string]any{
		"name": "Ada", "email": "ada@example.com", "password": "s3cret!",
	}})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = h.do(t, request{method: http.MethodPost, path: "/api/auth/login", body: creds})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "EMAIL_NOT_VERIFIED", resp.errorCode(t))
	assert.Nil(t, resp.cookie("token"))

	msg, ok := h.mailbox.Last()
	require.True(t, ok)
	idx := strings.Index(msg.Body, "http://localhost:5174/api/auth/verify/")
	require.NotEqual(t, -1, idx)
	link, err := url.Parse(strings.Fields(msg.Body[idx:])[0])
	require.NoError(t, err)

	resp = h.do(t, request{method: http.MethodGet, path: link.Path + "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(t, request{method: http.MethodGet, path: link.Path})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.body))

	resp = h.do(t, request{method: http.MethodPost, path: "/api/auth/login", body: map[string]any{
		"email": "ada@example.com", "password": "wrong-password",
	}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(t, request{method: http.MethodPost, path: "/api/auth/login", body: map[string]any{
		"email": "nobody@example.com", "password": "s3cret!",
	}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = h.do(t, request{method: http.MethodPost, path: "/api/auth/login", body: creds})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.body))

	session := resp.cookie("token")
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.True(t, session.Secure)
	assert.Equal(t, http.SameSiteStrictMode, session.SameSite)
	assert.NotEmpty(t, session.Value)
	assert.NotContains(t, string(resp.body), session.Value)

	claims, err := h.sessions.ParseToken(session.Value)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleLearner, claims.Role)

	resp = h.do(t, request{method: http.MethodGet, path: "/api/users/me", cookie: session.Value})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := resp.json(t)
	assert.Equal(t, "ada@example.com", me["email"])
	assert.Equal(t, true, me["isEmailVerified"])
	assert.NotContains(t, string(resp.body), "$2a$")

	resp = h.do(t, request{method: http.MethodPost, path: "/api/auth/logout", cookie: session.Value})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cleared := resp.cookie("token")
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.True(t, cleared.Expires.Before(time.Now()))
}

func TestPremiumContentUnlocksAfterPayment(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	user, token := h.learner(t, "ada")
	premium := h.content(t, "Advanced Go", domain.AccessPremium)
	h.content(t, "Intro", domain.AccessFree)

	resp := h.do(t, request{method: http.MethodGet, path: "/api/contents/" + premium.ID, cookie: token})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", resp.errorCode(t))

	resp = h.do(t, request{method: http.MethodGet, path: "/api/contents", cookie: token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(resp.body, &listed))
	assert.Len(t, listed, 1)

	resp = h.do(t, request{method: http.MethodPost, path: "/api/subscriptions/subscribe", cookie: token, body: map[string]any{"plan": "weekly"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(t, request{method: http.MethodPost, path: "/api/subscriptions/subscribe", cookie: token, body: map[string]any{"plan": "monthly"}})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.body))
	assert.Contains(t, resp.json(t)["checkoutUrl"], "https://checkout.example.com/")

	resp = h.do(t, request{method: http.MethodGet, path: "/api/subscriptions/me", cookie: token})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	h.gateway.CompletedCheckout("cs_1", user.ID, "monthly", 10000)
	payload := []byte(`{"id":"evt_cs_1","type":"checkout.session.completed"}`)

	resp = h.do(t, request{method: http.MethodPost, path: "/api/webhooks/stripe", raw: payload,
		headers: map[string]string{"Stripe-Signature": "t=1,v1=forged"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "WEBHOOK_REJECTED", resp.errorCode(t))
	assert.Empty(t, h.subs.All())

	for i := 0; i < 2; i++ {
		resp = h.do(t, request{method: http.MethodPost, path: "/api/webhooks/stripe", raw: payload,
			headers: map[string]string{"Stripe-Signature": validSignature}})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.body))
		assert.Equal(t, true, resp.json(t)["received"])
	}
	assert.Len(t, h.subs.All(), 1)

	resp = h.do(t, request{method: http.MethodGet, path: "/api/contents/" + premium.ID, cookie: token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Advanced Go", resp.json(t)["title"])

	resp = h.do(t, request{method: http.MethodGet, path: "/api/subscriptions/me", cookie: token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "monthly", resp.json(t)["plan"])
	assert.Equal(t, 100.0, resp.json(t)["price"])

	resp = h.do(t, request{method: http.MethodPost, path: "/api/subscriptions/subscribe", cookie: token, body: map[string]any{"plan": "yearly"}})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = h.do(t, request{method: http.MethodDelete, path: "/api/subscriptions/cancel", cookie: token})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = h.do(t, request{method: http.MethodGet, path: "/api/contents/" + premium.ID, cookie: token})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = h.do(t, request{method: http.MethodDelete, path: "/api/subscriptions/cancel", cookie: token})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRatingsOverHTTP(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	_, token := h.learner(t, "ada")
	c := h.content(t, "Intro", domain.AccessFree)
	path := "/api/ratings/" + c.ID

	for _, v := range []any{0, 6, "five"} {
		resp := h.do(t, request{method: http.MethodPost, path: path, cookie: token, body: map[string]any{"rating": v}})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, v)
	}
	assert.Zero(t, h.ratings.Count())

	for _, v := range []int{2, 4} {
		resp := h.do(t, request{method: http.MethodPost, path: path, cookie: token, body: map[string]any{"rating": v}})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.body))
	}
	assert.Equal(t, 1, h.ratings.Count())

	resp := h.do(t, request{method: http.MethodGet, path: path, cookie: token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := resp.json(t)
	assert.Equal(t, 1.0, summary["totalRatings"])
	assert.Equal(t, 4.0, summary["averageRating"])
	ratings := summary["ratings"].([]any)
	require.Len(t, ratings, 1)
	assert.Equal(t, "ada", ratings[0].(map[string]any)["user"].(map[string]any)["name"])

	resp = h.do(t, request{method: http.MethodGet, path: "/api/ratings/aaaaaaaaaaaaaaaaaaaaaaaa", cookie: token})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchOverHTTP(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	_, token := h.learner(t, "ada")
	h.content(t, "Go Basics", domain.AccessFree)

	resp := h.do(t, request{method: http.MethodGet, path: "/api/contents/search", cookie: token})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(t, request{method: http.MethodGet, path: "/api/contents/search?q=go%20basics&page=0", cookie: token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var found []map[string]any
	require.NoError(t, json.Unmarshal(resp.body, &found))
	require.Len(t, found, 1)
	assert.Equal(t, "Go Basics", found[0]["title"])
}

func TestLoginIsRateLimited(t *testing.T) {
	h := newHarness(t, harnessOptions{rateLimit: 2})
	creds := map[string]any{"email": "nobody@example.com", "password": "pw"}

	for i := 0; i < 2; i++ {
		resp := h.do(t, request{method: http.MethodPost, path: "/api/auth/login", body: creds})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	resp := h.do(t, request{method: http.MethodPost, path: "/api/auth/login", body: creds})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMITED", resp.errorCode(t))
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))

	// Counted per route.
	resp = h.do(t, request{method: http.MethodPost, path: "/api/auth/register", body: map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	resp := h.do(t, request{method: http.MethodGet, path: "/api/nope"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", resp.errorCode(t))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	resp := h.do(t, request{method: http.MethodGet, path: "/health/live"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = h.do(t, request{method: http.MethodGet, path: "/health/ready"})
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(resp.body))

	resp = h.do(t, request{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(resp.body), "content_subscriptions_http_requests_total")

	down := newHarness(t, harnessOptions{postgres: errors.New("connection refused")})
	resp = down.do(t, request{method: http.MethodGet, path: "/health/ready"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", resp.errorCode(t))
}
