package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/learnhub/content-subscriptions/internal/auth"
	"github.com/learnhub/content-subscriptions/internal/config"
	"github.com/learnhub/content-subscriptions/internal/domain"
	"github.com/learnhub/content-subscriptions/internal/events"
	"github.com/learnhub/content-subscriptions/internal/mail"
	"github.com/learnhub/content-subscriptions/internal/repository"
	apperrors "github.com/learnhub/content-subscriptions/pkg/util/errorutil"
)

// AuthService coordinates registration, verification and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokens     repository.VerificationTokenRepository
	sessions   *auth.TokenManager
	mailer     mail.Mailer
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	baseURL    string
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	TokenRepo  repository.VerificationTokenRepository
	Sessions   *auth.TokenManager
	Mailer     mail.Mailer
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// RegisterInput is the payload of a registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     deps.TokenRepo,
		sessions:   deps.Sessions,
		mailer:     deps.Mailer,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
		baseURL:    cfg.App.PublicBaseURL,
		now:        time.Now,
	}
}

// Register creates an unverified account and mails its verification link.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, apperrors.NewValidationError("All fields are required", nil)
	}

	// The unique index on email is the real guard; this only saves a hash.
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.NewConflict("User already exists", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         domain.RoleLearner,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("User already exists", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}

	if err := s.sendVerification(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(events.EventUserRegistered, user.ID, s.now(), events.UserRegisteredPayload{
		Name:  user.Name,
		Email: user.Email,
	}))
	return user, nil
}

// Verify marks the user verified when token matches the live token.
func (s *AuthService) Verify(ctx context.Context, userID, token string) error {
	if userID == "" || token == "" {
		return apperrors.NewValidationError("Invalid link", nil)
	}

	live, err := s.tokens.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewValidationError("Invalid link", nil)
	}
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if live.Token != token {
		return apperrors.NewValidationError("Invalid link", nil)
	}

	if err := s.users.MarkVerified(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewValidationError("Invalid link", nil)
		}
		return apperrors.NewInternalError(err)
	}
	if err := s.tokens.Delete(ctx, userID); err != nil {
		// The token expires on its own; a verified user never needs it again.
		s.logger.Warn("delete verification token", zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}

// Login checks the credentials and issues a session for verified users.
// Unverified users get their verification link again instead.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, apperrors.NewValidationError("Please provide email and password", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apperrors.NewUnauthorized("Invalid email or password")
	}
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, nil, apperrors.NewValidationError("Invalid credentials!", nil)
		}
		return nil, nil, apperrors.NewInternalError(err)
	}

	if !user.Verified {
		if err := s.sendVerification(ctx, user); err != nil {
			return nil, nil, err
		}
		return nil, nil, apperrors.NewEmailNotVerified("Please verify your email first. A verification link has been sent to your email.")
	}

	session, err := s.sessions.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	return user, session, nil
}

// CurrentUser loads the account of an authenticated caller.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("user", nil)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// VerificationURL is the link mailed to the user.
func (s *AuthService) VerificationURL(userID, token string) string {
	return fmt.Sprintf("%s/api/auth/verify/%s/%s", s.baseURL, userID, token)
}

// sendVerification issues a token, or reuses the live one, and mails its link.
func (s *AuthService) sendVerification(ctx context.Context, user *domain.User) error {
	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	msg := mail.Message{
		To:      user.Email,
		Subject: "Verify your email",
		Body: fmt.Sprintf("Hi %s,\n\nConfirm your email address by opening the link below. It expires at %s.\n\n%s\n",
			user.Name, token.ExpiresAt.UTC().Format(time.RFC1123), s.VerificationURL(user.ID, token.Token)),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
