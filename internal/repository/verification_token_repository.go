package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/learnhub/content-subscriptions/internal/domain"
)

const verificationKeyPrefix = "verify:"

// VerificationTokenRepository manages email verification tokens. Tokens
// expire on their own after the configured TTL.
type VerificationTokenRepository interface {
	// Issue returns the user's live token, creating one when none exists.
	// At most one live token exists per user.
	Issue(ctx context.Context, userID string) (*domain.VerificationToken, error)
	Get(ctx context.Context, userID string) (*domain.VerificationToken, error)
	Delete(ctx context.Context, userID string) error
}

type verificationTokenRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewVerificationTokenRepository constructs a Redis-backed repository.
func NewVerificationTokenRepository(client *redis.Client, ttl time.Duration) VerificationTokenRepository {
	return &verificationTokenRepository{client: client, ttl: ttl}
}

func (r *verificationTokenRepository) Issue(ctx context.Context, userID string) (*domain.VerificationToken, error) {
	token := uuid.NewString()
	created, err := r.client.SetNX(ctx, verificationKeyPrefix+userID, token, r.ttl).Result()
	if err != nil {
		return nil, err
	}
	if created {
		return &domain.VerificationToken{UserID: userID, Token: token, ExpiresAt: time.Now().Add(r.ttl)}, nil
	}
	// Another request won the race; reuse its token.
	return r.Get(ctx, userID)
}

func (r *verificationTokenRepository) Get(ctx context.Context, userID string) (*domain.VerificationToken, error) {
	key := verificationKeyPrefix + userID
	pipe := r.client.Pipeline()
	getCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	token, err := getCmd.Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(r.ttl)
	if ttl := ttlCmd.Val(); ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	return &domain.VerificationToken{UserID: userID, Token: token, ExpiresAt: expiresAt}, nil
}

func (r *verificationTokenRepository) Delete(ctx context.Context, userID string) error {
	return r.client.Del(ctx, verificationKeyPrefix+userID).Err()
}
