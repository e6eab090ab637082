package repository

import (
	"context"

	"github.com/learnhub/content-subscriptions/internal/domain"
)

// SubscriptionRepository defines persistence access for subscriptions.
type SubscriptionRepository interface {
	// CreateFromCheckout inserts a subscription keyed by its checkout session.
	// It reports false without error when that session was already recorded.
	CreateFromCheckout(ctx context.Context, sub *domain.Subscription) (bool, error)
	// FindActive returns the user's subscription still marked active, if any,
	// regardless of its expiry.
	FindActive(ctx context.Context, userID string) (*domain.Subscription, error)
	// Transition moves a subscription from one status to another. It reports
	// false when the record was no longer in the expected status.
	Transition(ctx context.Context, id string, from, to domain.SubscriptionStatus) (bool, error)
}

type subscriptionRepository struct {
	pool Pool
}

// NewSubscriptionRepository returns a Postgres-backed implementation.
func NewSubscriptionRepository(pool Pool) SubscriptionRepository {
	return &subscriptionRepository{pool: pool}
}

func (r *subscriptionRepository) CreateFromCheckout(ctx context.Context, sub *domain.Subscription) (bool, error) {
	const query = `
        INSERT INTO subscriptions (user_id, plan, price, status, started_at, expires_at, checkout_session_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (checkout_session_id) DO NOTHING
        RETURNING id, created_at, updated_at`

	rows, err := r.pool.Query(ctx, query,
		sub.UserID,
		sub.Plan,
		sub.Price,
		sub.Status,
		sub.StartedAt,
		sub.ExpiresAt,
		sub.CheckoutSessionID,
	)
	if err != nil {
		return false, translate(err)
	}
	defer rows.Close()

	if !rows.Next() {
		return false, translate(rows.Err())
	}
	if err := rows.Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return false, err
	}
	return true, nil
}

func (r *subscriptionRepository) FindActive(ctx context.Context, userID string) (*domain.Subscription, error) {
	const query = `
        SELECT id, user_id, plan, price::float8, status, started_at, expires_at, checkout_session_id, created_at, updated_at
        FROM subscriptions
        WHERE user_id=$1 AND status='active'
        ORDER BY expires_at DESC
        LIMIT 1`

	var sub domain.Subscription
	if err := r.pool.QueryRow(ctx, query, userID).Scan(
		&sub.ID,
		&sub.UserID,
		&sub.Plan,
		&sub.Price,
		&sub.Status,
		&sub.StartedAt,
		&sub.ExpiresAt,
		&sub.CheckoutSessionID,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (r *subscriptionRepository) Transition(ctx context.Context, id string, from, to domain.SubscriptionStatus) (bool, error) {
	const query = `
        UPDATE subscriptions SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3`

	cmd, err := r.pool.Exec(ctx, query, to, id, from)
	if err != nil {
		return false, translate(err)
	}
	return cmd.RowsAffected() == 1, nil
}
