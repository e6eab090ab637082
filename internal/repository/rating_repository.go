package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/learnhub/content-subscriptions/internal/domain"
)

// RatingRepository defines persistence access for ratings.
type RatingRepository interface {
	// Upsert stores the rating for (UserID, ContentID), replacing any
	// previous value, and refreshes the content's average rating.
	Upsert(ctx context.Context, rating *domain.Rating) error
	// ListByContent returns ratings newest first with the rater's name.
	ListByContent(ctx context.Context, contentID string) ([]domain.Rating, error)
}

type ratingRepository struct {
	pool Pool
}

// NewRatingRepository returns a Postgres-backed implementation.
func NewRatingRepository(pool Pool) RatingRepository {
	return &ratingRepository{pool: pool}
}

func (r *ratingRepository) Upsert(ctx context.Context, rating *domain.Rating) error {
	const upsert = `
        INSERT INTO ratings (user_id, content_id, rating)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, content_id)
        DO UPDATE SET rating=EXCLUDED.rating, updated_at=NOW()
        RETURNING id, created_at, updated_at`

	const refreshAverage = `
        UPDATE contents SET average_rating=COALESCE(
            (SELECT ROUND(AVG(rating)::numeric, 1) FROM ratings WHERE content_id=$1), 0)
        WHERE id=$1`

	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, upsert,
			rating.UserID,
			rating.ContentID,
			rating.Value,
		).Scan(&rating.ID, &rating.CreatedAt, &rating.UpdatedAt); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, refreshAverage, rating.ContentID)
		return err
	})
	return translate(err)
}

func (r *ratingRepository) ListByContent(ctx context.Context, contentID string) ([]domain.Rating, error) {
	const query = `
        SELECT r.id, r.user_id, COALESCE(u.name, ''), r.content_id, r.rating, r.created_at, r.updated_at
        FROM ratings r
        LEFT JOIN users u ON u.id = r.user_id
        WHERE r.content_id=$1
        ORDER BY r.created_at DESC`

	rows, err := r.pool.Query(ctx, query, contentID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	ratings := make([]domain.Rating, 0)
	for rows.Next() {
		var rating domain.Rating
		if err := rows.Scan(
			&rating.ID,
			&rating.UserID,
			&rating.UserName,
			&rating.ContentID,
			&rating.Value,
			&rating.CreatedAt,
			&rating.UpdatedAt,
		); err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}
