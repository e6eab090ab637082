package service

import (
	"context"
	"errors"

	"github.com/learnhub/content-subscriptions/internal/domain"
	"github.com/learnhub/content-subscriptions/internal/repository"
	apperrors "github.com/learnhub/content-subscriptions/pkg/util/errorutil"
)

// RatingService records and aggregates content ratings.
type RatingService struct {
	ratings  repository.RatingRepository
	contents *ContentService
}

// NewRatingService creates the service. Content lookups and the premium
// gate are shared with contents.
func NewRatingService(ratings repository.RatingRepository, contents *ContentService) *RatingService {
	return &RatingService{ratings: ratings, contents: contents}
}

// Submit stores the caller's rating of a content item, replacing an
// earlier rating by the same caller.
func (s *RatingService) Submit(ctx context.Context, principal *domain.User, contentID string, value int) (*domain.Rating, error) {
	if !domain.ValidRating(value) {
		return nil, apperrors.NewValidationError("Rating must be between 1 and 5", map[string]any{"rating": value})
	}

	content, err := s.contents.find(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if err := s.contents.authorizeRead(ctx, principal, content, "Only subscribers can rate premium content"); err != nil {
		return nil, err
	}

	rating := &domain.Rating{
		UserID:    principal.ID,
		UserName:  principal.Name,
		ContentID: content.ID,
		Value:     value,
	}
	if err := s.ratings.Upsert(ctx, rating); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperrors.NewConflict("You already rated this content", nil)
		case errors.Is(err, repository.ErrNotFound):
			// Deleted between the lookup and the write.
			return nil, apperrors.NewNotFound("content", map[string]any{"id": contentID})
		default:
			return nil, apperrors.NewInternalError(err)
		}
	}
	return rating, nil
}

// Aggregate lists the ratings of a content item, newest first, with their
// count and mean.
func (s *RatingService) Aggregate(ctx context.Context, contentID string) (*domain.RatingSummary, error) {
	if _, err := s.contents.find(ctx, contentID); err != nil {
		return nil, err
	}
	ratings, err := s.ratings.ListByContent(ctx, contentID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &domain.RatingSummary{
		Total:   len(ratings),
		Average: domain.AverageRating(ratings),
		Ratings: ratings,
	}, nil
}
