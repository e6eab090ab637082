package dto

import (
	"time"

	"github.com/learnhub/content-subscriptions/internal/domain"
)

// RatingRequest payload for rating a content item.
type RatingRequest struct {
	Rating int `json:"rating" validate:"required,min=1,max=5"`
}

// RaterResponse identifies who submitted a rating.
type RaterResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RatingResponse represents one rating.
type RatingResponse struct {
	ID        string        `json:"id"`
	User      RaterResponse `json:"user"`
	ContentID string        `json:"contentId"`
	Rating    int           `json:"rating"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// RatingSubmittedResponse acknowledges a rating.
type RatingSubmittedResponse struct {
	Message string         `json:"message"`
	Rating  RatingResponse `json:"rating"`
}

// RatingSummaryResponse aggregates a content item's ratings.
type RatingSummaryResponse struct {
	TotalRatings  int              `json:"totalRatings"`
	AverageRating float64          `json:"averageRating"`
	Ratings       []RatingResponse `json:"ratings"`
}

// NewRatingResponse maps a rating.
func NewRatingResponse(r *domain.Rating) RatingResponse {
	return RatingResponse{
		ID:        r.ID,
		User:      RaterResponse{ID: r.UserID, Name: r.UserName},
		ContentID: r.ContentID,
		Rating:    r.Value,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// NewRatingSummaryResponse maps an aggregate.
func NewRatingSummaryResponse(s *domain.RatingSummary) RatingSummaryResponse {
	ratings := make([]RatingResponse, 0, len(s.Ratings))
	for i := range s.Ratings {
		ratings = append(ratings, NewRatingResponse(&s.Ratings[i]))
	}
	return RatingSummaryResponse{
		TotalRatings:  s.Total,
		AverageRating: s.Average,
		Ratings:       ratings,
	}
}
