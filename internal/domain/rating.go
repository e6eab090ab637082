package domain

import (
	"math"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Rating is one user's score for one content item.
type Rating struct {
	ID        string
	UserID    string
	UserName  string
	ContentID string
	Value     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidRating reports whether v is within the accepted scale.
func ValidRating(v int) bool {
	return v >= MinRating && v <= MaxRating
}

// RatingSummary aggregates the ratings of a content item.
type RatingSummary struct {
	Total   int
	Average float64
	Ratings []Rating
}

// AverageRating returns the arithmetic mean rounded to one decimal, 0 for no ratings.
func AverageRating(ratings []Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Value
	}
	return math.Round(float64(sum)/float64(len(ratings))*10) / 10
}
