package dto

import (
	"time"

	"github.com/learnhub/content-subscriptions/internal/domain"
)

// ContentRequest payload for creating and replacing content.
type ContentRequest struct {
	Title       string            `json:"title" validate:"required,max=200"`
	Description string            `json:"description" validate:"required"`
	Access      domain.AccessTier `json:"access" validate:"required,oneof=free premium"`
}

// ContentResponse represents a content item.
type ContentResponse struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Access        domain.AccessTier `json:"access"`
	Slug          string            `json:"slug"`
	AverageRating float64           `json:"averageRating"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// NewContentResponse maps a content item.
func NewContentResponse(c *domain.Content) ContentResponse {
	return ContentResponse{
		ID:            c.ID,
		Title:         c.Title,
		Description:   c.Description,
		Access:        c.Access,
		Slug:          c.Slug,
		AverageRating: c.AverageRating,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// NewContentList maps a listing, never returning null.
func NewContentList(items []domain.Content) []ContentResponse {
	out := make([]ContentResponse, 0, len(items))
	for i := range items {
		out = append(out, NewContentResponse(&items[i]))
	}
	return out
}
