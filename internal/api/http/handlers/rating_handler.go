package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/learnhub/content-subscriptions/internal/api/dto"
	"github.com/learnhub/content-subscriptions/internal/service"
)

// RatingHandler exposes rating endpoints.
type RatingHandler struct {
	ratings *service.RatingService
}

// NewRatingHandler constructs handler.
func NewRatingHandler(ratings *service.RatingService) *RatingHandler {
	return &RatingHandler{ratings: ratings}
}

// Submit handles POST /api/ratings/:contentId.
func (h *RatingHandler) Submit(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.RatingRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := dto.Validate(&req, "Rating must be between 1 and 5"); err != nil {
		return err
	}

	rating, err := h.ratings.Submit(c.UserContext(), user, c.Params("contentId"), req.Rating)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.RatingSubmittedResponse{
		Message: "Rating submitted successfully",
		Rating:  dto.NewRatingResponse(rating),
	})
}

// Aggregate handles GET /api/ratings/:contentId.
func (h *RatingHandler) Aggregate(c *fiber.Ctx) error {
	summary, err := h.ratings.Aggregate(c.UserContext(), c.Params("contentId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewRatingSummaryResponse(summary))
}
