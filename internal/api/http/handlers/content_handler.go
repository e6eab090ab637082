package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/learnhub/content-subscriptions/internal/api/dto"
	"github.com/learnhub/content-subscriptions/internal/service"
)

// ContentHandler exposes content reads and admin writes.
type ContentHandler struct {
	contents *service.ContentService
}

// NewContentHandler constructs handler.
func NewContentHandler(contents *service.ContentService) *ContentHandler {
	return &ContentHandler{contents: contents}
}

// List handles GET /api/contents.
func (h *ContentHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	items, err := h.contents.List(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewContentList(items))
}

// Search handles GET /api/contents/search?q=&page=.
func (h *ContentHandler) Search(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	items, err := h.contents.Search(c.UserContext(), user, c.Query("q"), c.QueryInt("page", 0))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewContentList(items))
}

// Get handles GET /api/contents/:id.
func (h *ContentHandler) Get(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	content, err := h.contents.Get(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewContentResponse(content))
}

// Create handles POST /api/contents.
func (h *ContentHandler) Create(c *fiber.Ctx) error {
	req, err := contentRequest(c)
	if err != nil {
		return err
	}
	content, err := h.contents.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewContentResponse(content))
}

// Update handles PUT /api/contents/:id.
func (h *ContentHandler) Update(c *fiber.Ctx) error {
	req, err := contentRequest(c)
	if err != nil {
		return err
	}
	content, err := h.contents.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewContentResponse(content))
}

// Delete handles DELETE /api/contents/:id.
func (h *ContentHandler) Delete(c *fiber.Ctx) error {
	if err := h.contents.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Content deleted successfully!"})
}

func contentRequest(c *fiber.Ctx) (service.ContentInput, error) {
	var req dto.ContentRequest
	if err := parseBody(c, &req); err != nil {
		return service.ContentInput{}, err
	}
	if err := dto.Validate(&req, "All fields are required"); err != nil {
		return service.ContentInput{}, err
	}
	return service.ContentInput{Title: req.Title, Description: req.Description, Access: req.Access}, nil
}
