package service

import (
	"context"
	"errors"
	"strings"

	"github.com/learnhub/content-subscriptions/internal/access"
	"github.com/learnhub/content-subscriptions/internal/domain"
	"github.com/learnhub/content-subscriptions/internal/repository"
	apperrors "github.com/learnhub/content-subscriptions/pkg/util/errorutil"
)

const (
	// SearchPageSize is the number of results per search page.
	SearchPageSize = 15
	// MaxSearchPage bounds the page number so the offset cannot overflow.
	MaxSearchPage = 1 << 20
)

// SubscriptionChecker reports whether a user holds an active subscription.
type SubscriptionChecker interface {
	HasActive(ctx context.Context, userID string) (bool, error)
}

// ContentInput is the editable part of a content item.
type ContentInput struct {
	Title       string
	Description string
	Access      domain.AccessTier
}

// ContentService serves content reads behind the access policy and admin writes.
type ContentService struct {
	contents      repository.ContentRepository
	subscriptions SubscriptionChecker
}

// NewContentService creates the service.
func NewContentService(contents repository.ContentRepository, subscriptions SubscriptionChecker) *ContentService {
	return &ContentService{contents: contents, subscriptions: subscriptions}
}

// List returns every item the caller is entitled to read.
func (s *ContentService) List(ctx context.Context, principal *domain.User) ([]domain.Content, error) {
	filter, err := s.entitlementFilter(ctx, principal)
	if err != nil {
		return nil, err
	}
	items, err := s.contents.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return items, nil
}

// Search matches query against content slugs. page is zero based.
func (s *ContentService) Search(ctx context.Context, principal *domain.User, query string, page int) ([]domain.Content, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("Search query is required!", nil)
	}
	if page < 0 {
		page = 0
	}
	if page > MaxSearchPage {
		return nil, apperrors.NewValidationError("Invalid page", map[string]any{"page": page, "max": MaxSearchPage})
	}

	filter, err := s.entitlementFilter(ctx, principal)
	if err != nil {
		return nil, err
	}
	filter.SlugContains = domain.SearchKey(query)
	filter.Limit = SearchPageSize
	filter.Offset = page * SearchPageSize

	items, err := s.contents.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return items, nil
}

// Get returns one item if the caller may read it. A missing item is
// reported as not found before any entitlement check.
func (s *ContentService) Get(ctx context.Context, principal *domain.User, id string) (*domain.Content, error) {
	content, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, principal, content, "Upgrade to access premium content"); err != nil {
		return nil, err
	}
	return content, nil
}

// Create stores a new item.
func (s *ContentService) Create(ctx context.Context, in ContentInput) (*domain.Content, error) {
	if err := validateContent(in); err != nil {
		return nil, err
	}
	content := &domain.Content{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Access:      in.Access,
	}
	content.Slug = domain.Slugify(content.Title, content.Description, content.Access)
	if err := s.contents.Create(ctx, content); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return content, nil
}

// Update replaces the editable fields of an item and recomputes its slug.
func (s *ContentService) Update(ctx context.Context, id string, in ContentInput) (*domain.Content, error) {
	if err := validateContent(in); err != nil {
		return nil, err
	}
	content := &domain.Content{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Access:      in.Access,
	}
	content.Slug = domain.Slugify(content.Title, content.Description, content.Access)
	if err := s.contents.Update(ctx, content); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("content", map[string]any{"id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return content, nil
}

// Delete removes an item together with its ratings.
func (s *ContentService) Delete(ctx context.Context, id string) error {
	if err := s.contents.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("content", map[string]any{"id": id})
		}
		return apperrors.NewInternalError(err)
	}
	return nil
}

func (s *ContentService) find(ctx context.Context, id string) (*domain.Content, error) {
	content, err := s.contents.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("content", map[string]any{"id": id})
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return content, nil
}

// authorizeRead applies the access policy, looking up the subscription only
// when the answer depends on it.
func (s *ContentService) authorizeRead(ctx context.Context, principal *domain.User, content *domain.Content, denial string) error {
	subscribed := false
	if access.NeedsSubscriptionCheck(principal.Role, content.Access) {
		var err error
		subscribed, err = s.subscriptions.HasActive(ctx, principal.ID)
		if err != nil {
			return err
		}
	}
	if access.CanAccess(principal.Role, subscribed, content.Access) != access.Allow {
		return apperrors.NewForbidden(denial)
	}
	return nil
}

func (s *ContentService) entitlementFilter(ctx context.Context, principal *domain.User) (repository.ContentFilter, error) {
	var filter repository.ContentFilter
	if principal.IsAdmin() {
		return filter, nil
	}
	subscribed, err := s.subscriptions.HasActive(ctx, principal.ID)
	if err != nil {
		return filter, err
	}
	if !access.SeesAllTiers(principal.Role, subscribed) {
		free := domain.AccessFree
		filter.Access = &free
	}
	return filter, nil
}

func validateContent(in ContentInput) error {
	details := map[string]any{}
	if strings.TrimSpace(in.Title) == "" {
		details["title"] = "required"
	}
	if strings.TrimSpace(in.Description) == "" {
		details["description"] = "required"
	}
	if !in.Access.Valid() {
		details["access"] = "must be free or premium"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("All fields are required", details)
	}
	return nil
}
