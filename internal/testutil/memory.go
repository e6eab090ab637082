// Package testutil provides in-memory stand-ins for the stores and external
// collaborators, for use in tests.
package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/learnhub/content-subscriptions/internal/domain"
	"github.com/learnhub/content-subscriptions/internal/repository"
)

// NewID returns a 24 hex character identifier like the database generates.
func NewID() string {
	b := make([]byte, 12)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Users is an in-memory repository.UserRepository.
type Users struct {
	mu    sync.Mutex
	byID  map[string]domain.User
	Clock func() time.Time
}

// NewUsers returns an empty store.
func NewUsers() *Users {
	return &Users{byID: map[string]domain.User{}, Clock: time.Now}
}

func (u *Users) Create(_ context.Context, user *domain.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, existing := range u.byID {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if user.Role == "" {
		user.Role = domain.RoleLearner
	}
	user.ID = NewID()
	user.CreatedAt = u.Clock()
	user.UpdatedAt = user.CreatedAt
	u.byID[user.ID] = *user
	return nil
}

func (u *Users) GetByID(_ context.Context, id string) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (u *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.byID {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (u *Users) MarkVerified(_ context.Context, id string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Verified = true
	u.byID[id] = user
	return nil
}

// Put stores user as is, assigning an id when missing.
func (u *Users) Put(user domain.User) domain.User {
	u.mu.Lock()
	defer u.mu.Unlock()
	if user.ID == "" {
		user.ID = NewID()
	}
	u.byID[user.ID] = user
	return user
}

// Contents is an in-memory repository.ContentRepository.
type Contents struct {
	mu    sync.Mutex
	items map[string]domain.Content
	seq   int
	Clock func() time.Time
}

// NewContents returns an empty store.
func NewContents() *Contents {
	return &Contents{items: map[string]domain.Content{}, Clock: time.Now}
}

func (c *Contents) Create(_ context.Context, content *domain.Content) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	content.ID = NewID()
	// Strictly increasing so newest-first ordering is deterministic.
	content.CreatedAt = c.Clock().Add(time.Duration(c.seq) * time.Millisecond)
	content.UpdatedAt = content.CreatedAt
	c.items[content.ID] = *content
	return nil
}

func (c *Contents) Update(_ context.Context, content *domain.Content) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing, ok := c.items[content.ID]
	if !ok {
		return repository.ErrNotFound
	}
	content.AverageRating = existing.AverageRating
	content.CreatedAt = existing.CreatedAt
	content.UpdatedAt = c.Clock()
	c.items[content.ID] = *content
	return nil
}

func (c *Contents) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(c.items, id)
	return nil
}

func (c *Contents) GetByID(_ context.Context, id string) (*domain.Content, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	content, ok := c.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &content, nil
}

func (c *Contents) List(_ context.Context, filter repository.ContentFilter) ([]domain.Content, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Content, 0, len(c.items))
	for _, item := range c.items {
		if filter.Access != nil && item.Access != *filter.Access {
			continue
		}
		if filter.SlugContains != "" && !strings.Contains(item.Slug, filter.SlugContains) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []domain.Content{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// setAverage is called by Ratings after every upsert.
func (c *Contents) setAverage(id string, avg float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if item, ok := c.items[id]; ok {
		item.AverageRating = avg
		c.items[id] = item
	}
}

// Ratings is an in-memory repository.RatingRepository keyed by (user, content).
type Ratings struct {
	mu       sync.Mutex
	byKey    map[[2]string]domain.Rating
	seq      int
	users    *Users
	contents *Contents
	Clock    func() time.Time
}

// NewRatings returns an empty store that resolves rater names from users
// and keeps the average rating of contents current.
func NewRatings(users *Users, contents *Contents) *Ratings {
	return &Ratings{byKey: map[[2]string]domain.Rating{}, users: users, contents: contents, Clock: time.Now}
}

func (r *Ratings) Upsert(ctx context.Context, rating *domain.Rating) error {
	if _, err := r.contents.GetByID(ctx, rating.ContentID); err != nil {
		return err
	}

	r.mu.Lock()
	key := [2]string{rating.UserID, rating.ContentID}
	now := r.Clock()
	if existing, ok := r.byKey[key]; ok {
		existing.Value = rating.Value
		existing.UpdatedAt = now
		r.byKey[key] = existing
		*rating = existing
	} else {
		r.seq++
		rating.ID = NewID()
		rating.CreatedAt = now.Add(time.Duration(r.seq) * time.Millisecond)
		rating.UpdatedAt = rating.CreatedAt
		r.byKey[key] = *rating
	}
	all := r.forContent(rating.ContentID)
	r.mu.Unlock()

	r.contents.setAverage(rating.ContentID, domain.AverageRating(all))
	return nil
}

func (r *Ratings) ListByContent(ctx context.Context, contentID string) ([]domain.Rating, error) {
	r.mu.Lock()
	out := r.forContent(contentID)
	r.mu.Unlock()

	for i := range out {
		if user, err := r.users.GetByID(ctx, out[i].UserID); err == nil {
			out[i].UserName = user.Name
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Count returns the number of stored ratings.
func (r *Ratings) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byKey)
}

func (r *Ratings) forContent(contentID string) []domain.Rating {
	out := make([]domain.Rating, 0)
	for _, rating := range r.byKey {
		if rating.ContentID == contentID {
			out = append(out, rating)
		}
	}
	return out
}

// Subscriptions is an in-memory repository.SubscriptionRepository.
type Subscriptions struct {
	mu    sync.Mutex
	items map[string]domain.Subscription
}

// NewSubscriptions returns an empty store.
func NewSubscriptions() *Subscriptions {
	return &Subscriptions{items: map[string]domain.Subscription{}}
}

func (s *Subscriptions) CreateFromCheckout(_ context.Context, sub *domain.Subscription) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.CheckoutSessionID == sub.CheckoutSessionID {
			return false, nil
		}
	}
	sub.ID = NewID()
	sub.CreatedAt = sub.StartedAt
	sub.UpdatedAt = sub.StartedAt
	s.items[sub.ID] = *sub
	return true, nil
}

func (s *Subscriptions) FindActive(_ context.Context, userID string) (*domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *domain.Subscription
	for _, sub := range s.items {
		if sub.UserID != userID || sub.Status != domain.SubscriptionActive {
			continue
		}
		if found == nil || sub.ExpiresAt.After(found.ExpiresAt) {
			candidate := sub
			found = &candidate
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (s *Subscriptions) Transition(_ context.Context, id string, from, to domain.SubscriptionStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.items[id]
	if !ok || sub.Status != from {
		return false, nil
	}
	sub.Status = to
	s.items[id] = sub
	return true, nil
}

// Put stores sub as is, assigning an id when missing.
func (s *Subscriptions) Put(sub domain.Subscription) domain.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.ID == "" {
		sub.ID = NewID()
	}
	s.items[sub.ID] = sub
	return sub
}

// Get returns the stored record by id.
func (s *Subscriptions) Get(id string) (domain.Subscription, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.items[id]
	return sub, ok
}

// All returns every stored record.
func (s *Subscriptions) All() []domain.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Subscription, 0, len(s.items))
	for _, sub := range s.items {
		out = append(out, sub)
	}
	return out
}

var (
	_ repository.UserRepository         = (*Users)(nil)
	_ repository.ContentRepository      = (*Contents)(nil)
	_ repository.RatingRepository       = (*Ratings)(nil)
	_ repository.SubscriptionRepository = (*Subscriptions)(nil)
)
