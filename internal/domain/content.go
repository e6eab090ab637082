package domain

import (
	"regexp"
	"strings"
	"time"
)

// AccessTier is the access classification of a content item.
type AccessTier string

const (
	AccessFree    AccessTier = "free"
	AccessPremium AccessTier = "premium"
)

// Valid reports whether t is a known tier.
func (t AccessTier) Valid() bool {
	return t == AccessFree || t == AccessPremium
}

// Content is a learning item, free or premium.
type Content struct {
	ID            string
	Title         string
	Description   string
	Access        AccessTier
	Slug          string
	AverageRating float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// whitespaceRun also covers Unicode space separators such as NBSP.
var whitespaceRun = regexp.MustCompile(`[\s\p{Z}]+`)

// Slugify derives the search key of a content item. The result is lossy and
// not unique; it is only ever used for substring search.
func Slugify(title, description string, access AccessTier) string {
	joined := strings.ToLower(title + " " + description + " " + string(access))
	return whitespaceRun.ReplaceAllString(joined, "-")
}

// SearchKey turns a free text query into the form stored in slugs.
func SearchKey(query string) string {
	return strings.ReplaceAll(strings.ToLower(query), " ", "-")
}
