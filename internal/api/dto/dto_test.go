package dto

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/content-subscriptions/internal/domain"
	apperrors "github.com/learnhub/content-subscriptions/pkg/util/errorutil"
)

func TestValidateReportsFieldsByJSONName(t *testing.T) {
	err := Validate(&ContentRequest{Title: "x", Access: "gold"}, "All fields are required")
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, apperrors.CodeValidation, domainErr.Code)
	assert.Equal(t, "All fields are required", domainErr.Message)
	assert.Equal(t, map[string]any{
		"description": "required",
		"access":      "oneof=free premium",
	}, domainErr.Details)
}

func TestValidateRegister(t *testing.T) {
	assert.NoError(t, Validate(&RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"}, "bad"))
	assert.Error(t, Validate(&RegisterRequest{Name: "Ada", Email: "not-an-email", Password: "secret1"}, "bad"))
	assert.Error(t, Validate(&RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "123"}, "bad"))
}

func TestValidateRatingRange(t *testing.T) {
	for _, v := range []int{0, 6, -2} {
		assert.Error(t, Validate(&RatingRequest{Rating: v}, "bad"), v)
	}
	for v := 1; v <= 5; v++ {
		assert.NoError(t, Validate(&RatingRequest{Rating: v}, "bad"), v)
	}
}

func TestUserResponseOmitsPassword(t *testing.T) {
	resp := NewUserResponse(&domain.User{ID: "u1", Email: "a@b.c", PasswordHash: "$2a$hash", Verified: true})
	assert.Equal(t, "u1", resp.ID)
	assert.True(t, resp.IsEmailVerified)
}

func TestNewContentListNeverNil(t *testing.T) {
	assert.NotNil(t, NewContentList(nil))
}
