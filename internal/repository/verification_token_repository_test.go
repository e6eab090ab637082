package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenRepo(t *testing.T) (VerificationTokenRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewVerificationTokenRepository(client, 900*time.Second), mr
}

func TestIssueCreatesTokenWithTTL(t *testing.T) {
	repo, mr := newTokenRepo(t)
	ctx := context.Background()

	token, err := repo.Issue(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", token.UserID)
	assert.NotEmpty(t, token.Token)
	assert.Equal(t, 900*time.Second, mr.TTL(verificationKeyPrefix+"u1"))
}

func TestIssueReusesLiveToken(t *testing.T) {
	repo, _ := newTokenRepo(t)
	ctx := context.Background()

	first, err := repo.Issue(ctx, "u1")
	require.NoError(t, err)
	second, err := repo.Issue(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.Token, second.Token)
}

func TestIssueConcurrentCallersShareOneToken(t *testing.T) {
	repo, _ := newTokenRepo(t)
	ctx := context.Background()

	const callers = 8
	tokens := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := repo.Issue(ctx, "u1")
			if assert.NoError(t, err) {
				tokens[i] = tok.Token
			}
		}(i)
	}
	wg.Wait()

	for _, tok := range tokens {
		assert.Equal(t, tokens[0], tok)
	}
}

func TestTokenExpires(t *testing.T) {
	repo, mr := newTokenRepo(t)
	ctx := context.Background()

	_, err := repo.Issue(ctx, "u1")
	require.NoError(t, err)

	mr.FastForward(901 * time.Second)
	_, err = repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRemovesToken(t *testing.T) {
	repo, _ := newTokenRepo(t)
	ctx := context.Background()

	_, err := repo.Issue(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, "u1"))

	_, err = repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}
