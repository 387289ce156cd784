package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"talkzilla/internal/constant"
	"talkzilla/internal/entity"
	"talkzilla/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real server when TEST_REDIS_URL is set.
func newTestRepository(t *testing.T) *SessionRepository {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)

	rdb := redis.NewClient(opt)
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}
	return NewSessionRepository(rdb, time.Minute)
}

func TestRedisSessionRepositoryRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	id := uuid.NewString()
	t.Cleanup(func() { repo.rdb.Del(context.Background(), key(id)) })

	_, err := repo.Get(ctx, id)
	assert.ErrorIs(t, err, contract.ErrSessionNotFound)

	s := entity.NewChatSession(id, 5, time.Now())
	s.AppendTurn(constant.ChatMessageRoleUser, "hello", 1, time.Now())
	s.SetDocument(entity.ChatDocument{Name: "a.txt", Content: "doc", Tokens: 1}, time.Now())
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, got.Turns, 2)
	assert.Equal(t, 1, got.TotalTokens)
	assert.Equal(t, "doc", got.Document.Content)
}

func TestRedisSessionRepositorySaveRefreshesExpiry(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	id := uuid.NewString()
	t.Cleanup(func() { repo.rdb.Del(context.Background(), key(id)) })

	require.NoError(t, repo.Save(ctx, entity.NewChatSession(id, 0, time.Now())))
	require.NoError(t, repo.rdb.Expire(ctx, key(id), time.Second).Err())

	require.NoError(t, repo.Save(ctx, entity.NewChatSession(id, 0, time.Now())))

	ttl, err := repo.rdb.TTL(ctx, key(id)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 30*time.Second)
}
