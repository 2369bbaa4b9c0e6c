package session

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests. They need a live Redis and are skipped unless
// REDIS_URL is set (e.g. redis://localhost:6379/0).
func setupRedisStore(t *testing.T) (*RedisStore, *redis.Client) {
	t.Helper()

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("Skipping integration test: REDIS_URL not set")
	}

	opt, err := redis.ParseURL(redisURL)
	require.NoError(t, err, "Failed to parse REDIS_URL")

	rdb := redis.NewClient(opt)
	_, err = rdb.Ping(context.Background()).Result()
	require.NoError(t, err, "Failed to connect to Redis")

	return NewRedisStore(rdb, 24*time.Hour), rdb
}

func TestRedisStoreAppendAndHistory(t *testing.T) {
	store, rdb := setupRedisStore(t)
	ctx := context.Background()

	sessionId := "test-" + uuid.NewString()
	t.Cleanup(func() {
		rdb.Del(ctx, fmt.Sprintf("session:%s:history", sessionId))
	})

	require.NoError(t, store.Append(ctx, sessionId, NewTurn(RoleUser, "first message")))
	require.NoError(t, store.Append(ctx, sessionId, NewTurn(RoleAssistant, "[streamed - check client]")))
	require.NoError(t, store.Append(ctx, sessionId, NewTurn(RoleUser, "second message")))

	turns, err := store.History(ctx, sessionId)
	require.NoError(t, err)
	require.Len(t, turns, 3)

	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, "first message", turns[0].Text)
	assert.Equal(t, RoleAssistant, turns[1].Role)
	assert.Equal(t, "second message", turns[2].Text)

	// Append order is transcript order.
	assert.LessOrEqual(t, turns[0].Ts, turns[1].Ts)
	assert.LessOrEqual(t, turns[1].Ts, turns[2].Ts)
}

func TestRedisStoreSlidingTTL(t *testing.T) {
	store, rdb := setupRedisStore(t)
	ctx := context.Background()

	sessionId := "test-" + uuid.NewString()
	key := fmt.Sprintf("session:%s:history", sessionId)
	t.Cleanup(func() {
		rdb.Del(ctx, key)
	})

	require.NoError(t, store.Append(ctx, sessionId, NewTurn(RoleUser, "hello")))

	ttl, err := rdb.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0), "every append must set an expiration")
	assert.LessOrEqual(t, ttl, 24*time.Hour)
}

func TestRedisStoreHistoryUnknownSession(t *testing.T) {
	store, _ := setupRedisStore(t)

	turns, err := store.History(context.Background(), "never-written-"+uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, turns, "unknown session reads as an empty transcript, not an error")
}

func TestRedisStoreReset(t *testing.T) {
	store, rdb := setupRedisStore(t)
	ctx := context.Background()

	sessionId := "test-" + uuid.NewString()
	t.Cleanup(func() {
		rdb.Del(ctx, fmt.Sprintf("session:%s:history", sessionId))
	})

	require.NoError(t, store.Append(ctx, sessionId, NewTurn(RoleUser, "to be deleted")))
	require.NoError(t, store.Reset(ctx, sessionId))

	turns, err := store.History(ctx, sessionId)
	require.NoError(t, err)
	assert.Empty(t, turns)

	// Resetting twice is fine.
	require.NoError(t, store.Reset(ctx, sessionId))
}

func TestNewTurnTimestamps(t *testing.T) {
	before := time.Now().UnixMilli()
	turn := NewTurn(RoleUser, "hi")
	after := time.Now().UnixMilli()

	assert.GreaterOrEqual(t, turn.Ts, before)
	assert.LessOrEqual(t, turn.Ts, after)
	assert.Equal(t, RoleUser, turn.Role)
	assert.Equal(t, "hi", turn.Text)
}
