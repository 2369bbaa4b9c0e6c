package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one transcript entry. Immutable once written.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
	Ts   int64  `json:"ts"` // unix milliseconds
}

func NewTurn(role, text string) Turn {
	return Turn{
		Role: role,
		Text: text,
		Ts:   time.Now().UnixMilli(),
	}
}

// IStore is the per-session transcript store. Turns are append-ordered;
// a sliding TTL is re-applied after every append.
type IStore interface {
	Append(ctx context.Context, sessionId string, turn Turn) error
	History(ctx context.Context, sessionId string) ([]Turn, error)
	Reset(ctx context.Context, sessionId string) error
}

// RedisStore keeps each session as an append-only Redis list of JSON turns
// under session:<id>:history.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		ttl: ttl,
	}
}

func historyKey(sessionId string) string {
	return fmt.Sprintf("session:%s:history", sessionId)
}

func (s *RedisStore) Append(ctx context.Context, sessionId string, turn Turn) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}

	key := historyKey(sessionId)
	if err := s.rdb.RPush(ctx, key, payload).Err(); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}

	// Sliding expiration, refreshed on every write.
	if err := s.rdb.Expire(ctx, key, s.ttl).Err(); err != nil {
		return fmt.Errorf("refresh session ttl: %w", err)
	}
	return nil
}

func (s *RedisStore) History(ctx context.Context, sessionId string) ([]Turn, error) {
	raw, err := s.rdb.LRange(ctx, historyKey(sessionId), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read session history: %w", err)
	}

	turns := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var turn Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("decode turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (s *RedisStore) Reset(ctx context.Context, sessionId string) error {
	if err := s.rdb.Del(ctx, historyKey(sessionId)).Err(); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	return nil
}
