package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"talkzilla/internal/entity"
	"talkzilla/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "talkzilla:session:"

// SessionRepository keeps session bags as JSON values so they survive a
// restart. Writes to one session are serialized by a per-process lock only,
// so concurrent instances serving the same session can overwrite each other.
type SessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ contract.ChatSessionRepository = &SessionRepository{}

func NewSessionRepository(rdb *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{rdb: rdb, ttl: ttl}
}

func key(id string) string {
	return keyPrefix + id
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*entity.ChatSession, error) {
	raw, err := r.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, contract.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var session entity.ChatSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) Save(ctx context.Context, session *entity.ChatSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.rdb.Set(ctx, key(session.Id), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}
