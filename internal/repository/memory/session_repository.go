package memory

import (
	"context"
	"time"

	"talkzilla/internal/entity"
	"talkzilla/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache *cache.Cache
}

var _ contract.ChatSessionRepository = &SessionRepository{}

// NewSessionRepository keeps sessions for ttl after their last save and
// purges expired items every ttl/6.
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	cleanup := ttl / 6
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &SessionRepository{
		cache: cache.New(ttl, cleanup),
	}
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*entity.ChatSession, error) {
	if x, found := r.cache.Get(id); found {
		return x.(*entity.ChatSession).Clone(), nil
	}
	return nil, contract.ErrSessionNotFound
}

func (r *SessionRepository) Save(ctx context.Context, session *entity.ChatSession) error {
	r.cache.Set(session.Id, session.Clone(), cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
