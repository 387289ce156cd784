package session

import (
	"context"
	"errors"
	"time"

	"talkzilla/internal/constant"
	"talkzilla/internal/entity"
	"talkzilla/internal/repository/contract"
	"talkzilla/pkg/tokenizer"
)

// Manager loads, creates and saves session bags and serializes access per session.
type Manager struct {
	repo    contract.ChatSessionRepository
	counter tokenizer.Counter
	locks   *keyedMutex
	now     func() time.Time
}

func NewManager(repo contract.ChatSessionRepository, counter tokenizer.Counter) *Manager {
	return &Manager{
		repo:    repo,
		counter: counter,
		locks:   newKeyedMutex(),
		now:     time.Now,
	}
}

// Lock must be held around every load-modify-save of a session.
func (m *Manager) Lock(sessionId string) func() {
	return m.locks.Lock(sessionId)
}

// LoadOrCreate retrieves the session or opens a fresh one with the welcome turn.
// A fresh session is not saved until the caller saves it.
func (m *Manager) LoadOrCreate(ctx context.Context, sessionId string) (*entity.ChatSession, error) {
	session, err := m.repo.Get(ctx, sessionId)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, contract.ErrSessionNotFound) {
		return nil, err
	}
	return entity.NewChatSession(sessionId, m.counter.Count(constant.ChatWelcomeMessage), m.now()), nil
}

func (m *Manager) Save(ctx context.Context, session *entity.ChatSession) error {
	return m.repo.Save(ctx, session)
}

func (m *Manager) Now() time.Time {
	return m.now()
}
