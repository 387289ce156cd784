package contract

import (
	"context"
	"errors"

	"talkzilla/internal/entity"
)

var ErrSessionNotFound = errors.New("chat session not found")

// ChatSessionRepository stores session bags. Get returns ErrSessionNotFound
// for unknown or expired ids. Save refreshes the expiry.
type ChatSessionRepository interface {
	Get(ctx context.Context, id string) (*entity.ChatSession, error)
	Save(ctx context.Context, session *entity.ChatSession) error
}
