package entity

import (
	"time"

	"talkzilla/internal/constant"
)

// ChatSession is the per-browser state bag. It is loaded, mutated and saved
// once per interaction.
type ChatSession struct {
	Id          string        `json:"id"`
	Model       string        `json:"model"`
	Turns       []ChatTurn    `json:"turns"`
	TotalTokens int           `json:"total_tokens"`
	Document    *ChatDocument `json:"document,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ChatDocument is the text of the last uploaded file.
type ChatDocument struct {
	Name       string    `json:"name"`
	MimeType   string    `json:"mime_type"`
	Content    string    `json:"content"`
	Tokens     int       `json:"tokens"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// NewChatSession opens a session with the default model and the welcome turn.
// The welcome turn is not billed.
func NewChatSession(id string, welcomeTokens int, now time.Time) *ChatSession {
	return &ChatSession{
		Id:    id,
		Model: constant.DefaultModel,
		Turns: []ChatTurn{
			{
				Role:      constant.ChatMessageRoleAssistant,
				Content:   constant.ChatWelcomeMessage,
				Tokens:    welcomeTokens,
				CreatedAt: now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AppendTurn adds a turn at the end of the transcript and bills its tokens.
func (s *ChatSession) AppendTurn(role, content string, tokens int, now time.Time) ChatTurn {
	if tokens < 0 {
		tokens = 0
	}
	turn := ChatTurn{
		Role:      role,
		Content:   content,
		Tokens:    tokens,
		CreatedAt: now,
	}
	s.Turns = append(s.Turns, turn)
	s.TotalTokens += tokens
	s.UpdatedAt = now
	return turn
}

// Clear empties the transcript and resets the counter. Model and document survive.
func (s *ChatSession) Clear(now time.Time) {
	s.Turns = []ChatTurn{}
	s.TotalTokens = 0
	s.UpdatedAt = now
}

func (s *ChatSession) SetDocument(doc ChatDocument, now time.Time) {
	s.Document = &doc
	s.UpdatedAt = now
}

func (s *ChatSession) ClearDocument(now time.Time) {
	s.Document = nil
	s.UpdatedAt = now
}

// CaptionsVisible reports whether per-turn token captions are shown.
// A transcript holding a single turn renders without captions.
func (s *ChatSession) CaptionsVisible() bool {
	return len(s.Turns) != 1
}

// History returns a copy of the transcript safe to hand to other goroutines.
func (s *ChatSession) History() []ChatTurn {
	out := make([]ChatTurn, len(s.Turns))
	copy(out, s.Turns)
	return out
}

// Clone returns a deep copy so stored sessions never alias live ones.
func (s *ChatSession) Clone() *ChatSession {
	c := *s
	c.Turns = s.History()
	if s.Document != nil {
		doc := *s.Document
		c.Document = &doc
	}
	return &c
}
