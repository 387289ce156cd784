package llm

import (
	"context"
	"errors"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Option allows for per-call parameters such as the model and credential.
type Option func(*Options)

type Options struct {
	Model  string // Override default model
	APIKey string // Per-request bearer credential
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithAPIKey supplies the credential for a single call. Providers must not
// retain it beyond the call.
func WithAPIKey(key string) Option {
	return func(o *Options) {
		o.APIKey = key
	}
}

func ApplyOptions(defaults Options, opts ...Option) *Options {
	o := defaults
	for _, opt := range opts {
		opt(&o)
	}
	return &o
}

// DeltaHandler receives each streamed text fragment in arrival order. Returning
// an error aborts the stream.
type DeltaHandler func(delta string) error

// StreamingProvider defines the contract for any LLM backend. The reply is
// delivered incrementally.
type StreamingProvider interface {
	// ChatStream streams the reply to onDelta and returns the concatenated text.
	ChatStream(ctx context.Context, history []Message, onDelta DeltaHandler, options ...Option) (string, error)
}

var (
	ErrMissingAPIKey = errors.New("llm: missing api key")
	ErrEmptyHistory  = errors.New("llm: empty message history")
)
