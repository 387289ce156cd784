package dto

import "time"

// ExchangeUsageMessage is published on the usage topic after each exchange.
type ExchangeUsageMessage struct {
	SessionId    string    `json:"session_id"`
	Model        string    `json:"model"`
	PromptTokens int       `json:"prompt_tokens"`
	ReplyTokens  int       `json:"reply_tokens"`
	DurationMs   int64     `json:"duration_ms"`
	Failed       bool      `json:"failed"`
	Error        string    `json:"error,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type ModelUsageResponse struct {
	Exchanges    int `json:"exchanges"`
	Failures     int `json:"failures"`
	PromptTokens int `json:"prompt_tokens"`
	ReplyTokens  int `json:"reply_tokens"`
}

type UsageResponse struct {
	Since        time.Time                     `json:"since"`
	Exchanges    int                           `json:"exchanges"`
	Failures     int                           `json:"failures"`
	PromptTokens int                           `json:"prompt_tokens"`
	ReplyTokens  int                           `json:"reply_tokens"`
	Models       map[string]ModelUsageResponse `json:"models"`
}
