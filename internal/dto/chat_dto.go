package dto

import "time"

type ChatTurnResponse struct {
	Index     int       `json:"index"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Html      string    `json:"html"`
	Tokens    int       `json:"tokens"`
	Caption   string    `json:"caption,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type DocumentResponse struct {
	Name       string    `json:"name"`
	MimeType   string    `json:"mime_type"`
	Content    string    `json:"content"`
	Tokens     int       `json:"tokens"`
	Caption    string    `json:"caption"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type ChatStateResponse struct {
	Model           string             `json:"model"`
	Models          []string           `json:"models"`
	Turns           []ChatTurnResponse `json:"turns"`
	CaptionsVisible bool               `json:"captions_visible"`
	TotalTokens     int                `json:"total_tokens"`
	Document        *DocumentResponse  `json:"document"`
}

type ModelListResponse struct {
	Default string   `json:"default"`
	Models  []string `json:"models"`
}

type SelectModelRequest struct {
	Model string `json:"model" validate:"required,oneof=gemini-2.0-flash gemini-1.5-pro gemini-1.5-flash"`
}

type SendChatRequest struct {
	Prompt string `json:"prompt" validate:"required,max=100000"`
	ApiKey string `json:"-"` // Taken from the request header, never serialized
}

type UploadDocumentRequest struct {
	Name        string
	ContentType string
	Data        []byte
}

// --- Stream events ---

type StreamUserEvent struct {
	Turn        ChatTurnResponse `json:"turn"`
	TotalTokens int              `json:"total_tokens"`
}

type StreamDeltaEvent struct {
	Text string `json:"text"`
}

type StreamDoneEvent struct {
	Turn            ChatTurnResponse `json:"turn"`
	TotalTokens     int              `json:"total_tokens"`
	CaptionsVisible bool             `json:"captions_visible"`
}

type StreamErrorEvent struct {
	Message string `json:"message"`
}
