package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"talkzilla/pkg/llm"
)

// Provider talks to any OpenAI-compatible chat-completions endpoint,
// such as the Gemini API's /v1beta/openai/ surface.
type Provider struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
}

// Ensure Provider implements StreamingProvider
var _ llm.StreamingProvider = &Provider{}

func NewProvider(baseURL string, client *http.Client, timeout time.Duration) *Provider {
	if client == nil {
		client = &http.Client{}
	}
	return &Provider{
		BaseURL: baseURL,
		Client:  client,
		Timeout: timeout,
	}
}

// --- Request/Response structs (Internal to this package) ---

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   bool          `json:"stream"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Role    string `json:"role,omitempty"`
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Code    any    `json:"code,omitempty"`
}

// StatusError is returned when the endpoint answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// --- Interface Implementation ---

func (p *Provider) ChatStream(ctx context.Context, history []llm.Message, onDelta llm.DeltaHandler, opts ...llm.Option) (string, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	resp, err := p.do(ctx, history, opts...)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var reply strings.Builder
	reader := newSSEReader(resp.Body)

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		data, err := reader.ReadEvent()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return reply.String(), nil
			}
			// A cancelled context surfaces as a body read error
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", fmt.Errorf("read stream: %w", err)
		}

		if bytes.Equal(data, []byte("[DONE]")) {
			return reply.String(), nil
		}

		var chunk streamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			return "", fmt.Errorf("invalid stream chunk: %w", err)
		}
		if chunk.Error != nil {
			return "", fmt.Errorf("stream error: %s", chunk.Error.Message)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta.Content
		if delta != "" {
			reply.WriteString(delta)
			if onDelta != nil {
				if err := onDelta(delta); err != nil {
					return "", err
				}
			}
		}
	}
}

func (p *Provider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.Timeout > 0 {
		return context.WithTimeout(ctx, p.Timeout)
	}
	return context.WithCancel(ctx)
}

func (p *Provider) endpoint() string {
	return strings.TrimRight(p.BaseURL, "/") + "/chat/completions"
}

// do sends the streaming completion request and returns a response with status 200.
func (p *Provider) do(ctx context.Context, history []llm.Message, opts ...llm.Option) (*http.Response, error) {
	options := llm.ApplyOptions(llm.Options{}, opts...)
	if options.APIKey == "" {
		return nil, llm.ErrMissingAPIKey
	}
	if len(history) == 0 {
		return nil, llm.ErrEmptyHistory
	}

	reqPayload := chatRequest{
		Model:    options.Model,
		Messages: history,
		Stream:   true,
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+options.APIKey)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, body)}
	}

	return resp, nil
}

// errorMessage extracts the human message from an error body. Gemini answers
// either with an object or with a one-element array of objects.
func errorMessage(status int, body []byte) string {
	var single struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &single); err == nil && single.Error != nil && single.Error.Message != "" {
		return single.Error.Message
	}

	var list []struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 && list[0].Error != nil {
		return list[0].Error.Message
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return http.StatusText(status)
	}
	return msg
}
