package factory

import (
	"fmt"
	"net/http"
	"time"

	"talkzilla/pkg/llm"
	"talkzilla/pkg/llm/openai"
)

func NewLLMProvider(providerType, baseURL string, timeout time.Duration) (llm.StreamingProvider, error) {
	switch providerType {
	case "", "openai", "gemini":
		if baseURL == "" {
			return nil, fmt.Errorf("base URL is required for provider %q", providerType)
		}
		// Streaming relies on context cancellation instead of a client timeout.
		return openai.NewProvider(baseURL, &http.Client{}, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
