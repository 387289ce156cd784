package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"talkzilla/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseChunk(content string) string {
	return fmt.Sprintf("data: {\"choices\":[{\"delta\":{\"content\":%q},\"finish_reason\":null}]}\n\n", content)
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *Provider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(srv.Close)
	return NewProvider(srv.URL+"/v1beta/openai/", srv.Client(), 5*time.Second)
}

func TestChatStreamConcatenatesDeltas(t *testing.T) {
	var gotReq chatRequest
	var gotAuth, gotPath string

	p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotReq)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, sseChunk("Rawr"))
		fmt.Fprint(w, sseChunk(", hello"))
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	var deltas []string
	reply, err := p.ChatStream(context.Background(),
		[]llm.Message{{Role: "user", Content: "hi"}},
		func(d string) error {
			deltas = append(deltas, d)
			return nil
		},
		llm.WithAPIKey("secret"),
		llm.WithModel("gemini-2.0-flash"),
	)

	require.NoError(t, err)
	assert.Equal(t, "Rawr, hello", reply)
	assert.Equal(t, []string{"Rawr", ", hello"}, deltas)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "/v1beta/openai/chat/completions", gotPath)
	assert.True(t, gotReq.Stream)
	assert.Equal(t, "gemini-2.0-flash", gotReq.Model)
	assert.Equal(t, []llm.Message{{Role: "user", Content: "hi"}}, gotReq.Messages)
}

func TestChatStreamEndsOnEOFWithoutDone(t *testing.T) {
	p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sseChunk("partial"))
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\" end\"}}]}")
	})

	reply, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, nil, llm.WithAPIKey("k"))

	require.NoError(t, err)
	assert.Equal(t, "partial end", reply)
}

func TestChatStreamStatusError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"object error", http.StatusBadRequest, `{"error":{"message":"API key not valid"}}`, "status 400: API key not valid"},
		{"array error", http.StatusTooManyRequests, `[{"error":{"message":"quota exceeded"}}]`, "status 429: quota exceeded"},
		{"plain body", http.StatusBadGateway, "upstream down", "status 502: upstream down"},
		{"empty body", http.StatusUnauthorized, "", "status 401: Unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, nil, llm.WithAPIKey("k"))

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.EqualError(t, err, tt.wantMsg)
		})
	}
}

func TestChatStreamMalformedChunk(t *testing.T) {
	p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sseChunk("ok"))
		fmt.Fprint(w, "data: {not json\n\n")
	})

	reply, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, nil, llm.WithAPIKey("k"))

	assert.Error(t, err)
	assert.Empty(t, reply)
}

func TestChatStreamInBandError(t *testing.T) {
	p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"error\":{\"message\":\"model overloaded\"}}\n\n")
	})

	_, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, nil, llm.WithAPIKey("k"))

	assert.EqualError(t, err, "stream error: model overloaded")
}

func TestChatStreamHandlerAbort(t *testing.T) {
	p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sseChunk("one"))
		fmt.Fprint(w, sseChunk("two"))
	})

	stop := errors.New("client gone")
	_, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}},
		func(string) error { return stop }, llm.WithAPIKey("k"))

	assert.ErrorIs(t, err, stop)
}

func TestChatStreamRequiresAPIKey(t *testing.T) {
	called := false
	p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, nil)

	assert.ErrorIs(t, err, llm.ErrMissingAPIKey)
	assert.False(t, called)
}

func TestChatStreamSendsOnlyStreamingFields(t *testing.T) {
	var raw map[string]json.RawMessage
	p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	_, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, nil,
		llm.WithAPIKey("k"), llm.WithModel("gemini-1.5-pro"))

	require.NoError(t, err)
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"model", "messages", "stream"}, keys)
	assert.JSONEq(t, "true", string(raw["stream"]))
}

func TestSSEReaderJoinsMultilineData(t *testing.T) {
	r := newSSEReader(strings.NewReader("event: x\ndata: a\ndata: b\n\ndata:c\n"))

	first, err := r.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "a\nb", string(first))

	second, err := r.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "c", string(second))

	_, err = r.ReadEvent()
	assert.Error(t, err)
}
