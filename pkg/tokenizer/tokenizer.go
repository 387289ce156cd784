package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Counter counts the tokens of a piece of text. Implementations never return
// a negative number.
type Counter interface {
	Count(text string) int
}

// TiktokenCounter counts tokens with a tiktoken BPE encoding.
type TiktokenCounter struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

// Ensure TiktokenCounter implements Counter
var _ Counter = &TiktokenCounter{}

// NewTiktokenCounter loads the named encoding (e.g. "cl100k_base").
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: get encoding %s: %w", encoding, err)
	}
	return &TiktokenCounter{enc: enc}, nil
}

func (t *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	// The encoder keeps an internal cache that is not safe for concurrent use.
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.enc.Encode(text, nil, nil))
}

// HeuristicCounter approximates tokens as len(text)/4, at least one for
// non-blank text. Used when the BPE ranks cannot be loaded.
type HeuristicCounter struct{}

var _ Counter = HeuristicCounter{}

func (HeuristicCounter) Count(text string) int {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0
	}
	n := len(s) / 4
	if n < 1 {
		n = 1
	}
	return n
}

// New returns a tiktoken counter for encoding, falling back to the heuristic
// counter when the encoding is unavailable. The returned error reports the
// fallback and is informational.
func New(encoding string) (Counter, error) {
	c, err := NewTiktokenCounter(encoding)
	if err != nil {
		return HeuristicCounter{}, err
	}
	return c, nil
}
