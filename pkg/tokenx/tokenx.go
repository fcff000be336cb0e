// Package tokenx provides token counting for budgeting model context.
package tokenx

import (
	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/Abraxas-365/coderecall/pkg/errx"
)

var (
	errorRegistry = errx.NewRegistry("TOKENX")

	ErrEncodingUnavailable = errorRegistry.Register(
		"ENCODING_UNAVAILABLE",
		errx.TypeInternal,
		"Failed to load token encoding",
	)
)

// Counter counts model tokens in a string. Implementations must be
// safe for concurrent use.
type Counter interface {
	Count(s string) int
}

// ============================================================================
// Tiktoken Counter
// ============================================================================

// TiktokenCounter counts tokens with the cl100k_base encoding. It is a
// close approximation for all supported providers.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the cl100k_base encoding.
func NewTiktokenCounter() (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, errorRegistry.NewWithCause(ErrEncodingUnavailable, err)
	}
	return &TiktokenCounter{enc: enc}, nil
}

// Count returns the number of tokens in s.
func (c *TiktokenCounter) Count(s string) int {
	return len(c.enc.Encode(s, nil, nil))
}

// Truncate cuts s down to at most maxTokens tokens.
func (c *TiktokenCounter) Truncate(s string, maxTokens int) string {
	tokens := c.enc.Encode(s, nil, nil)
	if len(tokens) <= maxTokens {
		return s
	}
	return c.enc.Decode(tokens[:maxTokens])
}

// ============================================================================
// Character Counter
// ============================================================================

// CharCounter estimates tokens as len(s)/4, rounded up. Useful in tests
// and as a fallback when the tiktoken data files cannot be loaded.
type CharCounter struct{}

// Count returns the estimated number of tokens in s.
func (CharCounter) Count(s string) int {
	if s == "" {
		return 0
	}
	return (len(s) + 3) / 4
}

// NewCounter returns the tiktoken counter when its encoding data is
// available, and falls back to the character estimate otherwise.
func NewCounter() Counter {
	if c, err := NewTiktokenCounter(); err == nil {
		return c
	}
	return CharCounter{}
}
