package llm

import "context"

// Client is the provider-agnostic chat interface. Providers under
// pkg/ai/providers implement it over their vendor SDKs.
type Client interface {
	Chat(ctx context.Context, messages []Message, opts ...Option) (Response, error)
}

// ChatOptions holds per-call parameters
type ChatOptions struct {
	Model          string
	Temperature    float32
	TopP           float32
	MaxTokens      int
	Stop           []string
	Seed           int64
	ResponseFormat *ResponseFormat
}

// Option configures a chat call
type Option func(*ChatOptions)

// DefaultOptions returns the default chat options
func DefaultOptions() *ChatOptions {
	return &ChatOptions{}
}

// WithModel selects the model for this call
func WithModel(model string) Option {
	return func(o *ChatOptions) {
		o.Model = model
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float32) Option {
	return func(o *ChatOptions) {
		o.Temperature = t
	}
}

// WithTopP sets nucleus sampling
func WithTopP(p float32) Option {
	return func(o *ChatOptions) {
		o.TopP = p
	}
}

// WithMaxTokens caps the completion length
func WithMaxTokens(n int) Option {
	return func(o *ChatOptions) {
		o.MaxTokens = n
	}
}

// WithStop sets stop sequences
func WithStop(stop ...string) Option {
	return func(o *ChatOptions) {
		o.Stop = stop
	}
}

// WithSeed sets a sampling seed (best effort; not all providers honor it)
func WithSeed(seed int64) Option {
	return func(o *ChatOptions) {
		o.Seed = seed
	}
}

// WithResponseFormat specifies the output format
func WithResponseFormat(format *ResponseFormat) Option {
	return func(o *ChatOptions) {
		o.ResponseFormat = format
	}
}

// WithJSONResponseFormat sets the response format to JSON object
func WithJSONResponseFormat() Option {
	return func(o *ChatOptions) {
		o.ResponseFormat = &ResponseFormat{
			Type: JSONObject,
		}
	}
}
