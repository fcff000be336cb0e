// Package oraclellm implements the selection and analysis oracles over a
// chat model client. Transport-level retry and timeouts live here; the
// selection engine itself never retries.
package oraclellm

import (
	"context"
	"strings"
	"time"

	"github.com/Abraxas-365/coderecall/pkg/ai/llm"
	"github.com/Abraxas-365/coderecall/pkg/asyncx"
	"github.com/Abraxas-365/coderecall/pkg/errx"
)

var (
	errorRegistry = errx.NewRegistry("ORACLE")

	ErrMalformedResponse = errorRegistry.Register(
		"MALFORMED_RESPONSE",
		errx.TypeExternal,
		"Oracle response could not be parsed",
	)

	ErrEmptyAnswer = errorRegistry.Register(
		"EMPTY_ANSWER",
		errx.TypeExternal,
		"Oracle returned an empty answer",
	)
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 500 * time.Millisecond
	defaultCallTimeout = 2 * time.Minute
)

type settings struct {
	model       string
	temperature float32
	maxAttempts int
	retryDelay  time.Duration
	callTimeout time.Duration
}

// Option configures an oracle.
type Option func(*settings)

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(s *settings) { s.model = model }
}

// WithTemperature overrides the oracle's sampling temperature.
func WithTemperature(t float32) Option {
	return func(s *settings) { s.temperature = t }
}

// WithMaxAttempts sets how many times a failed call is attempted.
func WithMaxAttempts(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithRetryDelay sets the initial backoff delay between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.retryDelay = d
		}
	}
}

// WithCallTimeout bounds a single model call.
func WithCallTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

func newSettings(temperature float32, opts ...Option) settings {
	s := settings{
		temperature: temperature,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		callTimeout: defaultCallTimeout,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// chat runs one model call with per-call timeout and exponential backoff
// retry.
func (s settings) chat(ctx context.Context, client llm.Client, messages []llm.Message, opts ...llm.Option) (llm.Response, error) {
	if s.model != "" {
		opts = append(opts, llm.WithModel(s.model))
	}
	opts = append(opts, llm.WithTemperature(s.temperature))

	return asyncx.RetryWithBackoff(ctx, s.maxAttempts, s.retryDelay,
		func(ctx context.Context) (llm.Response, error) {
			return asyncx.WithTimeout(ctx, s.callTimeout,
				func(ctx context.Context) (llm.Response, error) {
					return client.Chat(ctx, messages, opts...)
				})
		})
}

// stripFences removes a surrounding markdown code fence, which some models
// add around JSON despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
