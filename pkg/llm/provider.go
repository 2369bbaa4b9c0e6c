package llm

import (
	"context"
	"errors"
)

// ErrEmptyPrompt is returned before any network call when the prompt is blank.
var ErrEmptyPrompt = errors.New("llm: empty prompt")

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider defines the contract for any LLM backend.
type LLMProvider interface {
	// Generate sends a single prompt to the model and returns the full response.
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)

	// GenerateStream sends a single prompt in streaming mode. onChunk is invoked
	// synchronously, in arrival order, once per non-empty text increment; the next
	// increment is not read until onChunk returns. An error from onChunk aborts
	// the stream and is returned as-is.
	GenerateStream(ctx context.Context, prompt string, onChunk func(text string) error, options ...Option) error
}
