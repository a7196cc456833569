// Package generate produces question sets through an LLM provider and
// carries the fixed fallback sets served when generation is unavailable.
package generate

import (
	"context"
	"errors"
	"fmt"
)

// A QuestionSet holds exactly SetSize questions with OptionCount options each.
const (
	SetSize     = 5
	OptionCount = 4
)

// Provider is a text-completion backend for question generation.
type Provider interface {
	// Complete sends a system and user prompt and returns the raw
	// completion text.
	Complete(ctx context.Context, system, user string) (string, error)

	// Name identifies the provider and model for logging.
	Name() string
}

var (
	// ErrNoProvider means no generation backend is configured.
	ErrNoProvider = errors.New("no generation provider configured")
	// ErrNoSourceContent means the profile field for the level is empty.
	ErrNoSourceContent = errors.New("no source content for level")
)

// Options configures provider construction.
type Options struct {
	Provider    string // "openai", "anthropic" or "mock"
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// NewProvider builds the configured provider.
func NewProvider(opts Options) (Provider, error) {
	switch opts.Provider {
	case "openai":
		return NewOpenAIProvider(opts)
	case "anthropic":
		return NewAnthropicProvider(opts)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown generation provider: %q", opts.Provider)
	}
}
