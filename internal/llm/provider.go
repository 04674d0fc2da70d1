// Package llm wraps the model providers used for document text extraction
// and analysis summaries.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/docrisk/internal/config"
)

// ErrExtractionUnsupported is returned by providers that cannot read
// documents.
var ErrExtractionUnsupported = errors.New("provider does not support document extraction")

// Provider generates text from a prompt.
type Provider interface {
	Name() string
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Extractor reads the text of a PDF or image.
type Extractor interface {
	ExtractText(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Default model names per provider.
const (
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultAnthropicModel = "claude-sonnet-4-5-20250929"
)

// NewProvider builds the configured provider. It returns nil, nil when no
// provider is configured.
func NewProvider(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "", config.LLMNone:
		return nil, nil
	case config.LLMGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("llm: GEMINI_API_KEY is required for provider %s", cfg.Provider)
		}
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.Model)
	case config.LLMAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("llm: ANTHROPIC_API_KEY is required for provider %s", cfg.Provider)
		}
		return NewAnthropic(cfg.AnthropicAPIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
