package llm

import (
	"context"
	"fmt"

	"github.com/hyperjump/gunggeum/internal/config"
)

// NewTransformer creates the Transformer selected by cfg.Provider.
func NewTransformer(ctx context.Context, cfg config.LLMConfig) (Transformer, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	case "gemini":
		return NewGeminiClient(ctx, GeminiConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	case "mock":
		return &MockTransformer{Reply: "mock"}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
