package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiConfig holds configuration for the Gemini provider.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// GeminiClient implements Transformer using the Google GenAI SDK.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiClient creates a Gemini client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{client: client, model: model, timeout: timeout}, nil
}

// Transform generates content with system as the system instruction.
func (c *GeminiClient) Transform(ctx context.Context, system, user string, temperature float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	temp := float32(temperature)
	result, err := c.client.Models.GenerateContent(ctx,
		c.model,
		genai.Text(user),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			Temperature:       &temp,
		},
	)
	if err != nil {
		return "", geminiError(err)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", &DependencyError{Provider: "gemini", Err: ErrEmptyCompletion}
	}
	return text, nil
}

func geminiError(err error) error {
	de := &DependencyError{Provider: "gemini", Err: err}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		de.StatusCode = apiErr.Code
		de.RateLimited = apiErr.Code == 429
	}
	return de
}
