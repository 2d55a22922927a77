package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/credlens/credlens/internal/config"
)

// NewClient builds the provider clients for the configured backend. The
// grounded and vision clients may wrap the same underlying connection; a nil
// VisionClient means the provider cannot transcribe images.
func NewClient(ctx context.Context, cfg config.LLMConfig) (Client, GroundedClient, VisionClient, error) {
	provider := strings.ToLower(cfg.Provider)

	switch provider {
	case "gemini":
		c, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		return c, c, c, nil

	case "openai":
		c := NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
		return c, c, c, nil

	case "claude":
		c := NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
		return c, c, nil, nil // nil VisionClient so callers know images are unsupported

	case "ollama":
		// Ollama speaks the OpenAI-compatible API; point the OpenAI client at it.
		baseURL := cfg.BaseURL
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama" // ignored by Ollama but required by the client config
		}
		c := NewOpenAIClient(apiKey, cfg.Model, baseURL)
		return c, c, c, nil

	default:
		return nil, nil, nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}
