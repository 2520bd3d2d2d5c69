package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/phuslu/log"

	"github.com/nbenliogludev/go-bdd-suite/internal/config"
)

// NewProvider builds the provider selected by cfg.Provider.
func NewProvider(ctx context.Context, cfg config.AIConfig, timeout time.Duration, logger *log.Logger) (Provider, error) {
	switch cfg.Provider {
	case "", "gemini":
		return NewGeminiClient(ctx, GeminiOptions{
			APIKey:  cfg.APIKey,
			Model:   cfg.ModelOrDefault(),
			BaseURL: cfg.BaseURL,
			Timeout: timeout,
			Logger:  logger,
		})
	case "openai":
		return NewOpenAIClient(OpenAIOptions{
			APIKey:  cfg.APIKey,
			Model:   cfg.ModelOrDefault(),
			BaseURL: cfg.BaseURL,
			Timeout: timeout,
			Logger:  logger,
		})
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
