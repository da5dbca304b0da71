package ai

import (
	"context"
	"fmt"
	"strings"

	"voice-analytics/internal/config"
	"voice-analytics/internal/domain/ports/adapter"
)

// NewReviewer builds the configured provider, wrapped by the concurrency limiter.
func NewReviewer(ctx context.Context, cfg config.ReviewConfig) (adapter.Reviewer, error) {
	tokens := NewTokenCounter(cfg.Model, cfg.MaxPromptTokens > 0)

	var (
		r   adapter.Reviewer
		err error
	)
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		r, err = NewOpenAIReviewer(OpenAIOptions{
			APIKey:          cfg.OpenAIKey,
			BaseURL:         cfg.OpenAIBaseURL,
			Model:           cfg.Model,
			Temperature:     cfg.Temperature,
			JSONMode:        cfg.JSONMode,
			MaxPromptTokens: cfg.MaxPromptTokens,
			Timeout:         cfg.Timeout,
		}, tokens)
	case "gemini":
		r, err = NewGeminiReviewer(ctx, GeminiOptions{
			APIKey:          cfg.GeminiKey,
			BaseURL:         cfg.GeminiURL,
			Model:           cfg.Model,
			Temperature:     cfg.Temperature,
			MaxPromptTokens: cfg.MaxPromptTokens,
			Timeout:         cfg.Timeout,
		}, tokens)
	default:
		return nil, fmt.Errorf("review provider %q not supported", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewLimitedReviewer(r, cfg.ConcurrentLimit), nil
}
