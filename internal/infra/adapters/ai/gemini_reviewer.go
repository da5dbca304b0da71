package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"voice-analytics/internal/domain"
	"voice-analytics/internal/domain/model"
	"voice-analytics/internal/domain/ports/adapter"
	"voice-analytics/internal/infra/metrics"
)

var _ adapter.Reviewer = (*GeminiReviewer)(nil)

type GeminiOptions struct {
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     float64
	MaxPromptTokens int
	Timeout         time.Duration // 0 = none
}

type GeminiReviewer struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	tokens      *TokenCounter
}

// NewGeminiReviewer creates a reviewer using the official SDK.
func NewGeminiReviewer(ctx context.Context, opts GeminiOptions, tokens *TokenCounter) (*GeminiReviewer, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if opts.Model == "" {
		opts.Model = "gemini-2.0-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      opts.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: opts.BaseURL},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiReviewer{
		client:      c,
		model:       opts.Model,
		temperature: float32(opts.Temperature),
		maxTokens:   opts.MaxPromptTokens,
		timeout:     opts.Timeout,
		tokens:      tokens,
	}, nil
}

func (g *GeminiReviewer) Name() string { return "gemini" }

func (g *GeminiReviewer) Review(ctx context.Context, in adapter.ReviewInput) (ev model.Evaluation, err error) {
	prompt := buildUserPrompt(in.Transcript, in.Language)
	n := g.tokens.Count(systemPrompt + prompt)
	if err := checkBudget(n, g.maxTokens); err != nil {
		return model.Evaluation{}, err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() { metrics.ObserveUpstream(g.Name(), "review", time.Since(start), err == nil) }()

	temp := g.temperature
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		Temperature:       &temp,
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return model.Evaluation{}, fmt.Errorf("%w: gemini review: %v", domain.ErrUpstream, err)
	}
	if resp.UsageMetadata != nil && resp.UsageMetadata.PromptTokenCount > 0 {
		n = int(resp.UsageMetadata.PromptTokenCount)
	}
	metrics.AddReviewTokens(g.Name(), g.model, n)

	text := candidateText(resp)
	if text == "" {
		return model.Evaluation{}, fmt.Errorf("%w: gemini returned no candidate text", domain.ErrUpstream)
	}
	return model.ParseEvaluation([]byte(text))
}

func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
