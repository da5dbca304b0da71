package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"voice-analytics/internal/domain"
	"voice-analytics/internal/domain/model"
	"voice-analytics/internal/domain/ports/adapter"
	"voice-analytics/internal/infra/metrics"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.Reviewer = (*OpenAIReviewer)(nil)

type OpenAIOptions struct {
	APIKey          string
	BaseURL         string // empty = api.openai.com
	Model           string
	Temperature     float64
	JSONMode        bool // send response_format=json_object; unsupported by legacy gpt-4
	MaxPromptTokens int
	Timeout         time.Duration // 0 = none
}

// OpenAIReviewer grades transcripts through the Chat Completions API.
type OpenAIReviewer struct {
	client      openai.Client
	model       string
	temperature float64
	jsonMode    bool
	maxTokens   int
	tokens      *TokenCounter
}

func NewOpenAIReviewer(opts OpenAIOptions, tokens *TokenCounter) (*OpenAIReviewer, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if opts.Model == "" {
		opts.Model = "gpt-4"
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: opts.Timeout}),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(strings.TrimRight(opts.BaseURL, "/")+"/"))
	}
	return &OpenAIReviewer{
		client:      openai.NewClient(reqOpts...),
		model:       opts.Model,
		temperature: opts.Temperature,
		jsonMode:    opts.JSONMode,
		maxTokens:   opts.MaxPromptTokens,
		tokens:      tokens,
	}, nil
}

func (o *OpenAIReviewer) Name() string { return "openai" }

func (o *OpenAIReviewer) Review(ctx context.Context, in adapter.ReviewInput) (ev model.Evaluation, err error) {
	prompt := buildUserPrompt(in.Transcript, in.Language)
	n := o.tokens.Count(systemPrompt + prompt)
	if err := checkBudget(n, o.maxTokens); err != nil {
		return model.Evaluation{}, err
	}

	start := time.Now()
	defer func() { metrics.ObserveUpstream(o.Name(), "review", time.Since(start), err == nil) }()

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(o.temperature),
	}
	if o.jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.Evaluation{}, fmt.Errorf("%w: openai review: %v", domain.ErrUpstream, err)
	}
	if resp.Usage.PromptTokens > 0 {
		n = int(resp.Usage.PromptTokens)
	}
	metrics.AddReviewTokens(o.Name(), o.model, n)

	for _, c := range resp.Choices {
		if c.Message.Content != "" {
			return model.ParseEvaluation([]byte(c.Message.Content))
		}
	}
	return model.Evaluation{}, fmt.Errorf("%w: openai returned no choice content", domain.ErrUpstream)
}
