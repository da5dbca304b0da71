package adapter

import (
	"context"

	"voice-analytics/internal/domain/model"
)

type ReviewInput struct {
	Transcript string
	Language   string
}

// Reviewer is the port for the LLM that grades a transcript.
// Implementations must strict-parse the model output with model.ParseEvaluation.
type Reviewer interface {
	Name() string
	Review(ctx context.Context, in ReviewInput) (model.Evaluation, error)
}
