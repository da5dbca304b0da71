package ai

import (
	"context"

	"voice-analytics/internal/domain/model"
	"voice-analytics/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.Reviewer = (*limitedReviewer)(nil)

type limitedReviewer struct {
	inner adapter.Reviewer
	sem   chan struct{}
}

// NewLimitedReviewer caps concurrent Review calls. maxConcurrent <= 0 returns inner unchanged.
func NewLimitedReviewer(inner adapter.Reviewer, maxConcurrent int) adapter.Reviewer {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedReviewer{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedReviewer) Name() string { return l.inner.Name() }

func (l *limitedReviewer) Review(ctx context.Context, in adapter.ReviewInput) (model.Evaluation, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return model.Evaluation{}, ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Review(ctx, in)
}
