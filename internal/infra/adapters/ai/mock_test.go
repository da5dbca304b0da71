//go:build !integration

package ai

import (
	"context"
	"sync/atomic"
	"time"

	"voice-analytics/internal/domain/model"
	"voice-analytics/internal/domain/ports/adapter"
)

const validReview = `{
 "start_of_conversation": {"rating": 4, "what_was_done_well": "warm greeting", "suggestions_for_improvement": "state the agenda"},
 "pitching_of_product": {"rating": 3, "what_was_done_well": "clear benefits", "suggestions_for_improvement": "tie to pain points"},
 "understanding_customer_problem": {"rating": 5, "what_was_done_well": "open questions", "suggestions_for_improvement": "summarize back"},
 "collecting_required_information": {"rating": 2, "what_was_done_well": "asked for budget", "suggestions_for_improvement": "confirm timeline"},
 "ending_the_call": {"rating": 4, "what_was_done_well": "next steps agreed", "suggestions_for_improvement": "send recap"}
}`

// slowReviewer tracks how many Review calls overlap.
type slowReviewer struct {
	delay   time.Duration
	current int32
	peak    int32
}

var _ adapter.Reviewer = (*slowReviewer)(nil)

func (s *slowReviewer) Name() string { return "slow" }

func (s *slowReviewer) Review(ctx context.Context, in adapter.ReviewInput) (model.Evaluation, error) {
	n := atomic.AddInt32(&s.current, 1)
	for {
		p := atomic.LoadInt32(&s.peak)
		if n <= p || atomic.CompareAndSwapInt32(&s.peak, p, n) {
			break
		}
	}
	time.Sleep(s.delay)
	atomic.AddInt32(&s.current, -1)
	return model.Evaluation{}, nil
}
