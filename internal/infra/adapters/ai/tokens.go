package ai

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"voice-analytics/internal/domain"
)

// TokenCounter estimates prompt size. The tiktoken encoding is loaded on
// first use because it fetches BPE ranks; when loading fails, or the
// counter is not exact, it falls back to roughly four bytes per token.
type TokenCounter struct {
	model string
	exact bool

	once sync.Once
	enc  *tiktoken.Tiktoken
}

func NewTokenCounter(model string, exact bool) *TokenCounter {
	return &TokenCounter{model: model, exact: exact}
}

func (c *TokenCounter) Count(text string) int {
	if c == nil {
		return 0
	}
	if c.exact {
		c.once.Do(func() {
			enc, err := tiktoken.EncodingForModel(c.model)
			if err != nil {
				enc, err = tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
			}
			if err == nil {
				c.enc = enc
			}
		})
		if c.enc != nil {
			return len(c.enc.Encode(text, nil, nil))
		}
	}
	return (len(text) + 3) / 4
}

// checkBudget rejects prompts above limit. limit <= 0 disables the check.
func checkBudget(tokens, limit int) error {
	if limit > 0 && tokens > limit {
		return fmt.Errorf("%w: transcript too long for review (%d tokens, limit %d)", domain.ErrInvalidArgument, tokens, limit)
	}
	return nil
}
