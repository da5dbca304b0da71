package ai

import (
	"fmt"
	"strings"

	"voice-analytics/internal/domain/model"
)

const systemPrompt = "You are an expert sales communication coach."

const userPromptTemplate = `You are a professional sales communication coach.

The following is a transcript of a sales call in language: %s.
Evaluate the conversation based on the following five criteria:
1. Start of the conversation
2. Pitching of the product
3. Understanding the customer's problem
4. Collecting required information
5. Ending the call

For each point, give:
- A rating from 1 to 5
- What was done well
- Suggestions for improvement

Always respond in English regardless of the transcript language.

Respond with a single JSON object and nothing else. It must have exactly these keys:
%s
Each value must be an object of the form
{"rating": <integer 1-5>, "what_was_done_well": "<text>", "suggestions_for_improvement": "<text>"}.

Transcript:
"""
%s
"""`

// buildUserPrompt renders the grading instructions around the transcript.
func buildUserPrompt(transcript, language string) string {
	if strings.TrimSpace(language) == "" {
		language = model.DefaultReviewLanguage
	}
	keys := make([]string, len(model.Criteria))
	for i, c := range model.Criteria {
		keys[i] = fmt.Sprintf("%q", c)
	}
	return fmt.Sprintf(userPromptTemplate, language, strings.Join(keys, ", "), transcript)
}
