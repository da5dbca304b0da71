package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"voice-analytics/internal/domain"
)

// Criteria lists the evaluation keys in the order they are presented to reviewers.
var Criteria = []string{
	"start_of_conversation",
	"pitching_of_product",
	"understanding_customer_problem",
	"collecting_required_information",
	"ending_the_call",
}

type CriterionReview struct {
	Rating                    int    `json:"rating"`
	WhatWasDoneWell           string `json:"what_was_done_well"`
	SuggestionsForImprovement string `json:"suggestions_for_improvement"`
}

// Evaluation is the five-criterion review of a sales call.
type Evaluation struct {
	StartOfConversation           CriterionReview `json:"start_of_conversation"`
	PitchingOfProduct             CriterionReview `json:"pitching_of_product"`
	UnderstandingCustomerProblem  CriterionReview `json:"understanding_customer_problem"`
	CollectingRequiredInformation CriterionReview `json:"collecting_required_information"`
	EndingTheCall                 CriterionReview `json:"ending_the_call"`
}

type strictCriterion struct {
	Rating                    *int    `json:"rating"`
	WhatWasDoneWell           *string `json:"what_was_done_well"`
	SuggestionsForImprovement *string `json:"suggestions_for_improvement"`
}

type strictEvaluation struct {
	StartOfConversation           *strictCriterion `json:"start_of_conversation"`
	PitchingOfProduct             *strictCriterion `json:"pitching_of_product"`
	UnderstandingCustomerProblem  *strictCriterion `json:"understanding_customer_problem"`
	CollectingRequiredInformation *strictCriterion `json:"collecting_required_information"`
	EndingTheCall                 *strictCriterion `json:"ending_the_call"`
}

// ParseEvaluation decodes reviewer output. Unknown or missing keys, trailing
// data and ratings outside 1..5 are rejected; nothing is coerced.
func ParseEvaluation(raw []byte) (Evaluation, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var s strictEvaluation
	if err := dec.Decode(&s); err != nil {
		return Evaluation{}, fmt.Errorf("%w: %v", domain.ErrInvalidEvaluation, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Evaluation{}, fmt.Errorf("%w: trailing data after object", domain.ErrInvalidEvaluation)
	}

	fields := []*strictCriterion{
		s.StartOfConversation,
		s.PitchingOfProduct,
		s.UnderstandingCustomerProblem,
		s.CollectingRequiredInformation,
		s.EndingTheCall,
	}
	out := make([]CriterionReview, len(fields))
	for i, c := range fields {
		cr, err := c.check(Criteria[i])
		if err != nil {
			return Evaluation{}, err
		}
		out[i] = cr
	}
	return Evaluation{
		StartOfConversation:           out[0],
		PitchingOfProduct:             out[1],
		UnderstandingCustomerProblem:  out[2],
		CollectingRequiredInformation: out[3],
		EndingTheCall:                 out[4],
	}, nil
}

func (c *strictCriterion) check(name string) (CriterionReview, error) {
	if c == nil {
		return CriterionReview{}, fmt.Errorf("%w: missing %q", domain.ErrInvalidEvaluation, name)
	}
	if c.Rating == nil || c.WhatWasDoneWell == nil || c.SuggestionsForImprovement == nil {
		return CriterionReview{}, fmt.Errorf("%w: incomplete %q", domain.ErrInvalidEvaluation, name)
	}
	if *c.Rating < 1 || *c.Rating > 5 {
		return CriterionReview{}, fmt.Errorf("%w: %q rating %d out of range", domain.ErrInvalidEvaluation, name, *c.Rating)
	}
	return CriterionReview{
		Rating:                    *c.Rating,
		WhatWasDoneWell:           *c.WhatWasDoneWell,
		SuggestionsForImprovement: *c.SuggestionsForImprovement,
	}, nil
}
