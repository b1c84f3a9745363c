// Package traits scores biography texts along eight psychological vectors by
// calling a set of interchangeable text-generation endpoints through an
// ordered fallback chain.
package traits

import (
	"encoding/json"
	"fmt"
	"strings"
)

// VectorNames lists the eight vectors, in prompt order.
var VectorNames = []string{
	"sound",
	"visual",
	"oral",
	"anal",
	"urethral",
	"skin",
	"muscular",
	"olfactory",
}

// Scores is the structured answer expected from the scoring model.
type Scores struct {
	Vectors    map[string]int    `json:"vectors"`
	Dominant   []string          `json:"dominant"`
	Rationale  map[string]string `json:"rationale"`
	Confidence float64           `json:"confidence"`
}

// Validate checks the bounded-scale and membership constraints.
func (s *Scores) Validate() error {
	for _, name := range VectorNames {
		score, ok := s.Vectors[name]
		if !ok {
			return traitErrors.New(ErrInvalidScores).
				WithDetail("reason", fmt.Sprintf("missing vector %q", name))
		}
		if score < 1 || score > 7 {
			return traitErrors.New(ErrInvalidScores).
				WithDetail("reason", fmt.Sprintf("vector %q score %d out of 1..7", name, score))
		}
	}
	if len(s.Dominant) == 0 {
		return traitErrors.New(ErrInvalidScores).
			WithDetail("reason", "dominant list is empty")
	}
	for _, name := range s.Dominant {
		if _, ok := s.Vectors[name]; !ok {
			return traitErrors.New(ErrInvalidScores).
				WithDetail("reason", fmt.Sprintf("dominant %q is not a known vector", name))
		}
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return traitErrors.New(ErrInvalidScores).
			WithDetail("reason", fmt.Sprintf("confidence %v out of [0,1]", s.Confidence))
	}
	return nil
}

// DecodeScores parses the model's raw text into Scores and validates it.
// Markdown code fences around the JSON are tolerated; anything else that is
// not strict JSON is a decode error.
func DecodeScores(raw string) (*Scores, error) {
	text := stripFences(strings.TrimSpace(raw))

	var scores Scores
	if err := json.Unmarshal([]byte(text), &scores); err != nil {
		return nil, traitErrors.NewWithCause(ErrSchemaDecode, err)
	}
	if err := scores.Validate(); err != nil {
		return nil, err
	}
	return &scores, nil
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
