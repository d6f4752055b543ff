// Package contentgen is the outbound boundary to the question-generation
// collaborator. The core hands it (topic, difficulty) and gets back a fully
// formed question; medical correctness is the collaborator's problem, not
// ours.
package contentgen

import (
	"context"

	"github.com/stepwise/stepwise-backend/internal/types"
)

// Directive is the "generate new" request the selector emits when the
// existing pool cannot serve the learner's weakest topic.
type Directive struct {
	Topic          string `json:"topic"`
	DifficultyHint string `json:"difficulty_hint"`
}

type Generator interface {
	Generate(ctx context.Context, d Directive) (*types.Question, error)
}
