package engine

import (
	"math/rand"

	"github.com/stepwise/stepwise-backend/internal/types"
)

// PickReason records which branch of the selection algorithm produced a
// question.
type PickReason string

const (
	// A due review card was served ahead of weakness targeting.
	ReasonReview PickReason = "review"
	// Scored pick from the learner's weak topics.
	ReasonWeakness PickReason = "weakness"
	// New-learner fallback: uniform random over the unseen pool.
	ReasonExploration PickReason = "exploration"
	// Freshly generated by the content collaborator.
	ReasonGenerated PickReason = "generated"
)

// PickBest scores candidates by weakness priority × recency weight and
// returns the maximum. Ties keep the earliest candidate, so selection is
// stable and deterministic for a fixed pool order. Returns nil on an empty
// pool.
//
// The multiplicative combination is deliberate: recency perturbs ranking
// within a weakness tier but never overrides weakness itself.
func PickBest(pool []*types.Question, priorityByTopic map[string]float64, w *RecencyWeighter) (*types.Question, float64) {
	var best *types.Question
	var bestScore float64
	for _, q := range pool {
		if q == nil {
			continue
		}
		priority, ok := priorityByTopic[q.Topic]
		if !ok {
			continue
		}
		score := priority * w.WeightFor(q.Source)
		if best == nil || score > bestScore {
			best = q
			bestScore = score
		}
	}
	return best, bestScore
}

// PickRandom is the explicit exploration fallback for learners with no
// usable weakness signal. The rand source is injected so tests can pin it.
func PickRandom(pool []*types.Question, rng *rand.Rand) *types.Question {
	if len(pool) == 0 {
		return nil
	}
	return pool[rng.Intn(len(pool))]
}
