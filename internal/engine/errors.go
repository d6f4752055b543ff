package engine

import "errors"

var (
	// ErrConcurrentMutation means a review-card write observed a stale
	// version stamp. The per-pair lock should make this impossible; it is
	// a locking bug, never resolved by last-write-wins.
	ErrConcurrentMutation = errors.New("concurrent review card mutation detected")

	// ErrEmptyPool means the candidate pool is empty even after widening
	// and there is no topic signal to direct generation at: the learner
	// has no attempts and the store holds nothing.
	ErrEmptyPool = errors.New("no eligible question in candidate pool")

	// ErrNoQuestion means every fallback was exhausted: nothing unseen,
	// nothing due, and content generation unavailable.
	ErrNoQuestion = errors.New("no question available for learner")
)
