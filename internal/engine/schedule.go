package engine

import (
	"sort"
	"time"

	"github.com/stepwise/stepwise-backend/internal/types"
)

const (
	// Interval after any failed attempt, and the floor the growth factors
	// multiply from.
	resetIntervalDays = 1.0

	hoursPerDay = 24
)

// ReviewOutcome is the next scheduling state of a card after an attempt.
type ReviewOutcome struct {
	Stage        types.Stage
	IntervalDays float64
	NextDueAt    time.Time
}

// NextReview computes the review state machine transition for one attempt.
//
// Correct answers advance New → Learning → Review → Mastered (Mastered is
// terminal) and grow the interval by the factor of the stage entered, so a
// successful review always strictly lengthens the interval. Incorrect
// answers reset to Learning with a 1-day interval unconditionally; there is
// no partial credit.
func NextReview(stage types.Stage, intervalDays float64, correct bool, now time.Time, cfg Config) ReviewOutcome {
	if !stage.Valid() {
		stage = types.StageNew
	}
	out := ReviewOutcome{}
	if correct {
		out.Stage = stage.Next()
		base := intervalDays
		if base < resetIntervalDays {
			base = resetIntervalDays
		}
		out.IntervalDays = base * growthFor(out.Stage, cfg)
	} else {
		out.Stage = types.StageLearning
		out.IntervalDays = resetIntervalDays
	}
	out.NextDueAt = now.Add(daysToDuration(out.IntervalDays))
	return out
}

func growthFor(stage types.Stage, cfg Config) float64 {
	switch stage {
	case types.StageReview:
		return cfg.GrowthReview
	case types.StageMastered:
		return cfg.GrowthMastered
	default:
		return cfg.GrowthLearning
	}
}

func daysToDuration(days float64) time.Duration {
	return time.Duration(days * hoursPerDay * float64(time.Hour))
}

// SortDue orders cards oldest-due first; equally-overdue cards surface the
// less-familiar stage first. ID is the final tie-break so the order is
// fully deterministic.
func SortDue(cards []*types.ReviewCard) {
	sort.SliceStable(cards, func(i, j int) bool {
		if !cards[i].NextDueAt.Equal(cards[j].NextDueAt) {
			return cards[i].NextDueAt.Before(cards[j].NextDueAt)
		}
		if cards[i].Stage != cards[j].Stage {
			return cards[i].Stage < cards[j].Stage
		}
		return cards[i].ID.String() < cards[j].ID.String()
	})
}
