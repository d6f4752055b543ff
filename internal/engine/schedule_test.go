package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stepwise/stepwise-backend/internal/types"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestNextReviewIncorrectResetsUnconditionally(t *testing.T) {
	cfg := DefaultConfig()

	cases := []struct {
		name     string
		stage    types.Stage
		interval float64
	}{
		{name: "from_new", stage: types.StageNew, interval: 0},
		{name: "from_learning", stage: types.StageLearning, interval: 2},
		{name: "from_review", stage: types.StageReview, interval: 14},
		{name: "from_mastered", stage: types.StageMastered, interval: 63},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := NextReview(tc.stage, tc.interval, false, t0, cfg)
			if out.Stage != types.StageLearning {
				t.Fatalf("stage=%v, want learning", out.Stage)
			}
			if out.IntervalDays != 1 {
				t.Fatalf("interval=%v, want 1", out.IntervalDays)
			}
			if !out.NextDueAt.Equal(t0.Add(24 * time.Hour)) {
				t.Fatalf("next due=%v, want %v", out.NextDueAt, t0.Add(24*time.Hour))
			}
		})
	}
}

func TestNextReviewResetIsIdempotent(t *testing.T) {
	cfg := DefaultConfig()
	first := NextReview(types.StageMastered, 120, false, t0, cfg)
	second := NextReview(first.Stage, first.IntervalDays, false, t0.Add(time.Hour), cfg)
	if second.Stage != types.StageLearning || second.IntervalDays != 1 {
		t.Fatalf("second reset got stage=%v interval=%v, want learning/1", second.Stage, second.IntervalDays)
	}
}

func TestNextReviewCorrectAdvancesStages(t *testing.T) {
	cfg := DefaultConfig()

	stage, interval := types.StageNew, 0.0
	wantStages := []types.Stage{types.StageLearning, types.StageReview, types.StageMastered, types.StageMastered}
	for i, want := range wantStages {
		out := NextReview(stage, interval, true, t0, cfg)
		if out.Stage != want {
			t.Fatalf("step %d: stage=%v, want %v", i, out.Stage, want)
		}
		if out.IntervalDays <= interval {
			t.Fatalf("step %d: interval %v did not grow from %v", i, out.IntervalDays, interval)
		}
		stage, interval = out.Stage, out.IntervalDays
	}
}

func TestNextReviewIntervalMonotonicity(t *testing.T) {
	cfg := DefaultConfig()

	// Ten consecutive correct reviews: every interval strictly exceeds the
	// previous one, whatever the stage.
	stage, interval := types.StageNew, 0.0
	for i := 0; i < 10; i++ {
		out := NextReview(stage, interval, true, t0, cfg)
		if out.IntervalDays <= interval {
			t.Fatalf("review %d: interval %v <= previous %v", i, out.IntervalDays, interval)
		}
		stage, interval = out.Stage, out.IntervalDays
	}
}

func TestNextReviewIntervalRanges(t *testing.T) {
	cfg := DefaultConfig()

	// New card answered correctly lands in Learning with a 1-3 day interval.
	learning := NextReview(types.StageNew, 0, true, t0, cfg)
	if learning.IntervalDays < 1 || learning.IntervalDays > 3 {
		t.Fatalf("learning interval %v outside 1-3 days", learning.IntervalDays)
	}

	// Failed card (interval 1) answered correctly enters Review at 7-14 days.
	review := NextReview(types.StageLearning, 1, true, t0, cfg)
	if review.Stage != types.StageReview {
		t.Fatalf("stage=%v, want review", review.Stage)
	}
	if review.IntervalDays < 7 || review.IntervalDays > 14 {
		t.Fatalf("review interval %v outside 7-14 days", review.IntervalDays)
	}

	// Entering Mastered always means 30+ days.
	mastered := NextReview(types.StageReview, 7, true, t0, cfg)
	if mastered.Stage != types.StageMastered {
		t.Fatalf("stage=%v, want mastered", mastered.Stage)
	}
	if mastered.IntervalDays < 30 {
		t.Fatalf("mastered interval %v under 30 days", mastered.IntervalDays)
	}
}

// Scenario from the product flow: miss a cardiology question at t=0, then
// answer it correctly one day later.
func TestNextReviewFailThenRecover(t *testing.T) {
	cfg := DefaultConfig()

	failed := NextReview(types.StageNew, 0, false, t0, cfg)
	if failed.Stage != types.StageLearning || failed.IntervalDays != 1 {
		t.Fatalf("after miss: stage=%v interval=%v, want learning/1", failed.Stage, failed.IntervalDays)
	}

	t1 := t0.Add(24 * time.Hour)
	recovered := NextReview(failed.Stage, failed.IntervalDays, true, t1, cfg)
	if recovered.Stage != types.StageReview {
		t.Fatalf("after recovery: stage=%v, want review", recovered.Stage)
	}
	if recovered.IntervalDays != 7 {
		t.Fatalf("after recovery: interval=%v, want 7", recovered.IntervalDays)
	}
	if !recovered.NextDueAt.Equal(t1.Add(7 * 24 * time.Hour)) {
		t.Fatalf("after recovery: next due=%v, want %v", recovered.NextDueAt, t1.Add(7*24*time.Hour))
	}
}

func TestSortDue(t *testing.T) {
	early := t0
	late := t0.Add(time.Hour)

	newCard := &types.ReviewCard{ID: uuid.New(), Stage: types.StageNew, NextDueAt: late}
	masteredCard := &types.ReviewCard{ID: uuid.New(), Stage: types.StageMastered, NextDueAt: late}
	oldest := &types.ReviewCard{ID: uuid.New(), Stage: types.StageReview, NextDueAt: early}

	cards := []*types.ReviewCard{masteredCard, newCard, oldest}
	SortDue(cards)

	if cards[0] != oldest {
		t.Fatalf("oldest-due card not first")
	}
	// Same due time: New before Mastered.
	if cards[1] != newCard || cards[2] != masteredCard {
		t.Fatalf("stage tie-break wrong: got %v then %v", cards[1].Stage, cards[2].Stage)
	}
}
