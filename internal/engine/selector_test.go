package engine

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"github.com/stepwise/stepwise-backend/internal/types"
)

func question(topic, source string) *types.Question {
	return &types.Question{ID: uuid.New(), Topic: topic, Source: source}
}

func TestPickBestMultiplicativeScoring(t *testing.T) {
	w := NewRecencyWeighter(DefaultConfig())
	priorities := map[string]float64{
		"cardiology": 0.6,
		"psychiatry": 0.2,
	}

	// Important-but-old beats unimportant-but-new: 0.6*0.55 > 0.2*1.0.
	oldCardio := question("cardiology", "legacy_qbook")
	newPsych := question("psychiatry", "nbme_2025")

	best, score := PickBest([]*types.Question{newPsych, oldCardio}, priorities, w)
	if best != oldCardio {
		t.Fatalf("picked %q/%q, want the old cardiology question", best.Topic, best.Source)
	}
	if want := 0.6 * 0.55; score != want {
		t.Fatalf("score=%v, want %v", score, want)
	}
}

func TestPickBestRecencyBreaksWeaknessTie(t *testing.T) {
	w := NewRecencyWeighter(DefaultConfig())
	priorities := map[string]float64{"cardiology": 0.6}

	oldQ := question("cardiology", "uworld_block")
	newQ := question("cardiology", "nbme_2024")

	best, _ := PickBest([]*types.Question{oldQ, newQ}, priorities, w)
	if best != newQ {
		t.Fatalf("within one weakness tier the newer source should win")
	}
}

func TestPickBestStableTieBreak(t *testing.T) {
	w := NewRecencyWeighter(DefaultConfig())
	priorities := map[string]float64{"cardiology": 0.6}

	first := question("cardiology", "nbme_2024")
	second := question("cardiology", "nbme_2025") // identical weight tier

	for i := 0; i < 5; i++ {
		best, _ := PickBest([]*types.Question{first, second}, priorities, w)
		if best != first {
			t.Fatalf("tie must keep the earliest candidate")
		}
	}
}

func TestPickBestIgnoresUnrankedTopics(t *testing.T) {
	w := NewRecencyWeighter(DefaultConfig())
	priorities := map[string]float64{"cardiology": 0.6}

	unranked := question("dermatology", "nbme_2025")
	ranked := question("cardiology", "legacy")

	best, _ := PickBest([]*types.Question{unranked, ranked}, priorities, w)
	if best != ranked {
		t.Fatalf("question outside ranked topics must not be picked")
	}
}

func TestPickBestEmptyPool(t *testing.T) {
	w := NewRecencyWeighter(DefaultConfig())
	best, _ := PickBest(nil, map[string]float64{"cardiology": 0.6}, w)
	if best != nil {
		t.Fatalf("empty pool must yield nil")
	}
}

func TestPickRandomDeterministicUnderSeed(t *testing.T) {
	pool := []*types.Question{
		question("cardiology", "a"),
		question("nephrology", "b"),
		question("psychiatry", "c"),
	}

	a := PickRandom(pool, rand.New(rand.NewSource(42)))
	b := PickRandom(pool, rand.New(rand.NewSource(42)))
	if a != b {
		t.Fatalf("same seed must pick the same question")
	}
	if PickRandom(nil, rand.New(rand.NewSource(42))) != nil {
		t.Fatalf("empty pool must yield nil")
	}
}
