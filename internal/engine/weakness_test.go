package engine

import (
	"testing"

	"github.com/google/uuid"

	"github.com/stepwise/stepwise-backend/internal/types"
)

func agg(topic string, correct, total int) *types.TopicAccuracy {
	return &types.TopicAccuracy{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		Topic:        topic,
		CorrectCount: correct,
		TotalCount:   total,
	}
}

func TestRankTopicsEmptyForNewLearner(t *testing.T) {
	ranked := RankTopics(nil, DefaultConfig())
	if len(ranked) != 0 {
		t.Fatalf("expected empty ranking, got %d entries", len(ranked))
	}
}

func TestRankTopicsExcludesUnderSampled(t *testing.T) {
	cfg := DefaultConfig() // min sample 5

	ranked := RankTopics([]*types.TopicAccuracy{
		agg("nephrology", 3, 10),
		agg("psychiatry", 0, 2), // terrible accuracy but only 2 attempts
	}, cfg)

	if len(ranked) != 1 {
		t.Fatalf("expected 1 ranked topic, got %d", len(ranked))
	}
	if ranked[0].Topic != "nephrology" {
		t.Fatalf("ranked topic=%q, want nephrology", ranked[0].Topic)
	}
	if ranked[0].Accuracy != 0.3 {
		t.Fatalf("accuracy=%v, want 0.3", ranked[0].Accuracy)
	}
}

func TestRankTopicsOrdering(t *testing.T) {
	cfg := DefaultConfig()

	// cardiology: (1-0.5)*0.95 = 0.475
	// nephrology: (1-0.3)*0.85 = 0.595
	// biostatistics: (1-0.2)*0.55 = 0.44
	ranked := RankTopics([]*types.TopicAccuracy{
		agg("cardiology", 5, 10),
		agg("nephrology", 3, 10),
		agg("biostatistics", 2, 10),
	}, cfg)

	want := []string{"nephrology", "cardiology", "biostatistics"}
	if len(ranked) != len(want) {
		t.Fatalf("got %d topics, want %d", len(ranked), len(want))
	}
	for i, topic := range want {
		if ranked[i].Topic != topic {
			t.Fatalf("position %d: got %q, want %q", i, ranked[i].Topic, topic)
		}
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Fatalf("ranking not descending at %d", i)
		}
	}
}

func TestRankTopicsScoreBounds(t *testing.T) {
	cfg := DefaultConfig()
	ranked := RankTopics([]*types.TopicAccuracy{
		agg("cardiology", 0, 20),  // worst possible accuracy
		agg("psychiatry", 20, 20), // perfect accuracy
	}, cfg)
	for _, tp := range ranked {
		max := importanceFor(tp.Topic, cfg)
		if tp.Score < 0 || tp.Score > max {
			t.Fatalf("topic %q score %v outside [0, %v]", tp.Topic, tp.Score, max)
		}
	}
}

func TestRankTopicsDeterministicTieBreak(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TopicImportance = map[string]float64{}
	cfg.DefaultImportance = 1.0

	// Identical scores: order falls back to topic name.
	ranked := RankTopics([]*types.TopicAccuracy{
		agg("zoster", 5, 10),
		agg("asthma", 5, 10),
	}, cfg)
	if ranked[0].Topic != "asthma" || ranked[1].Topic != "zoster" {
		t.Fatalf("tie-break order wrong: %q, %q", ranked[0].Topic, ranked[1].Topic)
	}
}

func TestRankTopicsUnknownTopicUsesDefaultImportance(t *testing.T) {
	cfg := DefaultConfig()
	ranked := RankTopics([]*types.TopicAccuracy{agg("toxicology", 5, 10)}, cfg)
	if len(ranked) != 1 {
		t.Fatalf("expected 1 ranked topic, got %d", len(ranked))
	}
	want := 0.5 * cfg.DefaultImportance
	if ranked[0].Score != want {
		t.Fatalf("score=%v, want %v", ranked[0].Score, want)
	}
}
