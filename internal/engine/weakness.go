package engine

import (
	"sort"

	"github.com/stepwise/stepwise-backend/internal/types"
)

// TopicPriority is one entry of the weakness ranking.
type TopicPriority struct {
	Topic      string  `json:"topic"`
	Score      float64 `json:"score"`
	Accuracy   float64 `json:"accuracy"`
	SampleSize int     `json:"sample_size"`
}

// RankTopics scores every sufficiently-sampled topic by
// (1 - accuracy) × importance and returns them weakest-first. Topics under
// MinSampleSize are dropped: too few attempts is missing evidence, not
// strength. A learner with no attempts gets an empty ranking.
func RankTopics(aggs []*types.TopicAccuracy, cfg Config) []TopicPriority {
	ranked := make([]TopicPriority, 0, len(aggs))
	for _, agg := range aggs {
		if agg == nil || agg.TotalCount < cfg.MinSampleSize {
			continue
		}
		acc, ok := agg.Accuracy()
		if !ok {
			continue
		}
		ranked = append(ranked, TopicPriority{
			Topic:      agg.Topic,
			Score:      (1 - acc) * importanceFor(agg.Topic, cfg),
			Accuracy:   acc,
			SampleSize: agg.TotalCount,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Topic < ranked[j].Topic
	})
	return ranked
}

func importanceFor(topic string, cfg Config) float64 {
	if w, ok := cfg.TopicImportance[topic]; ok {
		return w
	}
	return cfg.DefaultImportance
}
