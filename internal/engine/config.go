package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RecencyTier maps source-identifier patterns to a calibration weight.
// Tiers are checked in order; the first pattern match wins.
type RecencyTier struct {
	Patterns []string `yaml:"patterns"`
	Weight   float64  `yaml:"weight"`
}

// Config carries every tunable of the selection engine. The interval and
// probability constants here are the concrete choices for the descriptive
// ranges the product team signed off on (learning 1-3d, review 7-14d,
// mastered 30d+); the transition laws hold for any growth factors > 1.
type Config struct {
	// Probability of serving the due-queue head when due cards exist.
	PReview float64 `yaml:"p_review"`
	// Topics with fewer attempts than this are insufficient evidence,
	// not strengths, and are excluded from weakness ranking.
	MinSampleSize int `yaml:"min_sample_size"`
	// How many of the weakest topics the candidate filter spans.
	TopWeakTopics int `yaml:"top_weak_topics"`

	// Interval growth factor applied on a correct answer, keyed by the
	// stage the card advances into.
	GrowthLearning float64 `yaml:"growth_learning"`
	GrowthReview   float64 `yaml:"growth_review"`
	GrowthMastered float64 `yaml:"growth_mastered"`

	RecencyTiers         []RecencyTier `yaml:"recency_tiers"`
	DefaultRecencyWeight float64       `yaml:"default_recency_weight"`

	// Static per-topic exam-frequency weights.
	TopicImportance   map[string]float64 `yaml:"topic_importance"`
	DefaultImportance float64            `yaml:"default_importance"`
}

func DefaultConfig() Config {
	return Config{
		PReview:        0.35,
		MinSampleSize:  5,
		TopWeakTopics:  3,
		GrowthLearning: 2.0,
		GrowthReview:   7.0,
		GrowthMastered: 4.5,
		RecencyTiers: []RecencyTier{
			{Patterns: []string{"nbme_2025", "nbme_2024", "free137"}, Weight: 1.0},
			{Patterns: []string{"nbme_2023", "nbme_2022", "free120"}, Weight: 0.85},
			{Patterns: []string{"uworld", "amboss", "qbank"}, Weight: 0.70},
			{Patterns: []string{"legacy", "archive", "offline"}, Weight: 0.55},
		},
		DefaultRecencyWeight: 0.60,
		TopicImportance: map[string]float64{
			"internal_medicine": 1.0,
			"cardiology":        0.95,
			"pulmonology":       0.90,
			"gastroenterology":  0.90,
			"nephrology":        0.85,
			"surgery":           0.85,
			"pediatrics":        0.80,
			"obgyn":             0.80,
			"psychiatry":        0.70,
			"neurology":         0.70,
			"biostatistics":     0.55,
		},
		DefaultImportance: 0.65,
	}
}

// LoadConfig reads a YAML overlay on top of the defaults. An empty path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read engine config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse engine config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("engine config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.PReview < 0 || c.PReview > 1 {
		return fmt.Errorf("p_review %v out of [0,1]", c.PReview)
	}
	if c.MinSampleSize < 1 {
		return fmt.Errorf("min_sample_size %d must be >= 1", c.MinSampleSize)
	}
	if c.TopWeakTopics < 1 {
		return fmt.Errorf("top_weak_topics %d must be >= 1", c.TopWeakTopics)
	}
	for _, g := range []float64{c.GrowthLearning, c.GrowthReview, c.GrowthMastered} {
		// Growth <= 1 would break the interval monotonicity law.
		if g <= 1 {
			return fmt.Errorf("growth factor %v must be > 1", g)
		}
	}
	for _, t := range c.RecencyTiers {
		if t.Weight < 0.40 || t.Weight > 1.0 {
			return fmt.Errorf("recency tier weight %v out of [0.40, 1.0]", t.Weight)
		}
	}
	if c.DefaultRecencyWeight < 0.40 || c.DefaultRecencyWeight > 1.0 {
		return fmt.Errorf("default_recency_weight %v out of [0.40, 1.0]", c.DefaultRecencyWeight)
	}
	return nil
}
