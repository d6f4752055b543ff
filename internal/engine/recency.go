package engine

import "strings"

// RecencyWeighter maps a question's source identifier to a calibration
// weight in [0.40, 1.0]. Newest official exam material weighs 1.0,
// progressively older material less; unrecognized sources get the default.
// The weight only ranks candidates inside the selector's scoring product,
// it never gates eligibility.
type RecencyWeighter struct {
	tiers         []RecencyTier
	defaultWeight float64
}

func NewRecencyWeighter(cfg Config) *RecencyWeighter {
	return &RecencyWeighter{
		tiers:         cfg.RecencyTiers,
		defaultWeight: cfg.DefaultRecencyWeight,
	}
}

// WeightFor is a pure function of the source string. Matching is
// case-insensitive prefix-or-substring against each tier's patterns, first
// tier hit wins.
func (w *RecencyWeighter) WeightFor(source string) float64 {
	s := strings.ToLower(strings.TrimSpace(source))
	if s == "" {
		return w.defaultWeight
	}
	for _, tier := range w.tiers {
		for _, p := range tier.Patterns {
			if strings.HasPrefix(s, p) || strings.Contains(s, p) {
				return tier.Weight
			}
		}
	}
	return w.defaultWeight
}
