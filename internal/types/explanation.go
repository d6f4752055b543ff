package types

import (
	"encoding/json"
	"fmt"
)

// ExplanationKind tags the structured explanation variants the content
// pipeline produces. Anything that predates the structured formats is
// carried as KindLegacy with its raw payload intact.
type ExplanationKind string

const (
	KindFramework    ExplanationKind = "framework"
	KindMnemonic     ExplanationKind = "mnemonic"
	KindDifferential ExplanationKind = "differential"
	KindLegacy       ExplanationKind = "legacy"
)

// Explanation is a tagged union over the known explanation formats.
// Exactly one of the variant pointers is set, matching Kind.
type Explanation struct {
	Kind         ExplanationKind       `json:"kind"`
	Framework    *FrameworkExplanation `json:"framework,omitempty"`
	Mnemonic     *MnemonicExplanation  `json:"mnemonic,omitempty"`
	Differential *DifferentialExpl     `json:"differential,omitempty"`
	Legacy       json.RawMessage       `json:"legacy,omitempty"`
}

// FrameworkExplanation walks the clinical reasoning from finding to answer.
type FrameworkExplanation struct {
	KeyFinding     string   `json:"key_finding"`
	Reasoning      []string `json:"reasoning"`
	WhyNotOthers   []string `json:"why_not_others,omitempty"`
	TakeawayPearl  string   `json:"takeaway_pearl,omitempty"`
}

type MnemonicExplanation struct {
	Mnemonic  string   `json:"mnemonic"`
	Expansion []string `json:"expansion"`
	Context   string   `json:"context,omitempty"`
}

// DifferentialExpl ranks the answer choices as a differential.
type DifferentialExpl struct {
	Ranked []DifferentialItem `json:"ranked"`
}

type DifferentialItem struct {
	Choice   int    `json:"choice"`
	Verdict  string `json:"verdict"` // correct|close|wrong
	Rational string `json:"rational"`
}

// ParseExplanation decodes a stored payload into the tagged form. Payloads
// without a recognized kind tag are wrapped as legacy rather than rejected.
func ParseExplanation(raw []byte) (*Explanation, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var e Explanation
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode explanation: %w", err)
	}
	switch e.Kind {
	case KindFramework:
		if e.Framework == nil {
			return nil, fmt.Errorf("explanation tagged %q has no framework payload", e.Kind)
		}
	case KindMnemonic:
		if e.Mnemonic == nil {
			return nil, fmt.Errorf("explanation tagged %q has no mnemonic payload", e.Kind)
		}
	case KindDifferential:
		if e.Differential == nil {
			return nil, fmt.Errorf("explanation tagged %q has no differential payload", e.Kind)
		}
	case KindLegacy:
		if len(e.Legacy) == 0 {
			e.Legacy = append(json.RawMessage(nil), raw...)
		}
	default:
		// Untagged blob from the old pipeline.
		return &Explanation{Kind: KindLegacy, Legacy: append(json.RawMessage(nil), raw...)}, nil
	}
	return &e, nil
}

func (e *Explanation) Encode() ([]byte, error) {
	if e == nil {
		return nil, nil
	}
	return json.Marshal(e)
}
