package types

import (
	"testing"
)

func TestParseExplanationTaggedVariants(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    ExplanationKind
		wantErr bool
	}{
		{
			name: "framework",
			raw:  `{"kind":"framework","framework":{"key_finding":"ST elevation in II, III, aVF","reasoning":["inferior MI"]}}`,
			want: KindFramework,
		},
		{
			name: "mnemonic",
			raw:  `{"kind":"mnemonic","mnemonic":{"mnemonic":"MUDPILES","expansion":["methanol","uremia"]}}`,
			want: KindMnemonic,
		},
		{
			name: "differential",
			raw:  `{"kind":"differential","differential":{"ranked":[{"choice":2,"verdict":"correct","rational":"classic presentation"}]}}`,
			want: KindDifferential,
		},
		{
			name: "explicit legacy",
			raw:  `{"kind":"legacy","legacy":{"text":"freeform writeup"}}`,
			want: KindLegacy,
		},
		{
			name: "untagged blob wraps as legacy",
			raw:  `{"text":"old pipeline output","refs":[1,2]}`,
			want: KindLegacy,
		},
		{
			name:    "tag without payload",
			raw:     `{"kind":"framework"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     `{{`,
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, err := ParseExplanation([]byte(tc.raw))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", e)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if e.Kind != tc.want {
				t.Fatalf("kind = %q, want %q", e.Kind, tc.want)
			}
		})
	}
}

func TestParseExplanationEmpty(t *testing.T) {
	e, err := ParseExplanation(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e != nil {
		t.Fatalf("expected nil explanation for empty payload, got %+v", e)
	}
}

func TestParseExplanationLegacyKeepsRawPayload(t *testing.T) {
	raw := `{"text":"old pipeline output"}`
	e, err := ParseExplanation([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(e.Legacy) != raw {
		t.Fatalf("legacy payload = %s, want %s", e.Legacy, raw)
	}
}
