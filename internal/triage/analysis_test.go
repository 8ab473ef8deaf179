package triage

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/linnemanlabs/ticketwatch/internal/llmjson"
)

func TestParseAnalysis(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    *AIAnalysis
		wantErr error
	}{
		{
			name: "clean json",
			raw:  `{"risk_score": 80, "risk_label": "HIGH", "reason": "r", "suggested_action": "a", "confidence": 90, "signals": ["legal threat"]}`,
			want: &AIAnalysis{RiskScore: 80, Label: RiskHigh, Reason: "r", SuggestedAction: "a", Confidence: 90, Signals: []string{"legal threat"}},
		},
		{
			name: "prose wrapped and lower-case label",
			raw:  `Here is my analysis: {"risk_score": 40, "risk_label": "medium", "reason": "r", "suggested_action": "a", "confidence": 60} Thanks!`,
			want: &AIAnalysis{RiskScore: 40, Label: RiskMedium, Reason: "r", SuggestedAction: "a", Confidence: 60},
		},
		{
			name: "out of range values clamped",
			raw:  `{"risk_score": 150, "risk_label": "HIGH", "reason": "r", "suggested_action": "a", "confidence": -20}`,
			want: &AIAnalysis{RiskScore: 100, Label: RiskHigh, Reason: "r", SuggestedAction: "a", Confidence: 0},
		},
		{
			name: "float values rounded",
			raw:  `{"risk_score": 72.6, "risk_label": "HIGH", "reason": "r", "suggested_action": "a", "confidence": 54.4, "signals": []}`,
			want: &AIAnalysis{RiskScore: 73, Label: RiskHigh, Reason: "r", SuggestedAction: "a", Confidence: 54, Signals: []string{}},
		},
		{
			name: "null signals stay nil",
			raw:  `{"risk_score": 10, "risk_label": "LOW", "reason": "", "suggested_action": "", "confidence": 70, "signals": null}`,
			want: &AIAnalysis{RiskScore: 10, Label: RiskLow, Confidence: 70},
		},
		{
			name:    "unknown label",
			raw:     `{"risk_score": 95, "risk_label": "CRITICAL", "reason": "r", "suggested_action": "a", "confidence": 90}`,
			wantErr: ErrInvalidLabel,
		},
		{
			name:    "missing confidence",
			raw:     `{"risk_score": 95, "risk_label": "HIGH", "reason": "r", "suggested_action": "a"}`,
			wantErr: llmjson.ErrMalformedResponse,
		},
		{
			name:    "missing label",
			raw:     `{"risk_score": 95, "reason": "r", "suggested_action": "a", "confidence": 90}`,
			wantErr: llmjson.ErrMalformedResponse,
		},
		{
			name:    "not json",
			raw:     `I am unable to analyze this ticket.`,
			wantErr: llmjson.ErrMalformedResponse,
		},
		{
			name:    "string score",
			raw:     `{"risk_score": "high", "risk_label": "HIGH", "reason": "r", "suggested_action": "a", "confidence": 90}`,
			wantErr: llmjson.ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseAnalysis(tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAnalysis: %v", err)
			}
			if got.RiskScore != tt.want.RiskScore || got.Label != tt.want.Label ||
				got.Reason != tt.want.Reason || got.SuggestedAction != tt.want.SuggestedAction ||
				got.Confidence != tt.want.Confidence {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if !reflect.DeepEqual(got.Signals, tt.want.Signals) {
				t.Errorf("signals = %#v, want %#v", got.Signals, tt.want.Signals)
			}
		})
	}
}

func TestParseAnalysis_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []AIAnalysis{
		{RiskScore: 0, Label: RiskLow, Confidence: 0},
		{RiskScore: 100, Label: RiskHigh, Reason: "legal threat", SuggestedAction: "escalate", Confidence: 100, Signals: []string{"procon", "lawyer"}},
		{RiskScore: 42, Label: RiskMedium, Reason: "cliente irritado", SuggestedAction: "responder hoje", Confidence: 55, Signals: []string{}},
		{RiskScore: 7, Label: RiskLow, Reason: `quotes " and {braces}`, SuggestedAction: "none", Confidence: 61},
	}

	for _, want := range tests {
		raw, err := json.Marshal(want)
		if err != nil {
			t.Fatalf("marshal %+v: %v", want, err)
		}
		got, err := ParseAnalysis(string(raw))
		if err != nil {
			t.Fatalf("ParseAnalysis(%s): %v", raw, err)
		}
		if !reflect.DeepEqual(*got, want) {
			t.Errorf("round trip of %s = %#v, want %#v", raw, *got, want)
		}
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	_, malformed := ParseAnalysis("nope")
	_, badLabel := ParseAnalysis(`{"risk_score":1,"risk_label":"X","reason":"","suggested_action":"","confidence":1}`)

	tests := []struct {
		err  error
		want ErrorKind
	}{
		{malformed, KindMalformedResponse},
		{badLabel, KindInvalidLabel},
		{errors.Join(ErrTransport, errors.New("503")), KindTransportFailure},
		{errors.New("anything else"), KindTransportFailure},
		{ErrJudgePanic, KindPanic},
		{contextDeadline(), KindTimeout},
	}
	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.want {
			t.Errorf("ClassifyError(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
