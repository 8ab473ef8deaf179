package triage

import (
	"fmt"

	"github.com/linnemanlabs/ticketwatch/internal/llmjson"
)

const (
	minPercent = 0
	maxPercent = 100
)

// analysisWire mirrors the JSON object the model is asked to return.
// Pointers distinguish missing keys from zero values.
type analysisWire struct {
	RiskScore       *float64 `json:"risk_score"`
	RiskLabel       *string  `json:"risk_label"`
	Reason          *string  `json:"reason"`
	SuggestedAction *string  `json:"suggested_action"`
	Confidence      *float64 `json:"confidence"`
	Signals         []string `json:"signals"`
}

// ParseAnalysis turns raw model output into a validated AIAnalysis.
// Numbers are rounded and clamped to 0-100. Signals stay nil when the key is
// absent or null. A missing required key yields
// llmjson.ErrMalformedResponse and an unknown label yields ErrInvalidLabel.
func ParseAnalysis(raw string) (*AIAnalysis, error) {
	var w analysisWire
	if err := llmjson.Decode(raw, &w); err != nil {
		return nil, err
	}

	if err := llmjson.Require(map[string]bool{
		"risk_score":       w.RiskScore != nil,
		"risk_label":       w.RiskLabel != nil,
		"reason":           w.Reason != nil,
		"suggested_action": w.SuggestedAction != nil,
		"confidence":       w.Confidence != nil,
	}, "risk_score", "risk_label", "reason", "suggested_action", "confidence"); err != nil {
		return nil, err
	}

	label, err := ParseRiskLabel(*w.RiskLabel)
	if err != nil {
		return nil, fmt.Errorf("parse analysis: %w", err)
	}

	return &AIAnalysis{
		RiskScore:       llmjson.ClampInt(*w.RiskScore, minPercent, maxPercent),
		Label:           label,
		Reason:          *w.Reason,
		SuggestedAction: *w.SuggestedAction,
		Confidence:      llmjson.ClampInt(*w.Confidence, minPercent, maxPercent),
		Signals:         w.Signals,
	}, nil
}
