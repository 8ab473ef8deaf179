package triage

import (
	"fmt"
	"strings"
)

// DefaultLanguage is used when a ticket arrives without a language tag.
const DefaultLanguage = "en-US"

// Ticket is a single support conversation submitted for triage. Only the id
// and last message must be non-empty; the other text fields are bounded.
type Ticket struct {
	ID                  string `json:"id" validate:"required,max=255"`
	Customer            string `json:"customer" validate:"max=255"`
	Channel             string `json:"channel" validate:"max=255"`
	LastMessage         string `json:"last_message" validate:"required,max=255"`
	ConversationSummary string `json:"conversation_summary" validate:"max=255"`
	SLAHoursOpen        int    `json:"sla_hours_open" validate:"gte=0"`
	Language            string `json:"language,omitempty" validate:"omitempty,max=35"`
}

// RiskLabel is the closed set of risk levels. The zero value is not a valid label.
type RiskLabel int

const (
	// RiskLow means standard handling.
	RiskLow RiskLabel = iota + 1

	// RiskMedium means reply today and watch for escalation.
	RiskMedium

	// RiskHigh means urgent escalation.
	RiskHigh
)

// ParseRiskLabel accepts LOW, MEDIUM or HIGH in any letter case.
func ParseRiskLabel(s string) (RiskLabel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return RiskLow, nil
	case "MEDIUM":
		return RiskMedium, nil
	case "HIGH":
		return RiskHigh, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLabel, s)
	}
}

// Valid reports whether l is one of the three defined labels.
func (l RiskLabel) Valid() bool {
	return l >= RiskLow && l <= RiskHigh
}

func (l RiskLabel) String() string {
	switch l {
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	default:
		return fmt.Sprintf("RiskLabel(%d)", int(l))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l RiskLabel) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLabel, int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *RiskLabel) UnmarshalText(b []byte) error {
	parsed, err := ParseRiskLabel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Category names one heuristic risk dimension.
type Category string

const (
	CategoryEscalation Category = "escalation"
	CategoryChurn      Category = "churn"
	CategorySLA        Category = "sla"
	CategorySentiment  Category = "sentiment"
)

// Categories lists every category in reason/trace order.
var Categories = []Category{CategoryEscalation, CategoryChurn, CategorySLA, CategorySentiment}

// Breakdown is the per-category heuristic attribution. It always reflects the
// rule engine, even when the final label came from the LLM.
type Breakdown struct {
	Escalation int `json:"escalation"`
	Churn      int `json:"churn"`
	SLA        int `json:"sla"`
	Sentiment  int `json:"sentiment"`
}

// Get returns the contribution recorded for c.
func (b Breakdown) Get(c Category) int {
	switch c {
	case CategoryEscalation:
		return b.Escalation
	case CategoryChurn:
		return b.Churn
	case CategorySLA:
		return b.SLA
	case CategorySentiment:
		return b.Sentiment
	default:
		return 0
	}
}

func (b *Breakdown) set(c Category, w int) {
	switch c {
	case CategoryEscalation:
		b.Escalation = w
	case CategoryChurn:
		b.Churn = w
	case CategorySLA:
		b.SLA = w
	case CategorySentiment:
		b.Sentiment = w
	}
}

// Total is the uncapped sum of all contributions.
func (b Breakdown) Total() int {
	return b.Escalation + b.Churn + b.SLA + b.Sentiment
}

// Source records which path produced a result's label and score.
type Source string

const (
	// SourceHeuristic means the rule engine result was returned, either
	// because the LLM path failed or no judge is configured.
	SourceHeuristic Source = "heuristic"

	// SourceLLM means score, label, reason and action came from the LLM.
	SourceLLM Source = "llm"

	// SourceGuardrail means the LLM answered but the guardrail kept the baseline.
	SourceGuardrail Source = "guardrail"
)

// Result is the triage outcome for one ticket.
type Result struct {
	ID              string    `json:"id"`
	RiskScore       int       `json:"risk_score"`
	Label           RiskLabel `json:"risk_label"`
	Reason          string    `json:"reason"`
	SuggestedAction string    `json:"suggested_action"`
	DebugSignals    []string  `json:"debug_signals"`
	Breakdown       Breakdown `json:"risk_breakdown"`
	Language        string    `json:"language"`
	Source          Source    `json:"source"`
}

// Clone returns a deep copy so callers can append signals without aliasing.
func (r *Result) Clone() *Result {
	cp := *r
	cp.DebugSignals = append(make([]string, 0, len(r.DebugSignals)+4), r.DebugSignals...)
	return &cp
}

// AIAnalysis is the LLM's judgment after clamping and label validation.
type AIAnalysis struct {
	RiskScore       int       `json:"risk_score"`
	Label           RiskLabel `json:"risk_label"`
	Reason          string    `json:"reason"`
	SuggestedAction string    `json:"suggested_action"`
	Confidence      int       `json:"confidence"`
	Signals         []string  `json:"signals"`
}
