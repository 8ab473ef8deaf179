package triage

// DefaultMinConfidence is the confidence at which a confident LLM answer
// must not downgrade an escalated HIGH baseline.
const DefaultMinConfidence = 55

// Guardrail decides whether the baseline wins over a successful AI analysis.
type Guardrail interface {
	KeepBaseline(baseline *Result, ai *AIAnalysis) bool
}

// GuardrailFunc adapts a function to the Guardrail interface.
type GuardrailFunc func(baseline *Result, ai *AIAnalysis) bool

// KeepBaseline calls f.
func (f GuardrailFunc) KeepBaseline(baseline *Result, ai *AIAnalysis) bool {
	return f(baseline, ai)
}

// ConfidenceGuardrail keeps the baseline when the AI is at least min
// confident, the baseline detected an escalation threat and the baseline
// label is HIGH. Below min confidence the AI answer is merged.
func ConfidenceGuardrail(minConfidence int) Guardrail {
	return GuardrailFunc(func(baseline *Result, ai *AIAnalysis) bool {
		return ai.Confidence >= minConfidence &&
			baseline.Breakdown.Escalation > 0 &&
			baseline.Label == RiskHigh
	})
}
