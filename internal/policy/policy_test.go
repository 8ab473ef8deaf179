package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/ticketwatch/internal/triage"
)

func baseline(label triage.RiskLabel, escalation int) *triage.Result {
	return &triage.Result{
		ID:           "T-1",
		RiskScore:    75,
		Label:        label,
		Breakdown:    triage.Breakdown{Escalation: escalation, SLA: 35},
		DebugSignals: []string{"escalation: procon", "sla: >=48h"},
	}
}

func ai(confidence int) *triage.AIAnalysis {
	return &triage.AIAnalysis{RiskScore: 10, Label: triage.RiskLow, Confidence: confidence, Signals: []string{"calm"}}
}

func TestDefaultExpressionMatchesConfidenceGuardrail(t *testing.T) {
	t.Parallel()

	g, err := Compile(DefaultExpression, log.Nop())
	require.NoError(t, err)
	native := triage.ConfidenceGuardrail(triage.DefaultMinConfidence)

	cases := []struct {
		b *triage.Result
		a *triage.AIAnalysis
	}{
		{baseline(triage.RiskHigh, 40), ai(90)},
		{baseline(triage.RiskHigh, 40), ai(55)},
		{baseline(triage.RiskHigh, 40), ai(54)},
		{baseline(triage.RiskHigh, 0), ai(90)},
		{baseline(triage.RiskMedium, 40), ai(90)},
		{baseline(triage.RiskLow, 0), ai(0)},
	}
	for i, c := range cases {
		got, err := g.Eval(c.b, c.a)
		require.NoError(t, err)
		assert.Equal(t, native.KeepBaseline(c.b, c.a), got, "case %d", i)
	}
}

func TestCustomExpressions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		want bool
	}{
		{`baseline.risk_score >= 70`, true},
		{`ai.risk_label == "LOW" && ai.confidence < 50`, false},
		{`"calm" in ai.signals`, true},
		{`baseline.debug_signals.exists(s, s.startsWith("sla:"))`, true},
		{`baseline.breakdown.sla + baseline.breakdown.escalation > 100`, false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()

			g, err := Compile(tt.expr, log.Nop())
			require.NoError(t, err)
			assert.Equal(t, tt.expr, g.Expression())

			got, err := g.Eval(baseline(triage.RiskHigh, 40), ai(60))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{
		`ai.confidence >=`,
		`unknown_var > 1`,
		`1 + 2`,
		`"text"`,
	} {
		_, err := Compile(expr, log.Nop())
		assert.Error(t, err, expr)
	}
}

func TestKeepBaseline_FailsClosed(t *testing.T) {
	t.Parallel()

	// Missing key is a runtime error, so the baseline is kept.
	g, err := Compile(`ai.no_such_field > 1`, log.Nop())
	require.NoError(t, err)

	_, evalErr := g.Eval(baseline(triage.RiskLow, 0), ai(10))
	require.Error(t, evalErr)
	assert.True(t, g.KeepBaseline(baseline(triage.RiskLow, 0), ai(10)))
}
