// Package policy provides an operator-defined guardrail written in CEL.
//
// The expression sees two variables and must return a bool; true keeps the
// heuristic baseline:
//
//	baseline: {risk_score, risk_label, breakdown: {escalation, churn, sla, sentiment}, debug_signals}
//	ai:       {risk_score, risk_label, confidence, signals}
//
// Numbers are CEL ints and labels are the strings "LOW", "MEDIUM", "HIGH".
package policy

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/ticketwatch/internal/triage"
)

// DefaultExpression reproduces triage.ConfidenceGuardrail(triage.DefaultMinConfidence).
const DefaultExpression = `ai.confidence >= 55 && baseline.breakdown.escalation > 0 && baseline.risk_label == "HIGH"`

const costLimit = 10000

// Guardrail evaluates a compiled CEL program for each reconciliation.
type Guardrail struct {
	expr   string
	prg    cel.Program
	logger log.Logger
}

// Compile parses and type-checks expr. The expression must evaluate to bool.
func Compile(expr string, logger log.Logger) (*Guardrail, error) {
	env, err := cel.NewEnv(
		cel.Variable("baseline", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("ai", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile guardrail: %w", issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("compile guardrail: expression returns %s, want bool", ast.OutputType())
	}

	prg, err := env.Program(ast,
		cel.InterruptCheckFrequency(100),
		cel.CostLimit(costLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("program guardrail: %w", err)
	}
	return &Guardrail{expr: expr, prg: prg, logger: logger}, nil
}

// Expression returns the source expression.
func (g *Guardrail) Expression() string {
	return g.expr
}

// KeepBaseline implements triage.Guardrail. Evaluation errors and non-bool
// results keep the baseline.
func (g *Guardrail) KeepBaseline(baseline *triage.Result, ai *triage.AIAnalysis) bool {
	keep, err := g.Eval(baseline, ai)
	if err != nil {
		g.logger.Warn(context.Background(), "guardrail evaluation failed, keeping baseline",
			"ticket_id", baseline.ID,
			"err", err.Error(),
		)
		return true
	}
	return keep
}

// Eval runs the expression against baseline and ai.
func (g *Guardrail) Eval(baseline *triage.Result, ai *triage.AIAnalysis) (bool, error) {
	out, _, err := g.prg.Eval(map[string]any{
		"baseline": baselineVars(baseline),
		"ai":       aiVars(ai),
	})
	if err != nil {
		return false, fmt.Errorf("eval guardrail: %w", err)
	}
	v, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("eval guardrail: result %T is not bool", out.Value())
	}
	return v, nil
}

func baselineVars(r *triage.Result) map[string]any {
	return map[string]any{
		"risk_score": int64(r.RiskScore),
		"risk_label": r.Label.String(),
		"breakdown": map[string]any{
			"escalation": int64(r.Breakdown.Escalation),
			"churn":      int64(r.Breakdown.Churn),
			"sla":        int64(r.Breakdown.SLA),
			"sentiment":  int64(r.Breakdown.Sentiment),
		},
		"debug_signals": toList(r.DebugSignals),
	}
}

func aiVars(a *triage.AIAnalysis) map[string]any {
	return map[string]any{
		"risk_score": int64(a.RiskScore),
		"risk_label": a.Label.String(),
		"confidence": int64(a.Confidence),
		"signals":    toList(a.Signals),
	}
}

func toList(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

var _ triage.Guardrail = (*Guardrail)(nil)
