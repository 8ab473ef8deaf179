// internal/triage/engine.go
package triage

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/go-core/log"
)

const tracerName = "github.com/linnemanlabs/ticketwatch/internal/triage"

// DefaultJudgeTimeout bounds a single judge call.
const DefaultJudgeTimeout = 20 * time.Second

// AnalyzedEvent describes one completed analysis for metrics hooks.
type AnalyzedEvent struct {
	Source     Source
	Label      RiskLabel
	ErrorKind  ErrorKind // empty unless the LLM path failed
	Confidence int       // -1 when no AI analysis was produced
	Duration   float64   // seconds for the whole Analyze call
	JudgeTime  float64   // seconds spent waiting on the judge
}

// EngineHooks are optional callbacks invoked by the engine.
type EngineHooks struct {
	OnAnalyzed func(e *AnalyzedEvent)
}

// Engine reconciles the heuristic baseline with the LLM judgment for a
// single ticket.
type Engine struct {
	scorer    *Scorer
	judge     Judge
	guardrail Guardrail
	timeout   time.Duration
	logger    log.Logger
	hooks     EngineHooks
}

// EngineConfig tunes the engine.
type EngineConfig struct {
	// JudgeTimeout bounds each judge call. Zero uses DefaultJudgeTimeout.
	JudgeTimeout time.Duration
}

// NewEngine creates an engine. judge may be nil, in which case only the
// heuristic baseline is returned. guardrail defaults to
// ConfidenceGuardrail(DefaultMinConfidence).
func NewEngine(scorer *Scorer, judge Judge, guardrail Guardrail, cfg EngineConfig, logger log.Logger, hooks EngineHooks) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	if guardrail == nil {
		guardrail = ConfidenceGuardrail(DefaultMinConfidence)
	}
	if cfg.JudgeTimeout <= 0 {
		cfg.JudgeTimeout = DefaultJudgeTimeout
	}
	return &Engine{
		scorer:    scorer,
		judge:     judge,
		guardrail: guardrail,
		timeout:   cfg.JudgeTimeout,
		logger:    logger,
		hooks:     hooks,
	}
}

// Scorer returns the heuristic scorer used for baselines.
func (e *Engine) Scorer() *Scorer {
	return e.scorer
}

// Analyze returns exactly one result for t and never fails. LLM failures
// of any kind fall back to the baseline with an llm_error debug signal.
func (e *Engine) Analyze(ctx context.Context, t *Ticket) *Result {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "triage.analyze", trace.WithAttributes(
		attribute.String("ticketwatch.ticket.id", t.ID),
		attribute.String("ticketwatch.ticket.channel", t.Channel),
		attribute.Int("ticketwatch.ticket.sla_hours_open", t.SLAHoursOpen),
	))
	defer span.End()

	baseline := e.scorer.Score(t)
	span.SetAttributes(
		attribute.Int("ticketwatch.baseline.score", baseline.RiskScore),
		attribute.String("ticketwatch.baseline.label", baseline.Label.String()),
	)

	ev := &AnalyzedEvent{Confidence: -1}
	res := e.reconcile(ctx, t, baseline, ev)

	span.SetAttributes(
		attribute.String("ticketwatch.result.source", string(res.Source)),
		attribute.String("ticketwatch.result.label", res.Label.String()),
		attribute.Int("ticketwatch.result.score", res.RiskScore),
	)
	if ev.ErrorKind != "" {
		span.SetAttributes(attribute.String("ticketwatch.llm.error", string(ev.ErrorKind)))
	}

	ev.Source = res.Source
	ev.Label = res.Label
	ev.Duration = time.Since(start).Seconds()
	if e.hooks.OnAnalyzed != nil {
		e.hooks.OnAnalyzed(ev)
	}
	return res
}

func (e *Engine) reconcile(ctx context.Context, t *Ticket, baseline *Result, ev *AnalyzedEvent) *Result {
	if e.judge == nil {
		return baseline
	}

	L := e.logger.With("ticket_id", t.ID)

	if err := ctx.Err(); err != nil {
		return e.fallback(ctx, L, baseline, err, ev)
	}

	judgeStart := time.Now()
	ai, err := e.assess(ctx, t)
	ev.JudgeTime = time.Since(judgeStart).Seconds()
	if err != nil {
		return e.fallback(ctx, L, baseline, err, ev)
	}
	ev.Confidence = ai.Confidence

	if e.guardrail.KeepBaseline(baseline, ai) {
		L.Info(ctx, "guardrail kept baseline",
			"baseline_label", baseline.Label.String(),
			"ai_label", ai.Label.String(),
			"ai_confidence", ai.Confidence,
		)
		res := baseline.Clone()
		res.Source = SourceGuardrail
		return res
	}

	signals := make([]string, 0, len(baseline.DebugSignals)+1+len(ai.Signals))
	signals = append(signals, baseline.DebugSignals...)
	signals = append(signals, fmt.Sprintf("llm_confidence:%d", ai.Confidence))
	for _, s := range ai.Signals {
		signals = append(signals, "llm_signal:"+s)
	}

	return &Result{
		ID:              baseline.ID,
		RiskScore:       ai.RiskScore,
		Label:           ai.Label,
		Reason:          ai.Reason,
		SuggestedAction: ai.SuggestedAction,
		DebugSignals:    signals,
		Breakdown:       baseline.Breakdown,
		Language:        baseline.Language,
		Source:          SourceLLM,
	}
}

func (e *Engine) fallback(ctx context.Context, L log.Logger, baseline *Result, err error, ev *AnalyzedEvent) *Result {
	kind := ClassifyError(err)
	ev.ErrorKind = kind
	L.Warn(ctx, "llm judgment failed, using baseline", "kind", string(kind), "err", err.Error())

	res := baseline.Clone()
	res.DebugSignals = append(res.DebugSignals, "llm_error:"+string(kind))
	res.Source = SourceHeuristic
	return res
}

type judgeOutcome struct {
	ai  *AIAnalysis
	err error
}

// assess runs the judge in its own goroutine so a panic or a provider that
// ignores its context cannot take the caller down or hold it past the deadline.
func (e *Engine) assess(ctx context.Context, t *Ticket) (*AIAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "triage.judge", trace.WithAttributes(
		attribute.String("gen_ai.operation.name", "triage.judge"),
		attribute.String("ticketwatch.ticket.id", t.ID),
	))
	defer span.End()

	done := make(chan judgeOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- judgeOutcome{err: fmt.Errorf("%w: %v", ErrJudgePanic, r)}
			}
		}()
		ai, err := e.judge.Assess(ctx, t)
		if err == nil && ai == nil {
			err = fmt.Errorf("%w: judge returned no analysis", ErrTransport)
		}
		done <- judgeOutcome{ai: ai, err: err}
	}()

	var out judgeOutcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out = judgeOutcome{err: ctx.Err()}
	}

	if out.err != nil {
		span.RecordError(out.err)
		span.SetStatus(codes.Error, out.err.Error())
		return nil, out.err
	}
	span.SetAttributes(
		attribute.String("ticketwatch.ai.label", out.ai.Label.String()),
		attribute.Int("ticketwatch.ai.confidence", out.ai.Confidence),
	)
	return out.ai, nil
}
