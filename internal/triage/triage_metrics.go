package triage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the triage subsystem.
type Metrics struct {
	AnalysesTotal      *prometheus.CounterVec
	AnalysisDuration   prometheus.Histogram
	JudgeDuration      prometheus.Histogram
	LLMErrorsTotal     *prometheus.CounterVec
	LLMConfidence      prometheus.Histogram
	GuardrailOverrides prometheus.Counter
	LLMCallsTotal      *prometheus.CounterVec
	LLMTokensIn        prometheus.Counter
	LLMTokensOut       prometheus.Counter
	BatchSize          prometheus.Histogram
	BatchDuration      prometheus.Histogram
	NotifyTotal        *prometheus.CounterVec
	RepliesTotal       *prometheus.CounterVec
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketwatch_analyses_total",
			Help: "Total ticket analyses by result source and label.",
		}, []string{"source", "label"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ticketwatch_analysis_duration_seconds",
			Help:    "Duration of single ticket analyses in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms .. ~262s
		}),
		JudgeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ticketwatch_judge_duration_seconds",
			Help:    "Time spent waiting on the LLM judge per ticket in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 9), // 0.25s .. 64s
		}),
		LLMErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketwatch_llm_errors_total",
			Help: "LLM judgment failures by kind.",
		}, []string{"kind"}),
		LLMConfidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ticketwatch_llm_confidence",
			Help:    "Confidence reported by successful LLM judgments.",
			Buckets: prometheus.LinearBuckets(0, 10, 11), // 0 .. 100
		}),
		GuardrailOverrides: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ticketwatch_guardrail_overrides_total",
			Help: "Analyses where the guardrail kept the heuristic baseline.",
		}),
		LLMCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketwatch_llm_calls_total",
			Help: "Successful LLM provider calls by purpose and model.",
		}, []string{"purpose", "model"}),
		LLMTokensIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ticketwatch_llm_tokens_input_total",
			Help: "Total LLM input tokens consumed.",
		}),
		LLMTokensOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ticketwatch_llm_tokens_output_total",
			Help: "Total LLM output tokens consumed.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ticketwatch_batch_size",
			Help:    "Tickets per analyze batch.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 9), // 1 .. 256
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ticketwatch_batch_duration_seconds",
			Help:    "Duration of analyze batches in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 3, 10), // 10ms .. ~197s
		}),
		NotifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketwatch_notify_total",
			Help: "Result notifications by notifier and outcome.",
		}, []string{"notifier", "result"}),
		RepliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketwatch_replies_total",
			Help: "Reply suggestions by outcome.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.JudgeDuration,
		m.LLMErrorsTotal,
		m.LLMConfidence,
		m.GuardrailOverrides,
		m.LLMCallsTotal,
		m.LLMTokensIn,
		m.LLMTokensOut,
		m.BatchSize,
		m.BatchDuration,
		m.NotifyTotal,
		m.RepliesTotal,
	)

	return m
}

// Hooks returns an EngineHooks that updates the analysis metrics.
func (m *Metrics) Hooks() EngineHooks {
	return EngineHooks{
		OnAnalyzed: func(e *AnalyzedEvent) {
			m.AnalysesTotal.WithLabelValues(string(e.Source), e.Label.String()).Inc()
			m.AnalysisDuration.Observe(e.Duration)
			if e.JudgeTime > 0 {
				m.JudgeDuration.Observe(e.JudgeTime)
			}
			if e.ErrorKind != "" {
				m.LLMErrorsTotal.WithLabelValues(string(e.ErrorKind)).Inc()
			}
			if e.Confidence >= 0 {
				m.LLMConfidence.Observe(float64(e.Confidence))
			}
			if e.Source == SourceGuardrail {
				m.GuardrailOverrides.Inc()
			}
		},
	}
}

// LLMCallHook returns a callback recording token usage for purpose.
func (m *Metrics) LLMCallHook(purpose string) func(*LLMResponse) {
	return func(resp *LLMResponse) {
		m.LLMCallsTotal.WithLabelValues(purpose, resp.Model).Inc()
		m.LLMTokensIn.Add(float64(resp.Usage.InputTokens))
		m.LLMTokensOut.Add(float64(resp.Usage.OutputTokens))
	}
}

// BatchHook returns a callback recording batch size and duration.
func (m *Metrics) BatchHook() func(*BatchEvent) {
	return func(e *BatchEvent) {
		m.BatchSize.Observe(float64(e.Size))
		m.BatchDuration.Observe(e.Duration)
	}
}

// NotifyHook returns a callback counting notifier outcomes.
func (m *Metrics) NotifyHook() func(string, error) {
	return func(notifier string, err error) {
		result := "success"
		if err != nil {
			result = "error"
		}
		m.NotifyTotal.WithLabelValues(notifier, result).Inc()
	}
}

// ReplyHook returns a callback counting reply outcomes (llm or fallback).
func (m *Metrics) ReplyHook() func(string) {
	return func(result string) {
		m.RepliesTotal.WithLabelValues(result).Inc()
	}
}
