package triage

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/linnemanlabs/go-core/log"
)

const (
	// DefaultMaxConcurrency bounds in-flight judge calls per batch.
	DefaultMaxConcurrency = 8

	// DefaultBatchTimeout bounds a whole batch.
	DefaultBatchTimeout = 60 * time.Second
)

// Notifier receives each final result after a batch completes. Delivery is
// best-effort and never changes the result.
type Notifier interface {
	Notify(ctx context.Context, batchID string, r *Result) error
}

// BatchEvent describes one completed batch for metrics hooks.
type BatchEvent struct {
	Size     int
	Duration float64
}

// ServiceConfig tunes batch processing.
type ServiceConfig struct {
	MaxConcurrency int
	BatchTimeout   time.Duration
}

// Service is the business boundary for triage operations.
type Service struct {
	engine    *Engine
	notifiers []Notifier
	cfg       ServiceConfig
	logger    log.Logger
	onBatch   func(*BatchEvent)
	onNotify  func(notifier string, err error)
}

// ServiceOption configures optional Service behaviour.
type ServiceOption func(*Service)

// WithNotifiers registers result notifiers.
func WithNotifiers(n ...Notifier) ServiceOption {
	return func(s *Service) { s.notifiers = append(s.notifiers, n...) }
}

// WithBatchHook registers a callback invoked after every batch.
func WithBatchHook(fn func(*BatchEvent)) ServiceOption {
	return func(s *Service) { s.onBatch = fn }
}

// WithNotifyHook registers a callback invoked after every notifier delivery.
func WithNotifyHook(fn func(notifier string, err error)) ServiceOption {
	return func(s *Service) { s.onNotify = fn }
}

// NewService creates a new triage service.
func NewService(engine *Engine, cfg ServiceConfig, logger log.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = DefaultBatchTimeout
	}
	s := &Service{
		engine: engine,
		cfg:    cfg,
		logger: logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Engine returns the single-ticket engine.
func (s *Service) Engine() *Engine {
	return s.engine
}

// AnalyzeBatch analyzes tickets concurrently. The returned slice has the
// same length and order as tickets. Each goroutine writes only its own slot.
func (s *Service) AnalyzeBatch(ctx context.Context, tickets []Ticket) []Result {
	start := time.Now()
	batchID := ulid.Make().String()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.BatchTimeout)
	defer cancel()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "triage.batch", trace.WithAttributes(
		attribute.String("ticketwatch.batch.id", batchID),
		attribute.Int("ticketwatch.batch.size", len(tickets)),
	))
	defer span.End()

	L := s.logger.With("batch_id", batchID)

	results := make([]Result, len(tickets))

	// Engine.Analyze never fails, so the group never cancels siblings.
	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrency)
	for i := range tickets {
		g.Go(func() error {
			results[i] = *s.engine.Analyze(ctx, &tickets[i])
			return nil
		})
	}
	_ = g.Wait()

	counts := make(map[Source]int, 3)
	for i := range results {
		counts[results[i].Source]++
	}
	dur := time.Since(start).Seconds()
	L.Info(ctx, "batch analyzed",
		"tickets", len(tickets),
		"llm", counts[SourceLLM],
		"guardrail", counts[SourceGuardrail],
		"heuristic", counts[SourceHeuristic],
		"duration", dur,
	)
	if s.onBatch != nil {
		s.onBatch(&BatchEvent{Size: len(tickets), Duration: dur})
	}

	if len(s.notifiers) > 0 && len(results) > 0 {
		snapshot := make([]Result, len(results))
		for i := range results {
			snapshot[i] = *results[i].Clone()
		}
		go s.dispatch(context.WithoutCancel(ctx), L, batchID, snapshot)
	}

	return results
}

func (s *Service) dispatch(ctx context.Context, L log.Logger, batchID string, results []Result) {
	for _, n := range s.notifiers {
		name := notifierName(n)
		for i := range results {
			err := n.Notify(ctx, batchID, &results[i])
			if s.onNotify != nil {
				s.onNotify(name, err)
			}
			if err != nil {
				L.Error(ctx, err, "notify failed", "notifier", name, "ticket_id", results[i].ID)
			}
		}
	}
}

type named interface {
	Name() string
}

func notifierName(n Notifier) string {
	if nn, ok := n.(named); ok {
		return nn.Name()
	}
	return "unknown"
}
