// Package ticketapi exposes ticket triage and reply suggestions over HTTP.
package ticketapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/ticketwatch/internal/reply"
	"github.com/linnemanlabs/ticketwatch/internal/triage"
)

// DefaultMaxBatchSize bounds the tickets accepted in one analyze request.
const DefaultMaxBatchSize = 100

const (
	serviceName   = "ticketwatch"
	pingTimeout   = 5 * time.Second
	statusHealthy = "healthy"
	statusDegrade = "degraded"
)

// Analyzer triages a batch of tickets. Output order matches input order.
type Analyzer interface {
	AnalyzeBatch(ctx context.Context, tickets []triage.Ticket) []triage.Result
}

// ReplySuggester drafts a reply and never fails.
type ReplySuggester interface {
	Suggest(ctx context.Context, req *reply.Request) *reply.Suggestion
}

// Options configures optional API behavior.
type Options struct {
	// APIToken, when set, requires "Authorization: Bearer <token>" on /api/v1
	// routes other than health.
	APIToken string

	// MaxBatchSize caps len(tickets). Zero uses DefaultMaxBatchSize.
	MaxBatchSize int

	// LLM reports model availability for the health endpoint. Nil reports
	// the LLM as unavailable.
	LLM triage.Pinger

	// Version is echoed by the health endpoint.
	Version string
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger   log.Logger
	analyzer Analyzer
	replies  ReplySuggester
	validate *validator.Validate
	opts     Options
	now      func() time.Time
}

// New creates a new API handler.
func New(logger log.Logger, analyzer Analyzer, replies ReplySuggester, opts Options) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if analyzer == nil {
		panic(xerrors.New("ticket analyzer is required"))
	}
	if replies == nil {
		panic(xerrors.New("reply suggester is required"))
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = DefaultMaxBatchSize
	}
	return &API{
		logger:   logger,
		analyzer: analyzer,
		replies:  replies,
		validate: newValidator(),
		opts:     opts,
		now:      time.Now,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)

		r.Group(func(r chi.Router) {
			if a.opts.APIToken != "" {
				r.Use(BearerToken(a.opts.APIToken))
			}
			r.Post("/tickets/analyze", a.handleAnalyze)
			r.Post("/replies/suggest", a.handleSuggestReply)
		})
	})
}

type errorResponse struct {
	Error  string       `json:"error"`
	Fields []fieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// nothing useful to do with encode errors once headers are written
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, fields []fieldError) {
	writeJSON(w, status, errorResponse{Error: msg, Fields: fields})
}
