package ticketapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/ticketwatch/internal/triage"
)

type analyzeRequest struct {
	Tickets []triage.Ticket `json:"tickets" validate:"required,min=1,dive"`
}

type analyzeResponse struct {
	Results []triage.Result `json:"results"`
}

func (a *API) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload", nil)
		return
	}
	if len(req.Tickets) > a.opts.MaxBatchSize {
		writeError(w, http.StatusUnprocessableEntity, "too many tickets", []fieldError{{Field: "tickets", Rule: "max"}})
		return
	}
	if err := a.validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation failed", fieldErrors(err))
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.Int("ticketwatch.batch.size", len(req.Tickets)))

	results := a.analyzer.AnalyzeBatch(r.Context(), req.Tickets)

	high := 0
	for i := range results {
		if results[i].Label == triage.RiskHigh {
			high++
		}
	}
	span.SetAttributes(attribute.Int("ticketwatch.batch.high", high))

	writeJSON(w, http.StatusOK, analyzeResponse{Results: results})
}

// decodeStatus maps a body decode error to a status. Unknown risk labels
// are a validation problem, not malformed JSON.
func decodeStatus(err error) int {
	if errors.Is(err, triage.ErrInvalidLabel) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}
