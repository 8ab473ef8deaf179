package ticketapi

import (
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/ticketwatch/internal/reply"
)

func (a *API) handleSuggestReply(w http.ResponseWriter, r *http.Request) {
	var req reply.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status := decodeStatus(err)
		if status == http.StatusUnprocessableEntity {
			writeError(w, status, "validation failed", []fieldError{{Field: "risk_label", Rule: "oneof"}})
			return
		}
		writeError(w, status, "invalid payload", nil)
		return
	}
	if err := a.validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation failed", fieldErrors(err))
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("ticketwatch.ticket.id", req.TicketID),
		attribute.String("ticketwatch.risk.label", req.RiskLabel.String()),
	)

	s := a.replies.Suggest(r.Context(), &req)
	span.SetAttributes(attribute.Bool("ticketwatch.reply.fallback", s.Fallback))

	writeJSON(w, http.StatusOK, s)
}
