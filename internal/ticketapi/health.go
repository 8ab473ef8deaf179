package ticketapi

import (
	"context"
	"net/http"
	"time"
)

type healthResponse struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	Service      string `json:"service"`
	Version      string `json:"version"`
	LLMAvailable bool   `json:"llm_available"`
}

// handleHealth always answers 200; a failing LLM only degrades the status.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	available := false
	if a.opts.LLM != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		err := a.opts.LLM.Ping(ctx)
		cancel()
		if err != nil {
			a.logger.Warn(r.Context(), "llm ping failed", "error", err)
		} else {
			available = true
		}
	}

	status := statusHealthy
	if !available {
		status = statusDegrade
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:       status,
		Timestamp:    a.now().UTC().Format(time.RFC3339Nano),
		Service:      serviceName,
		Version:      a.opts.Version,
		LLMAvailable: available,
	})
}
