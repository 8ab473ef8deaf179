package triage

import (
	"context"
	"errors"

	"github.com/linnemanlabs/ticketwatch/internal/llmjson"
)

var (
	// ErrInvalidLabel is returned when the LLM answers with a risk label
	// outside LOW, MEDIUM and HIGH.
	ErrInvalidLabel = errors.New("invalid risk label")

	// ErrTransport wraps any failure reaching the LLM provider.
	ErrTransport = errors.New("llm transport failure")

	// ErrJudgePanic is recorded when the judge panics inside the engine boundary.
	ErrJudgePanic = errors.New("llm judge panicked")
)

// ErrorKind names an LLM failure for the llm_error debug signal, logs and metrics.
type ErrorKind string

const (
	KindTimeout           ErrorKind = "Timeout"
	KindTransportFailure  ErrorKind = "TransportFailure"
	KindMalformedResponse ErrorKind = "MalformedResponse"
	KindInvalidLabel      ErrorKind = "InvalidLabel"
	KindPanic             ErrorKind = "Panic"
)

// ClassifyError maps an error from the judge path to its kind. Context
// expiry wins over transport so a deadline hit inside an HTTP call is
// reported as a timeout. Unknown errors count as transport failures.
func ClassifyError(err error) ErrorKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindTimeout
	case errors.Is(err, ErrJudgePanic):
		return KindPanic
	case errors.Is(err, ErrInvalidLabel):
		return KindInvalidLabel
	case errors.Is(err, llmjson.ErrMalformedResponse):
		return KindMalformedResponse
	default:
		return KindTransportFailure
	}
}
