// internal/triage/llm.go
package triage

import "context"

// Provider is the interface for any LLM backend. Implementations return the
// model's text unchanged and own no interpretation of it.
type Provider interface {
	Complete(ctx context.Context, req *LLMRequest) (*LLMResponse, error)
}

// Pinger is implemented by providers that can cheaply check reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LLMRequest is a single system plus user prompt exchange.
type LLMRequest struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// LLMResponse carries the raw model text and token usage.
type LLMResponse struct {
	Text  string
	Model string
	Usage Usage
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
