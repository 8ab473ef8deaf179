// Package llm selects the configured LLM provider.
package llm

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linnemanlabs/ticketwatch/internal/cfg"
	"github.com/linnemanlabs/ticketwatch/internal/llm/claude"
	"github.com/linnemanlabs/ticketwatch/internal/llm/openai"
	"github.com/linnemanlabs/ticketwatch/internal/triage"
)

// Provider is a model backend that can also report its reachability.
type Provider interface {
	triage.Provider
	triage.Pinger
	Model() string
}

var (
	_ Provider = (*claude.Client)(nil)
	_ Provider = (*openai.Client)(nil)
)

// New returns the provider named by c.LLMProvider, or nil for "none".
func New(c *cfg.Config) (Provider, error) {
	switch c.LLMProvider {
	case cfg.ProviderClaude:
		return claude.New(c.ClaudeAPIKey, c.ClaudeModel), nil
	case cfg.ProviderOpenAI:
		hc := &http.Client{
			Timeout:   60 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
		return openai.New(c.OpenAIAPIKey, c.OpenAIModel, c.OpenAIBaseURL, hc), nil
	case cfg.ProviderNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", c.LLMProvider)
	}
}
