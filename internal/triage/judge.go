package triage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/linnemanlabs/ticketwatch/internal/prompts"
)

const (
	// JudgeTemperature keeps risk judgments close to deterministic.
	JudgeTemperature = 0.2

	// JudgeMaxTokens bounds the judgment response.
	JudgeMaxTokens = 1024
)

// Judge produces an independent LLM assessment of a ticket.
type Judge interface {
	Assess(ctx context.Context, t *Ticket) (*AIAnalysis, error)
}

// JudgeFunc adapts a function to the Judge interface.
type JudgeFunc func(ctx context.Context, t *Ticket) (*AIAnalysis, error)

// Assess calls f.
func (f JudgeFunc) Assess(ctx context.Context, t *Ticket) (*AIAnalysis, error) {
	return f(ctx, t)
}

// LLMJudge asks a Provider for a structured risk judgment.
type LLMJudge struct {
	provider Provider
	system   string
	user     string
	onCall   func(resp *LLMResponse)
}

// NewLLMJudge returns a Judge backed by provider. onCall, when non-nil, is
// invoked after every successful provider call (metrics hook).
func NewLLMJudge(provider Provider, onCall func(resp *LLMResponse)) *LLMJudge {
	return &LLMJudge{
		provider: provider,
		system:   prompts.MustGet(prompts.Triage, "system"),
		user:     prompts.MustGet(prompts.Triage, "user"),
		onCall:   onCall,
	}
}

// Assess builds the prompt, calls the provider and parses its answer.
// Transport errors wrap ErrTransport. Parse errors come from ParseAnalysis.
func (j *LLMJudge) Assess(ctx context.Context, t *Ticket) (*AIAnalysis, error) {
	resp, err := j.provider.Complete(ctx, &LLMRequest{
		System:      j.system,
		User:        j.buildUserPrompt(t),
		MaxTokens:   JudgeMaxTokens,
		Temperature: JudgeTemperature,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ctx.Err(), err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if j.onCall != nil {
		j.onCall(resp)
	}
	return ParseAnalysis(resp.Text)
}

// buildUserPrompt quotes free-text fields so ticket content cannot break
// out of its value position in the prompt.
func (j *LLMJudge) buildUserPrompt(t *Ticket) string {
	return prompts.Format(j.user, map[string]string{
		"LastMessage":         strconv.Quote(t.LastMessage),
		"ConversationSummary": strconv.Quote(t.ConversationSummary),
		"SLAHoursOpen":        strconv.Itoa(t.SLAHoursOpen),
		"Channel":             strconv.Quote(t.Channel),
		"Language":            strconv.Quote(NormalizeLanguage(t.Language)),
	})
}
