// Package reply drafts customer-facing reply suggestions with an LLM and
// degrades to a safe canned reply whenever the model path fails.
package reply

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/ticketwatch/internal/llmjson"
	"github.com/linnemanlabs/ticketwatch/internal/prompts"
	"github.com/linnemanlabs/ticketwatch/internal/triage"
)

// FallbackText is returned when no usable reply could be drafted.
const FallbackText = "Thank you for reaching out. We will get back to you shortly."

const (
	defaultTone      = "professional"
	defaultTimeout   = 30 * time.Second
	replyMaxTokens   = 1024
	replyTemperature = 0.2
)

// Request describes the ticket a reply is drafted for.
type Request struct {
	TicketID            string           `json:"ticket_id" validate:"required,max=255"`
	Customer            string           `json:"customer" validate:"max=255"`
	Channel             string           `json:"channel" validate:"max=255"`
	LastMessage         string           `json:"last_message" validate:"required,max=255"`
	ConversationSummary string           `json:"conversation_summary" validate:"max=255"`
	RiskLabel           triage.RiskLabel `json:"risk_label" validate:"required"`
	CompanyTone         string           `json:"company_tone,omitempty" validate:"omitempty,max=64"`
	Language            string           `json:"language,omitempty" validate:"omitempty,max=35"`
}

// Suggestion is a drafted reply. Confidence 0 with Fallback set means the
// canned reply was used.
type Suggestion struct {
	TicketID       string   `json:"ticket_id"`
	SuggestedReply string   `json:"suggested_reply"`
	Confidence     int      `json:"confidence"`
	Language       string   `json:"language"`
	Subject        string   `json:"subject"`
	NextSteps      []string `json:"next_steps"`
	DoNotSay       []string `json:"do_not_say"`
	Fallback       bool     `json:"fallback"`
}

// Options tunes a Drafter.
type Options struct {
	// Timeout bounds a single draft call. Zero uses 30s.
	Timeout time.Duration

	// OnLLMCall is invoked after each successful provider call.
	OnLLMCall func(*triage.LLMResponse)

	// OnOutcome is invoked with "llm" or "fallback" after each Suggest.
	OnOutcome func(result string)
}

// Drafter produces reply suggestions.
type Drafter struct {
	provider triage.Provider
	system   string
	user     string
	opts     Options
	logger   log.Logger
}

// NewDrafter returns a Drafter. A nil provider makes every Suggest fall back.
func NewDrafter(provider triage.Provider, logger log.Logger, opts Options) *Drafter {
	if logger == nil {
		logger = log.Nop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Drafter{
		provider: provider,
		system:   prompts.MustGet(prompts.Reply, "system"),
		user:     prompts.MustGet(prompts.Reply, "user"),
		opts:     opts,
		logger:   logger,
	}
}

type replyWire struct {
	ReplyText  *string  `json:"reply_text"`
	Subject    string   `json:"subject"`
	NextSteps  []string `json:"next_steps"`
	DoNotSay   []string `json:"do_not_say"`
	Confidence *float64 `json:"confidence"`
}

// ErrNoProvider is returned by Draft when no LLM provider is configured.
var ErrNoProvider = fmt.Errorf("%w: no llm provider configured", triage.ErrTransport)

// Draft calls the model and parses its reply. Errors are classified with
// triage.ClassifyError.
func (d *Drafter) Draft(ctx context.Context, req *Request) (*Suggestion, error) {
	if d.provider == nil {
		return nil, ErrNoProvider
	}

	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	lang := triage.NormalizeLanguage(req.Language)
	resp, err := d.provider.Complete(ctx, &triage.LLMRequest{
		System:      d.system,
		User:        d.buildUserPrompt(req, lang),
		MaxTokens:   replyMaxTokens,
		Temperature: replyTemperature,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ctx.Err(), err)
		}
		return nil, fmt.Errorf("%w: %w", triage.ErrTransport, err)
	}
	if d.opts.OnLLMCall != nil {
		d.opts.OnLLMCall(resp)
	}

	var w replyWire
	if err := llmjson.Decode(resp.Text, &w); err != nil {
		return nil, err
	}

	s := &Suggestion{
		TicketID:       req.TicketID,
		SuggestedReply: FallbackText,
		Language:       lang,
		Subject:        w.Subject,
		NextSteps:      nonNil(w.NextSteps),
		DoNotSay:       nonNil(w.DoNotSay),
	}
	if w.ReplyText != nil && strings.TrimSpace(*w.ReplyText) != "" {
		s.SuggestedReply = *w.ReplyText
	}
	if w.Confidence != nil {
		s.Confidence = llmjson.ClampInt(*w.Confidence, 0, 100)
	}
	return s, nil
}

// Suggest is Draft with the safe fallback applied on any failure. It never
// returns nil.
func (d *Drafter) Suggest(ctx context.Context, req *Request) *Suggestion {
	s, err := d.Draft(ctx, req)
	if err == nil {
		d.outcome("llm")
		return s
	}

	d.logger.Warn(ctx, "reply draft failed, using fallback",
		"ticket_id", req.TicketID,
		"kind", string(triage.ClassifyError(err)),
		"err", err.Error(),
	)
	d.outcome("fallback")
	return Fallback(req)
}

// Fallback returns the canned reply for req.
func Fallback(req *Request) *Suggestion {
	return &Suggestion{
		TicketID:       req.TicketID,
		SuggestedReply: FallbackText,
		Confidence:     0,
		Language:       triage.NormalizeLanguage(req.Language),
		NextSteps:      []string{},
		DoNotSay:       []string{},
		Fallback:       true,
	}
}

func (d *Drafter) outcome(result string) {
	if d.opts.OnOutcome != nil {
		d.opts.OnOutcome(result)
	}
}

// buildUserPrompt quotes caller-supplied text so it stays in its value position.
func (d *Drafter) buildUserPrompt(req *Request, lang string) string {
	tone := req.CompanyTone
	if tone == "" {
		tone = defaultTone
	}
	return prompts.Format(d.user, map[string]string{
		"TicketID":            strconv.Quote(req.TicketID),
		"Customer":            strconv.Quote(req.Customer),
		"Channel":             strconv.Quote(req.Channel),
		"LastMessage":         strconv.Quote(req.LastMessage),
		"ConversationSummary": strconv.Quote(req.ConversationSummary),
		"RiskLabel":           req.RiskLabel.String(),
		"CompanyTone":         strconv.Quote(tone),
		"Language":            lang,
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
