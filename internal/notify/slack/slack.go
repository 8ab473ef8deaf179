// Package slack sends risk alerts for triaged tickets to Slack via incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linnemanlabs/ticketwatch/internal/triage"
)

const (
	maxTextLen  = 3000
	httpTimeout = 10 * time.Second
)

// Notifier posts results at or above a minimum label to a Slack webhook.
type Notifier struct {
	webhookURL string
	minLabel   triage.RiskLabel
	client     *http.Client
}

// New creates a new Slack notifier. If webhookURL is empty, Notify is a
// no-op. An invalid minLabel defaults to HIGH.
func New(webhookURL string, minLabel triage.RiskLabel) *Notifier {
	if !minLabel.Valid() {
		minLabel = triage.RiskHigh
	}
	return &Notifier{
		webhookURL: webhookURL,
		minLabel:   minLabel,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// Name identifies the notifier in logs and metrics.
func (n *Notifier) Name() string { return "slack" }

// Notify posts r when its label is at least the configured minimum.
func (n *Notifier) Notify(ctx context.Context, batchID string, r *triage.Result) error {
	if n.webhookURL == "" || r.Label < n.minLabel {
		return nil
	}

	body, err := json.Marshal(buildMessage(batchID, r))
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(batchID string, r *triage.Result) map[string]any {
	return map[string]any{
		"text": fmt.Sprintf("%s risk on ticket %s", r.Label, r.ID),
		"blocks": []map[string]any{
			headerBlock(r),
			{"type": "divider"},
			fieldsBlock(r),
			{"type": "divider"},
			reasonBlock(r),
			{"type": "divider"},
			contextBlock(batchID, r),
		},
	}
}

func headerBlock(r *triage.Result) map[string]any {
	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": fmt.Sprintf("%s %s risk: ticket %s", labelEmoji(r.Label), r.Label, r.ID),
		},
	}
}

func fieldsBlock(r *triage.Result) map[string]any {
	fields := []map[string]any{
		{"type": "mrkdwn", "text": fmt.Sprintf("*Score:* %d", r.RiskScore)},
		{"type": "mrkdwn", "text": fmt.Sprintf("*Source:* %s", r.Source)},
		{"type": "mrkdwn", "text": fmt.Sprintf("*Escalation:* %d", r.Breakdown.Escalation)},
		{"type": "mrkdwn", "text": fmt.Sprintf("*Churn:* %d", r.Breakdown.Churn)},
		{"type": "mrkdwn", "text": fmt.Sprintf("*SLA:* %d", r.Breakdown.SLA)},
		{"type": "mrkdwn", "text": fmt.Sprintf("*Sentiment:* %d", r.Breakdown.Sentiment)},
	}
	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func reasonBlock(r *triage.Result) map[string]any {
	text := fmt.Sprintf("*Reason*\n%s\n\n*Suggested action*\n%s", r.Reason, r.SuggestedAction)
	if len(r.DebugSignals) > 0 {
		text += "\n\n*Signals*\n• " + strings.Join(r.DebugSignals, "\n• ")
	}
	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": truncate(text, maxTextLen),
		},
	}
}

func contextBlock(batchID string, r *triage.Result) map[string]any {
	return map[string]any{
		"type": "context",
		"elements": []map[string]any{
			{
				"type": "mrkdwn",
				"text": fmt.Sprintf("ticketwatch • batch %s • %s • %s", batchID, r.Language, time.Now().UTC().Format("2006-01-02 15:04 UTC")),
			},
		},
	}
}

func labelEmoji(l triage.RiskLabel) string {
	switch l {
	case triage.RiskHigh:
		return "\U0001f534" // red circle
	case triage.RiskMedium:
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
