package cfg

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/linnemanlabs/ticketwatch/internal/triage"
)

// LLM provider names accepted by -llm-provider.
const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// Config holds the application-level settings for the ticketwatch server.
// Shared concerns (logging, tracing, http, ops) register their own flags.
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	APIToken              string

	LLMProvider       string
	ClaudeAPIKey      string
	ClaudeModel       string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	LLMTimeoutSeconds int

	BatchTimeoutSeconds int
	MaxConcurrency      int
	MaxBatchSize        int
	MinConfidence       int
	GuardrailExpr       string

	RulesFile   string
	RulesName   string
	DatabaseURL string

	SlackWebhookURL string
	SlackMinLabel   string
	KafkaBrokers    string
	KafkaTopic      string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token required on /api/v1 routes (empty = no auth)")

	fs.StringVar(&c.LLMProvider, "llm-provider", ProviderClaude, "LLM judge provider: claude, openai or none (heuristic only)")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude provider")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model to use")
	fs.StringVar(&c.OpenAIAPIKey, "openai-api-key", "", "API key for the OpenAI provider")
	fs.StringVar(&c.OpenAIModel, "openai-model", "gpt-4o-mini", "OpenAI model to use")
	fs.StringVar(&c.OpenAIBaseURL, "openai-base-url", "https://api.openai.com/v1", "OpenAI-compatible API base URL")
	fs.IntVar(&c.LLMTimeoutSeconds, "llm-timeout-seconds", 20, "per-ticket LLM judge timeout (1..300)")

	fs.IntVar(&c.BatchTimeoutSeconds, "batch-timeout-seconds", 60, "overall budget for one analyze batch (1..600)")
	fs.IntVar(&c.MaxConcurrency, "max-concurrency", triage.DefaultMaxConcurrency, "tickets analyzed concurrently per batch (1..256)")
	fs.IntVar(&c.MaxBatchSize, "max-batch-size", 100, "maximum tickets per analyze request (1..10000)")
	fs.IntVar(&c.MinConfidence, "min-confidence", triage.DefaultMinConfidence, "LLM confidence at which a HIGH escalated baseline is kept (0..100)")
	fs.StringVar(&c.GuardrailExpr, "guardrail-expr", "", "CEL expression over baseline and ai deciding when to keep the baseline (empty = confidence guardrail)")

	fs.StringVar(&c.RulesFile, "rules-file", "", "YAML ruleset overriding the built-in keywords and thresholds")
	fs.StringVar(&c.RulesName, "rules-name", "default", "ruleset name to load from the database")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL for stored rulesets (empty = built-in or file)")

	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for risk notifications")
	fs.StringVar(&c.SlackMinLabel, "slack-min-label", "HIGH", "lowest risk label posted to Slack (LOW, MEDIUM, HIGH)")
	fs.StringVar(&c.KafkaBrokers, "kafka-brokers", "", "comma-separated Kafka brokers for result events (empty = disabled)")
	fs.StringVar(&c.KafkaTopic, "kafka-topic", "ticketwatch.results", "Kafka topic for result events")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	switch c.LLMProvider {
	case ProviderClaude:
		if c.ClaudeAPIKey == "" {
			errs = append(errs, errors.New("CLAUDE_API_KEY is required when LLM_PROVIDER is claude"))
		}
		if c.ClaudeModel == "" {
			errs = append(errs, errors.New("CLAUDE_MODEL is required when LLM_PROVIDER is claude"))
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required when LLM_PROVIDER is openai"))
		}
		if c.OpenAIModel == "" {
			errs = append(errs, errors.New("OPENAI_MODEL is required when LLM_PROVIDER is openai"))
		}
		if c.OpenAIBaseURL == "" {
			errs = append(errs, errors.New("OPENAI_BASE_URL is required when LLM_PROVIDER is openai"))
		}
	case ProviderNone:
	default:
		errs = append(errs, fmt.Errorf("invalid LLM_PROVIDER %q (must be claude, openai or none)", c.LLMProvider))
	}

	if c.LLMTimeoutSeconds <= 0 || c.LLMTimeoutSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid LLM_TIMEOUT_SECONDS %d (must be 1..300)", c.LLMTimeoutSeconds))
	}
	if c.BatchTimeoutSeconds <= 0 || c.BatchTimeoutSeconds > 600 {
		errs = append(errs, fmt.Errorf("invalid BATCH_TIMEOUT_SECONDS %d (must be 1..600)", c.BatchTimeoutSeconds))
	}
	if c.MaxConcurrency <= 0 || c.MaxConcurrency > 256 {
		errs = append(errs, fmt.Errorf("invalid MAX_CONCURRENCY %d (must be 1..256)", c.MaxConcurrency))
	}
	if c.MaxBatchSize <= 0 || c.MaxBatchSize > 10000 {
		errs = append(errs, fmt.Errorf("invalid MAX_BATCH_SIZE %d (must be 1..10000)", c.MaxBatchSize))
	}
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		errs = append(errs, fmt.Errorf("invalid MIN_CONFIDENCE %d (must be 0..100)", c.MinConfidence))
	}

	// rules come from exactly one place
	if c.RulesFile != "" && c.DatabaseURL != "" {
		errs = append(errs, errors.New("RULES_FILE and DATABASE_URL are mutually exclusive"))
	}
	if c.DatabaseURL != "" && c.RulesName == "" {
		errs = append(errs, errors.New("RULES_NAME is required when DATABASE_URL is set"))
	}

	if _, err := triage.ParseRiskLabel(c.SlackMinLabel); err != nil {
		errs = append(errs, fmt.Errorf("invalid SLACK_MIN_LABEL %q (must be LOW, MEDIUM or HIGH)", c.SlackMinLabel))
	}
	if len(c.Brokers()) > 0 && c.KafkaTopic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Brokers splits KafkaBrokers on commas, dropping empty entries.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// SlackLabel returns the parsed Slack threshold, HIGH when unparseable.
func (c *Config) SlackLabel() triage.RiskLabel {
	l, err := triage.ParseRiskLabel(c.SlackMinLabel)
	if err != nil {
		return triage.RiskHigh
	}
	return l
}
