package cfg

import (
	"flag"
	"math"
	"strings"
	"testing"

	"github.com/linnemanlabs/ticketwatch/internal/triage"
)

// validBase returns a Config with all required fields set to valid values.
func validBase() Config {
	var c Config
	fs := flag.NewFlagSet("base", flag.ContinueOnError)
	c.RegisterFlags(fs)
	_ = fs.Parse(nil)
	c.ClaudeAPIKey = "sk-test-key"
	return c
}

func TestRegisterFlags_Defaults(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse empty args: %v", err)
	}

	if c.DrainSeconds != 60 {
		t.Errorf("DrainSeconds = %d, want 60", c.DrainSeconds)
	}
	if c.ShutdownBudgetSeconds != 90 {
		t.Errorf("ShutdownBudgetSeconds = %d, want 90", c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", c.APIPort)
	}
	if c.LLMProvider != ProviderClaude {
		t.Errorf("LLMProvider = %q, want %q", c.LLMProvider, ProviderClaude)
	}
	if c.ClaudeModel != "claude-sonnet-4-20250514" {
		t.Errorf("ClaudeModel = %q, want %q", c.ClaudeModel, "claude-sonnet-4-20250514")
	}
	if c.MinConfidence != 55 {
		t.Errorf("MinConfidence = %d, want 55", c.MinConfidence)
	}
	if c.MaxConcurrency != 8 {
		t.Errorf("MaxConcurrency = %d, want 8", c.MaxConcurrency)
	}
	if c.SlackMinLabel != "HIGH" {
		t.Errorf("SlackMinLabel = %q, want HIGH", c.SlackMinLabel)
	}
}

func TestRegisterFlags_Override(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	args := []string{
		"-drain-seconds", "30",
		"-shutdown-budget-seconds", "120",
		"-http-port", "9090",
		"-llm-provider", "openai",
		"-openai-api-key", "sk-override",
		"-openai-model", "gpt-4o",
		"-min-confidence", "70",
		"-kafka-brokers", "k1:9092, k2:9092,",
		"-slack-min-label", "medium",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse args: %v", err)
	}

	if c.DrainSeconds != 30 {
		t.Errorf("DrainSeconds = %d, want 30", c.DrainSeconds)
	}
	if c.ShutdownBudgetSeconds != 120 {
		t.Errorf("ShutdownBudgetSeconds = %d, want 120", c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", c.APIPort)
	}
	if c.LLMProvider != ProviderOpenAI || c.OpenAIAPIKey != "sk-override" || c.OpenAIModel != "gpt-4o" {
		t.Errorf("openai settings = %q/%q/%q", c.LLMProvider, c.OpenAIAPIKey, c.OpenAIModel)
	}
	if c.MinConfidence != 70 {
		t.Errorf("MinConfidence = %d, want 70", c.MinConfidence)
	}
	if got := c.Brokers(); len(got) != 2 || got[0] != "k1:9092" || got[1] != "k2:9092" {
		t.Errorf("Brokers() = %v", got)
	}
	if c.SlackLabel() != triage.RiskMedium {
		t.Errorf("SlackLabel() = %s, want MEDIUM", c.SlackLabel())
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	with := func(mut func(*Config)) Config {
		c := validBase()
		mut(&c)
		return c
	}

	tests := []struct {
		name      string
		cfg       Config
		wantErr   bool
		errSubstr []string // substrings that must appear in error message
	}{
		{
			name:    "defaults are valid",
			cfg:     validBase(),
			wantErr: false,
		},
		{
			name:    "heuristic only needs no keys",
			cfg:     with(func(c *Config) { c.LLMProvider = ProviderNone; c.ClaudeAPIKey = "" }),
			wantErr: false,
		},
		// DrainSeconds boundaries
		{
			name:      "drain zero",
			cfg:       with(func(c *Config) { c.DrainSeconds = 0 }),
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS"},
		},
		{
			name:      "drain above max",
			cfg:       with(func(c *Config) { c.DrainSeconds = 301; c.ShutdownBudgetSeconds = 302 }),
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS"},
		},
		{
			name:    "drain at lower bound",
			cfg:     with(func(c *Config) { c.DrainSeconds = 1 }),
			wantErr: false,
		},
		// Cross-field: budget vs drain
		{
			name:      "budget equals drain",
			cfg:       with(func(c *Config) { c.ShutdownBudgetSeconds = 60 }),
			wantErr:   true,
			errSubstr: []string{"must be greater than"},
		},
		{
			name:    "budget is drain plus one",
			cfg:     with(func(c *Config) { c.ShutdownBudgetSeconds = 61 }),
			wantErr: false,
		},
		// APIPort boundaries
		{
			name:      "port zero",
			cfg:       with(func(c *Config) { c.APIPort = 0 }),
			wantErr:   true,
			errSubstr: []string{"HTTP_PORT"},
		},
		{
			name:      "port above max",
			cfg:       with(func(c *Config) { c.APIPort = 65536 }),
			wantErr:   true,
			errSubstr: []string{"HTTP_PORT"},
		},
		// Provider selection
		{
			name:      "unknown provider",
			cfg:       with(func(c *Config) { c.LLMProvider = "gemini" }),
			wantErr:   true,
			errSubstr: []string{"LLM_PROVIDER"},
		},
		{
			name:      "empty claude api key",
			cfg:       with(func(c *Config) { c.ClaudeAPIKey = "" }),
			wantErr:   true,
			errSubstr: []string{"CLAUDE_API_KEY"},
		},
		{
			name:      "empty claude model",
			cfg:       with(func(c *Config) { c.ClaudeModel = "" }),
			wantErr:   true,
			errSubstr: []string{"CLAUDE_MODEL"},
		},
		{
			name:      "openai without key",
			cfg:       with(func(c *Config) { c.LLMProvider = ProviderOpenAI }),
			wantErr:   true,
			errSubstr: []string{"OPENAI_API_KEY"},
		},
		// Triage tuning
		{
			name:      "confidence above 100",
			cfg:       with(func(c *Config) { c.MinConfidence = 101 }),
			wantErr:   true,
			errSubstr: []string{"MIN_CONFIDENCE"},
		},
		{
			name:      "zero concurrency",
			cfg:       with(func(c *Config) { c.MaxConcurrency = 0 }),
			wantErr:   true,
			errSubstr: []string{"MAX_CONCURRENCY"},
		},
		{
			name:      "zero batch size",
			cfg:       with(func(c *Config) { c.MaxBatchSize = 0 }),
			wantErr:   true,
			errSubstr: []string{"MAX_BATCH_SIZE"},
		},
		{
			name:      "zero llm timeout",
			cfg:       with(func(c *Config) { c.LLMTimeoutSeconds = 0 }),
			wantErr:   true,
			errSubstr: []string{"LLM_TIMEOUT_SECONDS"},
		},
		{
			name:      "zero batch timeout",
			cfg:       with(func(c *Config) { c.BatchTimeoutSeconds = 0 }),
			wantErr:   true,
			errSubstr: []string{"BATCH_TIMEOUT_SECONDS"},
		},
		// Rules source
		{
			name:      "rules file and database",
			cfg:       with(func(c *Config) { c.RulesFile = "rules.yaml"; c.DatabaseURL = "postgres://x" }),
			wantErr:   true,
			errSubstr: []string{"mutually exclusive"},
		},
		{
			name:      "database without rules name",
			cfg:       with(func(c *Config) { c.DatabaseURL = "postgres://x"; c.RulesName = "" }),
			wantErr:   true,
			errSubstr: []string{"RULES_NAME"},
		},
		// Notifiers
		{
			name:      "bad slack label",
			cfg:       with(func(c *Config) { c.SlackMinLabel = "urgent" }),
			wantErr:   true,
			errSubstr: []string{"SLACK_MIN_LABEL"},
		},
		{
			name:      "kafka without topic",
			cfg:       with(func(c *Config) { c.KafkaBrokers = "k:9092"; c.KafkaTopic = "" }),
			wantErr:   true,
			errSubstr: []string{"KAFKA_TOPIC"},
		},
		// Error accumulation
		{
			name:      "all numeric fields invalid",
			cfg:       Config{LLMProvider: ProviderNone, SlackMinLabel: "HIGH"},
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS", "SHUTDOWN_BUDGET_SECONDS", "HTTP_PORT", "LLM_TIMEOUT_SECONDS", "MAX_CONCURRENCY", "MAX_BATCH_SIZE"},
		},
		// Extreme values
		{
			name: "extreme negative values",
			cfg: with(func(c *Config) {
				c.DrainSeconds, c.ShutdownBudgetSeconds, c.APIPort = math.MinInt32, math.MinInt32, math.MinInt32
			}),
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS", "SHUTDOWN_BUDGET_SECONDS", "HTTP_PORT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				errMsg := err.Error()
				for _, sub := range tt.errSubstr {
					if !strings.Contains(errMsg, sub) {
						t.Errorf("error %q does not contain %q", errMsg, sub)
					}
				}
			}
		})
	}
}

func TestSlackLabel_FallsBackToHigh(t *testing.T) {
	t.Parallel()

	c := Config{SlackMinLabel: "nope"}
	if c.SlackLabel() != triage.RiskHigh {
		t.Errorf("SlackLabel() = %s, want HIGH", c.SlackLabel())
	}
}

func FuzzValidate(f *testing.F) {
	// Seeds: defaults, boundaries, extremes
	seeds := []struct {
		drain, budget, port int
		provider, key       string
	}{
		{60, 90, 8080, "claude", "sk-test"},
		{1, 2, 1, "none", ""},
		{299, 300, 65535, "claude", "k"},
		{0, 0, 0, "", ""},
		{-1, -1, -1, "claude", ""},
		{300, 300, 65535, "none", ""},
		{301, 302, 65536, "gemini", "k"},
		{150, 100, 8080, "claude", "k"},
		{math.MinInt32, math.MinInt32, math.MinInt32, "", ""},
		{math.MaxInt32, math.MaxInt32, math.MaxInt32, "", ""},
	}
	for _, s := range seeds {
		f.Add(s.drain, s.budget, s.port, s.provider, s.key)
	}

	f.Fuzz(func(t *testing.T, drain, budget, port int, provider, key string) {
		c := validBase()
		c.DrainSeconds = drain
		c.ShutdownBudgetSeconds = budget
		c.APIPort = port
		c.LLMProvider = provider
		c.ClaudeAPIKey = key
		err := c.Validate()

		drainOK := drain >= 1 && drain <= 300
		budgetOK := budget >= 1 && budget <= 300
		portOK := port >= 1 && port <= 65535
		crossOK := budget > drain
		providerOK := provider == ProviderNone || (provider == ProviderClaude && key != "")

		allValid := drainOK && budgetOK && portOK && crossOK && providerOK

		if allValid && err != nil {
			t.Errorf("expected no error for valid config %+v, got: %v", c, err)
		}
		if !allValid && err == nil {
			t.Errorf("expected error for invalid config %+v, got nil", c)
		}
	})
}
