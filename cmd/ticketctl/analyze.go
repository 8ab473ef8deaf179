package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/spf13/cobra"

	"github.com/linnemanlabs/ticketwatch/internal/cfg"
	"github.com/linnemanlabs/ticketwatch/internal/llm"
	"github.com/linnemanlabs/ticketwatch/internal/policy"
	"github.com/linnemanlabs/ticketwatch/internal/rules"
	"github.com/linnemanlabs/ticketwatch/internal/triage"
)

type analyzeFlags struct {
	in            string
	rulesFile     string
	provider      string
	apiKey        string
	model         string
	baseURL       string
	minConfidence int
	guardrailExpr string
	timeout       time.Duration
	concurrency   int
}

func newAnalyzeCmd() *cobra.Command {
	var f analyzeFlags
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze tickets with the heuristic scorer and the LLM judge",
		Long: "Analyze runs the full triage engine. Provider settings fall back to " +
			"TICKETWATCH_LLM_PROVIDER, TICKETWATCH_<PROVIDER>_API_KEY and TICKETWATCH_<PROVIDER>_MODEL.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildService(&f)
			if err != nil {
				return err
			}
			tickets, err := readTickets(f.in, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return writeResults(cmd.OutOrStdout(), svc.AnalyzeBatch(cmd.Context(), tickets))
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.in, "in", "i", "", "tickets JSON file (default stdin)")
	fl.StringVar(&f.rulesFile, "rules-file", "", "YAML ruleset (default built-in)")
	fl.StringVar(&f.provider, "provider", "", "LLM provider: claude, openai or none")
	fl.StringVar(&f.apiKey, "api-key", "", "provider API key")
	fl.StringVar(&f.model, "model", "", "provider model")
	fl.StringVar(&f.baseURL, "base-url", "", "OpenAI-compatible base URL")
	fl.IntVar(&f.minConfidence, "min-confidence", triage.DefaultMinConfidence, "confidence at which a HIGH escalated baseline is kept")
	fl.StringVar(&f.guardrailExpr, "guardrail-expr", "", "CEL guardrail expression over baseline and ai")
	fl.DurationVar(&f.timeout, "timeout", triage.DefaultJudgeTimeout, "per-ticket judge timeout")
	fl.IntVar(&f.concurrency, "concurrency", triage.DefaultMaxConcurrency, "tickets analyzed concurrently")
	return cmd
}

// providerConfig resolves provider settings from flags, then environment.
func providerConfig(f *analyzeFlags) *cfg.Config {
	c := &cfg.Config{
		LLMProvider:   envOr(f.provider, "LLM_PROVIDER"),
		OpenAIBaseURL: envOr(f.baseURL, "OPENAI_BASE_URL"),
	}
	if c.LLMProvider == "" {
		c.LLMProvider = cfg.ProviderClaude
	}
	switch c.LLMProvider {
	case cfg.ProviderClaude:
		c.ClaudeAPIKey = envOr(f.apiKey, "CLAUDE_API_KEY")
		c.ClaudeModel = envOr(f.model, "CLAUDE_MODEL")
	case cfg.ProviderOpenAI:
		c.OpenAIAPIKey = envOr(f.apiKey, "OPENAI_API_KEY")
		c.OpenAIModel = envOr(f.model, "OPENAI_MODEL")
	}
	return c
}

func buildService(f *analyzeFlags) (*triage.Service, error) {
	rs, err := rules.Load(f.rulesFile)
	if err != nil {
		return nil, err
	}

	logger, err := cliLogger()
	if err != nil {
		return nil, err
	}

	pc := providerConfig(f)
	provider, err := llm.New(pc)
	if err != nil {
		return nil, err
	}
	if provider != nil && pc.ClaudeAPIKey == "" && pc.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("API key is required for provider %s (use --api-key or %s%s_API_KEY)",
			pc.LLMProvider, envPrefix, providerEnvName(pc.LLMProvider))
	}

	var judge triage.Judge
	if provider != nil {
		judge = triage.NewLLMJudge(provider, nil)
	}

	var guardrail triage.Guardrail = triage.ConfidenceGuardrail(f.minConfidence)
	if f.guardrailExpr != "" {
		g, err := policy.Compile(f.guardrailExpr, logger)
		if err != nil {
			return nil, err
		}
		guardrail = g
	}

	engine := triage.NewEngine(triage.NewScorer(rs), judge, guardrail,
		triage.EngineConfig{JudgeTimeout: f.timeout}, logger, triage.EngineHooks{})
	return triage.NewService(engine, triage.ServiceConfig{MaxConcurrency: f.concurrency}, logger), nil
}

// cliLogger discards logs unless TICKETWATCH_CLI_DEBUG is true, in which
// case the default go-core logger writes to stderr.
func cliLogger() (log.Logger, error) {
	if v, _ := strconv.ParseBool(os.Getenv(envPrefix + "CLI_DEBUG")); !v {
		return log.Nop(), nil
	}
	var lc log.Config
	fs := flag.NewFlagSet("log", flag.ContinueOnError)
	lc.RegisterFlags(fs)
	if err := fs.Parse(nil); err != nil {
		return nil, err
	}
	lg, err := log.New(lc.ToOptions("ticketctl"))
	if err != nil {
		return nil, fmt.Errorf("logger init: %w", err)
	}
	return lg, nil
}

func providerEnvName(p string) string {
	if p == cfg.ProviderOpenAI {
		return "OPENAI"
	}
	return "CLAUDE"
}
