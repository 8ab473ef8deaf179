// Ticketctl scores and analyzes support tickets from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const envPrefix = "TICKETWATCH_"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ticketctl",
		Short:         "Ticketwatch command line tools",
		Long:          "Ticketctl runs the ticketwatch risk scorer and LLM triage locally against ticket files and manages scoring rulesets.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newScoreCmd(), newAnalyzeCmd(), newRulesCmd())
	return root
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// envOr returns the TICKETWATCH_-prefixed environment value for key when
// flag is empty.
func envOr(flag, key string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(envPrefix + key)
}
