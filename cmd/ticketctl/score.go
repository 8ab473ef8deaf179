package main

import (
	"github.com/spf13/cobra"

	"github.com/linnemanlabs/ticketwatch/internal/rules"
	"github.com/linnemanlabs/ticketwatch/internal/triage"
)

func newScoreCmd() *cobra.Command {
	var in, rulesFile string
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score tickets with the heuristic rules only",
		Long:  "Score reads {\"tickets\":[...]} and prints heuristic baselines without calling an LLM.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rs, err := rules.Load(rulesFile)
			if err != nil {
				return err
			}
			tickets, err := readTickets(in, cmd.InOrStdin())
			if err != nil {
				return err
			}
			scorer := triage.NewScorer(rs)
			results := make([]triage.Result, len(tickets))
			for i := range tickets {
				results[i] = *scorer.Score(&tickets[i])
			}
			return writeResults(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "tickets JSON file (default stdin)")
	cmd.Flags().StringVar(&rulesFile, "rules-file", "", "YAML ruleset (default built-in)")
	return cmd
}
