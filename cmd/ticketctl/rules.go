package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/linnemanlabs/go-core/log"
	"github.com/spf13/cobra"

	"github.com/linnemanlabs/ticketwatch/internal/postgres"
	"github.com/linnemanlabs/ticketwatch/internal/rules"
	"github.com/linnemanlabs/ticketwatch/internal/rules/pgrules"
	"github.com/linnemanlabs/ticketwatch/internal/triage"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and publish scoring rulesets",
	}
	cmd.AddCommand(newRulesShowCmd(), newRulesPushCmd())
	return cmd
}

func newRulesShowCmd() *cobra.Command {
	var file, dbURL, name string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective ruleset as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbURL = envOr(dbURL, "DATABASE_URL")
			if file != "" && dbURL != "" {
				return errors.New("cannot use --rules-file with --database-url")
			}

			var rs triage.Ruleset
			if dbURL != "" {
				store, closeFn, err := openRuleStore(cmd.Context(), dbURL)
				if err != nil {
					return err
				}
				defer closeFn()
				got, _, ok, err := store.Load(cmd.Context(), name)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("ruleset %q not found", name)
				}
				rs = got
			} else {
				got, err := rules.Load(file)
				if err != nil {
					return err
				}
				rs = got
			}

			out, err := rules.Marshal(rs)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVar(&file, "rules-file", "", "YAML ruleset to merge over the defaults")
	cmd.Flags().StringVar(&dbURL, "database-url", "", "PostgreSQL URL to read the ruleset from")
	cmd.Flags().StringVar(&name, "name", pgrules.DefaultName, "stored ruleset name")
	return cmd
}

func newRulesPushCmd() *cobra.Command {
	var file, dbURL, name string
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Validate a YAML ruleset and store it in PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbURL = envOr(dbURL, "DATABASE_URL")
			if dbURL == "" {
				return errors.New("--database-url is required")
			}
			rs, err := rules.Load(file)
			if err != nil {
				return err
			}
			store, closeFn, err := openRuleStore(cmd.Context(), dbURL)
			if err != nil {
				return err
			}
			defer closeFn()
			if err := store.Save(cmd.Context(), name, rs); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "stored ruleset %q\n", name)
			return err
		},
	}
	cmd.Flags().StringVar(&file, "rules-file", "", "YAML ruleset (required)")
	cmd.Flags().StringVar(&dbURL, "database-url", "", "PostgreSQL URL")
	cmd.Flags().StringVar(&name, "name", pgrules.DefaultName, "stored ruleset name")
	_ = cmd.MarkFlagRequired("rules-file")
	return cmd
}

func openRuleStore(ctx context.Context, dbURL string) (*pgrules.Store, func(), error) {
	pool, err := postgres.NewPool(ctx, dbURL, postgres.PoolOptions{Logger: log.Nop(), MaxConns: 2})
	if err != nil {
		return nil, nil, err
	}
	store, err := pgrules.New(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}
