package main

import (
	"context"
	"fmt"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/prometheus/client_golang/prometheus"

	tc "github.com/linnemanlabs/ticketwatch/internal/cfg"
	"github.com/linnemanlabs/ticketwatch/internal/postgres"
	"github.com/linnemanlabs/ticketwatch/internal/rules"
	"github.com/linnemanlabs/ticketwatch/internal/rules/pgrules"
	"github.com/linnemanlabs/ticketwatch/internal/triage"
)

// loadRuleset resolves the scoring ruleset. A database ruleset that does not
// exist yet is seeded with the built-in defaults. The returned func releases
// any database pool and is always safe to call.
func loadRuleset(ctx context.Context, L log.Logger, c *tc.Config, reg prometheus.Registerer) (triage.Ruleset, func(), error) {
	noop := func() {}

	if c.DatabaseURL == "" {
		rs, err := rules.Load(c.RulesFile)
		if err != nil {
			return triage.Ruleset{}, noop, fmt.Errorf("rules file: %w", err)
		}
		src := "builtin"
		if c.RulesFile != "" {
			src = c.RulesFile
		}
		L.Info(ctx, "loaded ruleset", "source", src, "high_threshold", rs.HighThreshold, "medium_threshold", rs.MediumThreshold)
		return rs, noop, nil
	}

	// Register per-query DB duration histogram and wire the observer.
	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ticketwatch_db_query_duration_seconds",
		Help:    "Duration of individual database queries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
	reg.MustRegister(dbQueryDuration)

	pool, err := postgres.NewPool(ctx, c.DatabaseURL, postgres.PoolOptions{
		Logger: L,
		Observer: postgres.QueryObserverFunc(func(_ context.Context, operation, outcome string, dur time.Duration) {
			dbQueryDuration.WithLabelValues(operation, outcome).Observe(dur.Seconds())
		}),
		MaxConns: 4,
	})
	if err != nil {
		return triage.Ruleset{}, noop, fmt.Errorf("postgres pool: %w", err)
	}

	store, err := pgrules.New(ctx, pool)
	if err != nil {
		pool.Close()
		return triage.Ruleset{}, noop, fmt.Errorf("pgrules init: %w", err)
	}

	rs, updatedAt, ok, err := store.Load(ctx, c.RulesName)
	if err != nil {
		pool.Close()
		return triage.Ruleset{}, noop, err
	}
	if !ok {
		rs = triage.DefaultRuleset()
		if err := store.Save(ctx, c.RulesName, rs); err != nil {
			pool.Close()
			return triage.Ruleset{}, noop, fmt.Errorf("seed ruleset: %w", err)
		}
		L.Info(ctx, "seeded default ruleset", "name", c.RulesName)
	} else {
		L.Info(ctx, "loaded ruleset", "source", "postgres", "name", c.RulesName, "updated_at", updatedAt)
	}
	return rs, pool.Close, nil
}
