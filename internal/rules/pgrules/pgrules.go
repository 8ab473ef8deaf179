// Package pgrules stores named triage rulesets in PostgreSQL.
package pgrules

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/ticketwatch/internal/triage"
)

var tracer = otel.Tracer("github.com/linnemanlabs/ticketwatch/internal/rules/pgrules")

//go:embed schema.sql
var schema string

// DefaultName is the ruleset name the server loads when none is configured.
const DefaultName = "default"

// Store reads and writes rulesets.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store. The caller owns pool.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Load returns the named ruleset decoded over the defaults and validated.
// ok is false when no row exists.
func (s *Store) Load(ctx context.Context, name string) (rs triage.Ruleset, updatedAt time.Time, ok bool, err error) {
	ctx, span := tracer.Start(ctx, "pgrules.Load", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
		attribute.String("ticketwatch.ruleset.name", name),
	))
	defer span.End()

	var raw []byte
	err = s.pool.QueryRow(ctx,
		`SELECT ruleset, updated_at FROM triage_rulesets WHERE name = $1`, name,
	).Scan(&raw, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return triage.Ruleset{}, time.Time{}, false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return triage.Ruleset{}, time.Time{}, false, fmt.Errorf("select ruleset %q: %w", name, err)
	}

	rs, err = decodeRuleset(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return triage.Ruleset{}, time.Time{}, false, fmt.Errorf("ruleset %q: %w", name, err)
	}
	return rs, updatedAt, true, nil
}

// decodeRuleset overlays a stored document on the defaults. A key that is
// present replaces the whole default value, so list entries never inherit
// fields from the default entry at the same index.
func decodeRuleset(raw []byte) (triage.Ruleset, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return triage.Ruleset{}, fmt.Errorf("decode: %w", err)
	}

	rs := triage.DefaultRuleset()
	if _, ok := keys["keywords"]; ok {
		rs.Keywords = nil
	}
	if _, ok := keys["sla_tiers"]; ok {
		rs.SLATiers = nil
	}
	if err := json.Unmarshal(raw, &rs); err != nil {
		return triage.Ruleset{}, fmt.Errorf("decode: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return triage.Ruleset{}, fmt.Errorf("invalid: %w", err)
	}
	return rs, nil
}

// Save validates rs and upserts it under name.
func (s *Store) Save(ctx context.Context, name string, rs triage.Ruleset) error {
	ctx, span := tracer.Start(ctx, "pgrules.Save", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPSERT"),
		attribute.String("ticketwatch.ruleset.name", name),
	))
	defer span.End()

	if err := rs.Validate(); err != nil {
		return fmt.Errorf("invalid ruleset %q: %w", name, err)
	}
	raw, err := json.Marshal(rs)
	if err != nil {
		return fmt.Errorf("encode ruleset %q: %w", name, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO triage_rulesets (name, ruleset, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET ruleset = EXCLUDED.ruleset, updated_at = EXCLUDED.updated_at`,
		name, raw,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upsert ruleset %q: %w", name, err)
	}
	return nil
}

// Delete removes the named ruleset. Deleting a missing name is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM triage_rulesets WHERE name = $1`, name); err != nil {
		return fmt.Errorf("delete ruleset %q: %w", name, err)
	}
	return nil
}
