// Package rules loads triage rulesets from YAML.
//
// A file may override any subset of the built-in ruleset. Omitted top-level
// keys keep their defaults, so a file that only lists extra sla_tiers still
// scores keywords with the built-in lists.
package rules

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/linnemanlabs/ticketwatch/internal/triage"
)

// Load reads and validates the ruleset at path. An empty path returns the
// default ruleset.
func Load(path string) (triage.Ruleset, error) {
	if path == "" {
		return triage.DefaultRuleset(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return triage.Ruleset{}, fmt.Errorf("read ruleset %s: %w", path, err)
	}
	rs, err := Parse(data)
	if err != nil {
		return triage.Ruleset{}, fmt.Errorf("ruleset %s: %w", path, err)
	}
	return rs, nil
}

// Parse decodes YAML over the default ruleset and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (triage.Ruleset, error) {
	rs := triage.DefaultRuleset()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rs); err != nil && err != io.EOF {
		return triage.Ruleset{}, fmt.Errorf("decode yaml: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return triage.Ruleset{}, fmt.Errorf("invalid ruleset: %w", err)
	}
	return rs, nil
}

// Marshal renders rs as YAML.
func Marshal(rs triage.Ruleset) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(rs); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}
