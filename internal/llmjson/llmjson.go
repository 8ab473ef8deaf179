// Package llmjson recovers a JSON object from free-form LLM output.
//
// Models asked for "only JSON" still wrap answers in prose or code fences.
// Decode accepts the whole text when it parses, and otherwise the span from
// the first '{' to the last '}'.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrMalformedResponse means no JSON object could be recovered, or a
// required field was missing.
var ErrMalformedResponse = errors.New("malformed llm response")

// Decode unmarshals the JSON object embedded in raw into v.
func Decode(raw string, v any) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return nil
	}

	start := strings.IndexByte(trimmed, '{')
	end := strings.LastIndexByte(trimmed, '}')
	if start < 0 || end <= start {
		return fmt.Errorf("%w: no json object found", ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

// ClampInt rounds f half away from zero and clamps the result to [lo, hi].
// NaN clamps to lo.
func ClampInt(f float64, lo, hi int) int {
	if math.IsNaN(f) {
		return lo
	}
	r := math.Round(f)
	if r < float64(lo) {
		return lo
	}
	if r > float64(hi) {
		return hi
	}
	return int(r)
}

// Require returns ErrMalformedResponse naming the first field in order
// that is not marked present.
func Require(present map[string]bool, order ...string) error {
	for _, name := range order {
		if !present[name] {
			return fmt.Errorf("%w: missing field %q", ErrMalformedResponse, name)
		}
	}
	return nil
}
