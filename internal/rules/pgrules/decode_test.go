package pgrules

import (
	"reflect"
	"testing"

	"github.com/linnemanlabs/ticketwatch/internal/triage"
)

func TestDecodeRuleset_ListsReplaceDefaults(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"keywords":[{"category":"churn","keywords":["quit"],"weight":35}],"sla_tiers":[{"min_hours":6,"weight":30}]}`)
	rs, err := decodeRuleset(raw)
	if err != nil {
		t.Fatalf("decodeRuleset: %v", err)
	}

	want := []triage.KeywordRule{{Category: triage.CategoryChurn, Keywords: []string{"quit"}, Weight: 35}}
	if !reflect.DeepEqual(rs.Keywords, want) {
		t.Errorf("keywords = %+v, want %+v", rs.Keywords, want)
	}
	if len(rs.SLATiers) != 1 || rs.SLATiers[0].Clause != "" {
		t.Errorf("sla_tiers = %+v, want a single tier without clause", rs.SLATiers)
	}

	// omitted keys keep their defaults
	def := triage.DefaultRuleset()
	if rs.HighThreshold != def.HighThreshold || rs.Actions != def.Actions {
		t.Errorf("thresholds/actions changed: %+v", rs)
	}
}

func TestDecodeRuleset_PartialActionsMerge(t *testing.T) {
	t.Parallel()

	rs, err := decodeRuleset([]byte(`{"actions":{"high":"page the on-call"}}`))
	if err != nil {
		t.Fatalf("decodeRuleset: %v", err)
	}
	def := triage.DefaultRuleset()
	if rs.Actions.High != "page the on-call" || rs.Actions.Medium != def.Actions.Medium || rs.Actions.Low != def.Actions.Low {
		t.Errorf("actions = %+v", rs.Actions)
	}
}

func TestDecodeRuleset_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"not json":       `{`,
		"not an object":  `[]`,
		"zero override":  `{"override_sla_weight":0}`,
		"bad thresholds": `{"high_threshold":10}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := decodeRuleset([]byte(raw)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
