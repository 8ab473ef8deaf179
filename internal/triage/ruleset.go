package triage

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// KeywordRule awards Weight to Category when any keyword appears in the ticket text.
type KeywordRule struct {
	Category Category `json:"category" yaml:"category"`
	Keywords []string `json:"keywords" yaml:"keywords"`
	Weight   int      `json:"weight" yaml:"weight"`
	Clause   string   `json:"clause" yaml:"clause"`
}

// SLATier awards Weight when the ticket has been open at least MinHours.
// Clause may contain {hours}, replaced with the ticket's open hours.
type SLATier struct {
	MinHours int    `json:"min_hours" yaml:"min_hours"`
	Weight   int    `json:"weight" yaml:"weight"`
	Clause   string `json:"clause" yaml:"clause"`
}

// Actions holds the suggested action text per label.
type Actions struct {
	High   string `json:"high" yaml:"high"`
	Medium string `json:"medium" yaml:"medium"`
	Low    string `json:"low" yaml:"low"`
}

// For returns the action text for l.
func (a Actions) For(l RiskLabel) string {
	switch l {
	case RiskHigh:
		return a.High
	case RiskMedium:
		return a.Medium
	default:
		return a.Low
	}
}

// Ruleset is the data that drives the heuristic scorer.
type Ruleset struct {
	// Keywords are evaluated in order and their debug signals follow that
	// order, then the SLA signal. Reason clauses always use Categories order.
	Keywords []KeywordRule `json:"keywords" yaml:"keywords"`

	// SLATiers are matched highest MinHours first regardless of input order.
	SLATiers []SLATier `json:"sla_tiers" yaml:"sla_tiers"`

	HighThreshold   int `json:"high_threshold" yaml:"high_threshold"`
	MediumThreshold int `json:"medium_threshold" yaml:"medium_threshold"`

	// OverrideSLAWeight forces HIGH when escalation matched and the SLA
	// contribution is at least this value.
	OverrideSLAWeight int `json:"override_sla_weight" yaml:"override_sla_weight"`

	Actions Actions `json:"actions" yaml:"actions"`
}

const (
	defaultNoRiskReason = "No critical risk detected."
	maxScore            = 100
)

// DefaultRuleset returns the built-in English and Portuguese ruleset.
func DefaultRuleset() Ruleset {
	return Ruleset{
		Keywords: []KeywordRule{
			{
				Category: CategoryEscalation,
				Keywords: []string{"procon", "reclame aqui", "processo", "advogado", "lawsuit", "lawyer", "attorney", "legal action"},
				Weight:   40,
				Clause:   "customer threatened escalation",
			},
			{
				Category: CategoryChurn,
				Keywords: []string{"cancelar", "não renovo", "nao renovo", "vou sair", "encerrar", "cancelamento", "cancel", "will not renew", "won't renew", "terminate"},
				Weight:   35,
				Clause:   "customer signaled cancellation intent",
			},
			{
				Category: CategorySentiment,
				Keywords: []string{"péssimo", "horrível", "ridículo", "absurdo", "irritado", "raiva", "insatisfeito", "terrible", "horrible", "ridiculous", "absurd", "angry", "furious", "unacceptable", "frustrated", "disappointed"},
				Weight:   15,
				Clause:   "negative tone",
			},
		},
		SLATiers: []SLATier{
			{MinHours: 48, Weight: 35, Clause: "ticket open for {hours}h"},
			{MinHours: 24, Weight: 25, Clause: "ticket open for {hours}h"},
			{MinHours: 12, Weight: 15, Clause: "ticket aging"},
		},
		HighThreshold:     70,
		MediumThreshold:   35,
		OverrideSLAWeight: 25,
		Actions: Actions{
			High:   "Escalate to senior support and respond within 30 minutes with a clear plan.",
			Medium: "Reply today with a concrete next step and monitor for escalation or churn.",
			Low:    "Standard response flow.",
		},
	}
}

// Validate checks structural consistency of the ruleset.
func (r *Ruleset) Validate() error {
	var errs []error

	seen := make(map[Category]bool, len(r.Keywords))
	for i, k := range r.Keywords {
		switch k.Category {
		case CategoryEscalation, CategoryChurn, CategorySentiment:
		default:
			errs = append(errs, fmt.Errorf("keywords[%d]: unknown category %q", i, k.Category))
		}
		if seen[k.Category] {
			errs = append(errs, fmt.Errorf("keywords[%d]: duplicate category %q", i, k.Category))
		}
		seen[k.Category] = true
		if k.Weight < 0 || k.Weight > maxScore {
			errs = append(errs, fmt.Errorf("keywords[%d]: weight %d out of range 0-100", i, k.Weight))
		}
		if len(k.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("keywords[%d]: no keywords", i))
		}
		for _, kw := range k.Keywords {
			if strings.TrimSpace(kw) == "" {
				errs = append(errs, fmt.Errorf("keywords[%d]: empty keyword", i))
				break
			}
		}
	}

	for i, t := range r.SLATiers {
		if t.MinHours < 0 {
			errs = append(errs, fmt.Errorf("sla_tiers[%d]: negative min_hours", i))
		}
		if t.Weight < 0 || t.Weight > maxScore {
			errs = append(errs, fmt.Errorf("sla_tiers[%d]: weight %d out of range 0-100", i, t.Weight))
		}
	}

	// zero would force HIGH on every escalation hit, even with no SLA tier
	if r.OverrideSLAWeight <= 0 || r.OverrideSLAWeight > maxScore {
		errs = append(errs, fmt.Errorf("override_sla_weight %d out of range 1-100", r.OverrideSLAWeight))
	}
	if r.MediumThreshold <= 0 || r.HighThreshold <= r.MediumThreshold || r.HighThreshold > maxScore {
		errs = append(errs, fmt.Errorf("thresholds must satisfy 0 < medium (%d) < high (%d) <= 100", r.MediumThreshold, r.HighThreshold))
	}
	if r.Actions.High == "" || r.Actions.Medium == "" || r.Actions.Low == "" {
		errs = append(errs, errors.New("actions: high, medium and low are required"))
	}

	return errors.Join(errs...)
}

// normalized returns a copy with lower-cased keywords and tiers sorted by
// descending MinHours.
func (r Ruleset) normalized() Ruleset {
	out := r
	out.Keywords = make([]KeywordRule, len(r.Keywords))
	for i, k := range r.Keywords {
		kws := make([]string, 0, len(k.Keywords))
		for _, kw := range k.Keywords {
			kws = append(kws, strings.ToLower(strings.TrimSpace(kw)))
		}
		k.Keywords = kws
		out.Keywords[i] = k
	}
	out.SLATiers = slices.Clone(r.SLATiers)
	slices.SortStableFunc(out.SLATiers, func(a, b SLATier) int {
		return b.MinHours - a.MinHours
	})
	return out
}
