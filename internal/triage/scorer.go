package triage

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scorer is the deterministic keyword and SLA rule engine. It is safe for
// concurrent use and never fails.
type Scorer struct {
	rules Ruleset
}

// NewScorer returns a Scorer for rs. Callers should Validate rs first.
func NewScorer(rs Ruleset) *Scorer {
	return &Scorer{rules: rs.normalized()}
}

// Rules returns the effective ruleset.
func (s *Scorer) Rules() Ruleset {
	return s.rules
}

// Score computes the baseline result for t.
func (s *Scorer) Score(t *Ticket) *Result {
	text := strings.ToLower(t.LastMessage + " " + t.ConversationSummary)

	var (
		bd      Breakdown
		signals = make([]string, 0, len(s.rules.Keywords)+1)
		clauses = make(map[Category]string, len(Categories))
	)

	for _, rule := range s.rules.Keywords {
		var hits []string
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				hits = append(hits, kw)
			}
		}
		if len(hits) == 0 {
			continue
		}
		bd.set(rule.Category, rule.Weight)
		clauses[rule.Category] = rule.Clause
		signals = append(signals, fmt.Sprintf("%s: %s", rule.Category, strings.Join(hits, ", ")))
	}

	for _, tier := range s.rules.SLATiers {
		if t.SLAHoursOpen < tier.MinHours {
			continue
		}
		bd.SLA = tier.Weight
		clauses[CategorySLA] = strings.ReplaceAll(tier.Clause, "{hours}", strconv.Itoa(t.SLAHoursOpen))
		signals = append(signals, fmt.Sprintf("sla: >=%dh", tier.MinHours))
		break
	}

	score := min(bd.Total(), maxScore)
	label := s.label(score)
	if bd.Escalation > 0 && bd.SLA >= s.rules.OverrideSLAWeight {
		label = RiskHigh
	}

	return &Result{
		ID:              t.ID,
		RiskScore:       score,
		Label:           label,
		Reason:          buildReason(clauses),
		SuggestedAction: s.rules.Actions.For(label),
		DebugSignals:    signals,
		Breakdown:       bd,
		Language:        NormalizeLanguage(t.Language),
		Source:          SourceHeuristic,
	}
}

func (s *Scorer) label(score int) RiskLabel {
	switch {
	case score >= s.rules.HighThreshold:
		return RiskHigh
	case score >= s.rules.MediumThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

func buildReason(clauses map[Category]string) string {
	parts := make([]string, 0, len(clauses))
	for _, c := range Categories {
		if cl, ok := clauses[c]; ok && cl != "" {
			parts = append(parts, cl)
		}
	}
	if len(parts) == 0 {
		return defaultNoRiskReason
	}
	reason := strings.Join(parts, " and ")
	r, size := utf8.DecodeRuneInString(reason)
	return string(unicode.ToUpper(r)) + reason[size:] + "."
}
