// Package triage provides the business boundary for ticketwatch's escalation
// risk triage. It defines the Scorer (deterministic keyword and SLA rules),
// the Judge (LLM assessment with tolerant response parsing), the Engine
// (baseline, judge and guardrail reconciliation for one ticket) and the
// Service (ordered batch fan-out and notification dispatch).
package triage
