package service

import (
	"strings"

	"github.com/brianjwalters/graphrag-service/internal/domain"
)

// IntentClassifier assigns exactly one intent to a query. It is an
// interface so a learned classifier can replace the rule set without
// touching the orchestrator's control flow.
type IntentClassifier interface {
	Classify(query string, hasCaseID bool) domain.QueryIntent
}

// intentRule pairs a predicate with the intent it selects
type intentRule struct {
	matches func(query string, hasCaseID bool) bool
	intent  domain.QueryIntent
}

// RuleClassifier classifies by an ordered list of keyword rules.
// Precedence when several rules match: case_specific > precedent >
// procedural > contextual > general_legal (default).
type RuleClassifier struct {
	rules []intentRule
}

// NewRuleClassifier creates the default rule set
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{
		rules: []intentRule{
			{
				intent: domain.IntentCaseSpecific,
				matches: func(q string, hasCaseID bool) bool {
					if hasCaseID && containsAny(q, "our case", "this case", "my case", "the case", "deadline", "deadlines", "hearing", "filing", "opposing counsel") {
						return true
					}
					return containsAny(q, "in our case", "in this case", "in my case")
				},
			},
			{
				intent: domain.IntentPrecedent,
				matches: func(q string, _ bool) bool {
					return containsAny(q, "precedent", "case law", "caselaw", "ruling", "rulings", "held that", "holding", "cited", "authority for")
				},
			},
			{
				intent: domain.IntentProcedural,
				matches: func(q string, _ bool) bool {
					return containsAny(q, "how do i file", "how to file", "procedure", "procedural", "deadline for filing", "statute of limitations", "service of process", "what are the steps", "motion practice")
				},
			},
			{
				intent: domain.IntentContextual,
				matches: func(q string, hasCaseID bool) bool {
					return hasCaseID || containsAny(q, "background", "summary of", "overview", "who are the parties", "status of")
				},
			},
		},
	}
}

// Classify returns the first matching intent in precedence order, falling
// back to general_legal
func (c *RuleClassifier) Classify(query string, hasCaseID bool) domain.QueryIntent {
	normalized := strings.ToLower(query)
	for _, rule := range c.rules {
		if rule.matches(normalized, hasCaseID) {
			return rule.intent
		}
	}
	return domain.IntentGeneralLegal
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
