package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brianjwalters/graphrag-service/internal/domain"
)

func TestRuleClassifier_Classify(t *testing.T) {
	classifier := NewRuleClassifier()

	tests := []struct {
		name      string
		query     string
		hasCaseID bool
		expected  domain.QueryIntent
	}{
		{
			name:      "deadlines with case id",
			query:     "What are the upcoming deadlines in our case?",
			hasCaseID: true,
			expected:  domain.IntentCaseSpecific,
		},
		{
			name:      "our case without case id",
			query:     "Summarize the testimony in our case",
			hasCaseID: false,
			expected:  domain.IntentCaseSpecific,
		},
		{
			name:      "precedent research",
			query:     "Find precedent for qualified immunity in excessive force claims",
			hasCaseID: false,
			expected:  domain.IntentPrecedent,
		},
		{
			name:      "case law phrasing",
			query:     "What does the case law say about piercing the corporate veil?",
			hasCaseID: false,
			expected:  domain.IntentPrecedent,
		},
		{
			name:      "procedural question",
			query:     "What is the statute of limitations for fraud in New York?",
			hasCaseID: false,
			expected:  domain.IntentProcedural,
		},
		{
			name:      "how to file",
			query:     "How to file a motion for summary judgment",
			hasCaseID: false,
			expected:  domain.IntentProcedural,
		},
		{
			name:      "contextual with case id",
			query:     "Who are the parties involved?",
			hasCaseID: true,
			expected:  domain.IntentContextual,
		},
		{
			name:      "background request",
			query:     "Give me the background on the Doe litigation",
			hasCaseID: false,
			expected:  domain.IntentContextual,
		},
		{
			name:      "general legal fallback",
			query:     "elements of negligence",
			hasCaseID: false,
			expected:  domain.IntentGeneralLegal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifier.Classify(tt.query, tt.hasCaseID))
		})
	}
}

func TestRuleClassifier_PrecedenceOrder(t *testing.T) {
	classifier := NewRuleClassifier()

	// matches both case_specific and precedent keywords; case_specific wins
	intent := classifier.Classify("What precedent applies to the deadline in our case?", true)
	assert.Equal(t, domain.IntentCaseSpecific, intent)
}
