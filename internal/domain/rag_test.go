package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRAGQuery_Normalize(t *testing.T) {
	q := RAGQuery{Query: "what deadlines are coming up", TenantID: "t1"}
	q.Normalize()

	assert.Equal(t, ModeAdaptive, q.Mode)
	assert.Equal(t, DefaultSearchLimit, q.MaxResults)
	assert.Equal(t, DefaultContextDepth, q.ContextDepth)
	assert.Equal(t, []SearchType{SearchTypeSemantic, SearchTypeHybrid}, q.SearchTypes)
}

func TestRAGQuery_Validate(t *testing.T) {
	valid := func() RAGQuery {
		q := RAGQuery{Query: "what deadlines are coming up", TenantID: "t1"}
		q.Normalize()
		return q
	}

	t.Run("valid query passes", func(t *testing.T) {
		q := valid()
		assert.NoError(t, q.Validate())
	})

	t.Run("empty query", func(t *testing.T) {
		q := valid()
		q.Query = ""
		assert.ErrorIs(t, q.Validate(), ErrEmptyQuery)
	})

	t.Run("missing tenant", func(t *testing.T) {
		q := valid()
		q.TenantID = ""
		assert.ErrorIs(t, q.Validate(), ErrMissingTenant)
	})

	t.Run("unknown mode", func(t *testing.T) {
		q := valid()
		q.Mode = "eager"
		assert.ErrorIs(t, q.Validate(), ErrInvalidExecutionMode)
	})

	t.Run("context depth out of range", func(t *testing.T) {
		q := valid()
		q.ContextDepth = MaxContextDepth + 1
		assert.ErrorIs(t, q.Validate(), ErrInvalidContextDepth)
	})

	t.Run("unknown search type in list", func(t *testing.T) {
		q := valid()
		q.SearchTypes = []SearchType{SearchTypeSemantic, "fuzzy"}
		assert.ErrorIs(t, q.Validate(), ErrInvalidSearchType)
	})
}

func TestComplexityForQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected QueryComplexity
	}{
		{"short query", "statute of limitations", ComplexityLow},
		{"exactly ten words", "one two three four five six seven eight nine ten", ComplexityLow},
		{"medium query", "what are the filing requirements for a motion for summary judgment in california state court", ComplexityMedium},
		{
			"long query",
			"considering the procedural history of this matter including the prior dismissals and the pending appeal what is the likelihood that the court grants a motion to compel arbitration given the recent rulings on unconscionability in consumer contracts",
			ComplexityHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComplexityForQuery(tt.query))
		})
	}
}

func TestCaseContext_Empty(t *testing.T) {
	var nilContext *CaseContext
	assert.True(t, nilContext.Empty())
	assert.True(t, (&CaseContext{TenantID: "t1", CaseID: "c1"}).Empty())
	assert.False(t, (&CaseContext{Case: &CaseRecord{Title: "Smith v. Jones"}}).Empty())
	assert.False(t, (&CaseContext{Parties: []Party{{Name: "Smith"}}}).Empty())
	assert.False(t, (&CaseContext{Summary: "pending"}).Empty())
}
