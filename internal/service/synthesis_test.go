package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brianjwalters/graphrag-service/internal/domain"
)

func TestMakeSnippet(t *testing.T) {
	t.Run("collapses whitespace", func(t *testing.T) {
		assert.Equal(t, "a b c", makeSnippet("a\n  b\t c"))
	})

	t.Run("short content unchanged", func(t *testing.T) {
		assert.Equal(t, "short passage", makeSnippet("short passage"))
	})

	t.Run("truncates at word boundary", func(t *testing.T) {
		long := strings.Repeat("word ", 100)
		snippet := makeSnippet(long)

		assert.LessOrEqual(t, len(snippet), snippetMaxLen+3)
		assert.True(t, strings.HasSuffix(snippet, "..."))
	})
}

func TestBuildEvidence(t *testing.T) {
	t.Run("empty retrieval yields no evidence", func(t *testing.T) {
		assert.Nil(t, buildEvidence(nil))
		assert.Nil(t, buildEvidence(&domain.AggregateSearchResult{}))
	})

	t.Run("caps items and falls back to chunk id", func(t *testing.T) {
		results := make([]domain.SearchResult, 8)
		for i := range results {
			results[i] = domain.SearchResult{ID: "chunk", Content: "fact", Score: 0.9}
		}
		results[0].Metadata = map[string]string{domain.MetadataKeyDocumentID: "doc-1"}

		evidence := buildEvidence(&domain.AggregateSearchResult{Results: results, Total: len(results)})

		require.Len(t, evidence, maxEvidenceItems)
		assert.Equal(t, "doc-1", evidence[0].Source)
		assert.Equal(t, "chunk", evidence[1].Source)
	})
}

func TestSynthesize(t *testing.T) {
	result := &domain.RAGResult{
		Context: &domain.CaseContext{
			Case:    &domain.CaseRecord{Title: "Smith v. Jones", CaseNumber: "2026-CV-1001", Status: "discovery"},
			Parties: []domain.Party{{Name: "Smith", Role: "plaintiff"}},
		},
		Retrieval: &domain.AggregateSearchResult{
			Results: []domain.SearchResult{
				{ID: "r1", Content: "The motion was denied.", Score: 0.9},
			},
			Total:          1,
			QualityScore:   0.8,
			ReasoningChain: []string{"ranked 1 passage"},
		},
	}

	response := synthesize(result)

	assert.Contains(t, response, "=== Case Context ===")
	assert.Contains(t, response, "Smith v. Jones (No. 2026-CV-1001)")
	assert.Contains(t, response, "Parties: Smith (plaintiff).")
	assert.Contains(t, response, "=== Retrieved Evidence ===")
	assert.Contains(t, response, "1 passages retrieved")
	assert.Contains(t, response, "=== Reasoning ===")
	assert.Contains(t, response, "- ranked 1 passage")
}
