package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSearchQuery_Normalize(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		q := SearchQuery{Query: "breach of contract", TenantID: "t1"}
		q.Normalize()

		assert.Equal(t, SearchTypeSemantic, q.SearchType)
		assert.Equal(t, SearchScopeChunks, q.SearchScope)
		assert.Equal(t, DefaultSearchLimit, q.Limit)
		assert.Zero(t, q.HybridAlpha)
	})

	t.Run("leaves hybrid alpha untouched", func(t *testing.T) {
		q := SearchQuery{Query: "q", TenantID: "t1", SearchType: SearchTypeHybrid}
		q.Normalize()

		// zero means pure keyword, not unset
		assert.Zero(t, q.HybridAlpha)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		q := SearchQuery{
			Query:      "q",
			TenantID:   "t1",
			SearchType: SearchTypeGlobal,
			Limit:      25,
		}
		q.Normalize()

		assert.Equal(t, SearchTypeGlobal, q.SearchType)
		assert.Equal(t, 25, q.Limit)
	})
}

func TestSearchQuery_Validate(t *testing.T) {
	valid := func() SearchQuery {
		q := SearchQuery{Query: "breach of contract", TenantID: "t1"}
		q.Normalize()
		return q
	}

	t.Run("valid query passes", func(t *testing.T) {
		q := valid()
		assert.NoError(t, q.Validate())
	})

	t.Run("empty query", func(t *testing.T) {
		q := valid()
		q.Query = "   "
		assert.ErrorIs(t, q.Validate(), ErrEmptyQuery)
	})

	t.Run("missing tenant", func(t *testing.T) {
		q := valid()
		q.TenantID = ""
		assert.ErrorIs(t, q.Validate(), ErrMissingTenant)
	})

	t.Run("unknown search type", func(t *testing.T) {
		q := valid()
		q.SearchType = "fuzzy"
		assert.ErrorIs(t, q.Validate(), ErrInvalidSearchType)
	})

	t.Run("limit out of range", func(t *testing.T) {
		q := valid()
		q.Limit = MaxSearchLimit + 1
		assert.ErrorIs(t, q.Validate(), ErrInvalidLimit)

		q.Limit = -1
		assert.ErrorIs(t, q.Validate(), ErrInvalidLimit)
	})

	t.Run("threshold out of range", func(t *testing.T) {
		q := valid()
		q.Threshold = 1.5
		assert.ErrorIs(t, q.Validate(), ErrInvalidThreshold)
	})

	t.Run("hybrid alpha out of range", func(t *testing.T) {
		q := valid()
		q.SearchType = SearchTypeHybrid
		q.HybridAlpha = -0.1
		assert.ErrorIs(t, q.Validate(), ErrInvalidHybridAlpha)
	})
}

func TestSearchQuery_Fingerprint(t *testing.T) {
	t.Run("normalizes whitespace and case", func(t *testing.T) {
		a := SearchQuery{Query: "Breach  of   Contract", TenantID: "t1", SearchType: SearchTypeSemantic, Limit: 10}
		b := SearchQuery{Query: "breach of contract", TenantID: "t1", SearchType: SearchTypeSemantic, Limit: 10}

		assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	})

	t.Run("filter order does not matter", func(t *testing.T) {
		a := SearchQuery{Query: "q", TenantID: "t1", Limit: 10, Filters: map[string]string{"a": "1", "b": "2"}}
		b := SearchQuery{Query: "q", TenantID: "t1", Limit: 10, Filters: map[string]string{"b": "2", "a": "1"}}

		assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	})

	t.Run("tenant and type are distinguishing", func(t *testing.T) {
		a := SearchQuery{Query: "q", TenantID: "t1", SearchType: SearchTypeSemantic, Limit: 10}
		b := SearchQuery{Query: "q", TenantID: "t2", SearchType: SearchTypeSemantic, Limit: 10}
		c := SearchQuery{Query: "q", TenantID: "t1", SearchType: SearchTypeGlobal, Limit: 10}

		assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
		assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	})

	t.Run("limit is distinguishing", func(t *testing.T) {
		a := SearchQuery{Query: "q", TenantID: "t1", Limit: 10}
		b := SearchQuery{Query: "q", TenantID: "t1", Limit: 20}

		assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	})
}

func TestAggregateSearchResult_Clone(t *testing.T) {
	original := &AggregateSearchResult{
		Query: "q",
		Results: []SearchResult{
			{
				ID:       "r1",
				Content:  "content",
				Score:    0.9,
				Metadata: map[string]string{MetadataKeyCommunityID: "c1"},
			},
		},
		Total:        1,
		Metadata:     SearchMetadata{TenantID: "t1", Filters: map[string]string{"jurisdiction": "ca"}},
		Communities:  []string{"c1"},
		QualityScore: 0.8,
		Duration:     3 * time.Millisecond,
	}

	clone := original.Clone()
	assert.Equal(t, original, clone)

	clone.Results[0].Metadata[MetadataKeyCommunityID] = "changed"
	clone.Communities[0] = "changed"
	clone.Metadata.Filters["jurisdiction"] = "ny"

	assert.Equal(t, "c1", original.Results[0].Metadata[MetadataKeyCommunityID])
	assert.Equal(t, "c1", original.Communities[0])
	assert.Equal(t, "ca", original.Metadata.Filters["jurisdiction"])
}

func TestAggregateSearchResult_CloneNil(t *testing.T) {
	var r *AggregateSearchResult
	assert.Nil(t, r.Clone())
}
