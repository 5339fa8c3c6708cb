package domain

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// SearchType selects the retrieval strategy used by the vector search engine
type SearchType string

const (
	SearchTypeSemantic SearchType = "semantic"
	SearchTypeHybrid   SearchType = "hybrid"
	SearchTypeLocal    SearchType = "local"
	SearchTypeGlobal   SearchType = "global"
)

// Valid reports whether the search type is a known strategy
func (t SearchType) Valid() bool {
	switch t {
	case SearchTypeSemantic, SearchTypeHybrid, SearchTypeLocal, SearchTypeGlobal:
		return true
	}
	return false
}

// SearchScope selects which part of the knowledge graph is searched
type SearchScope string

const (
	SearchScopeNodes       SearchScope = "nodes"
	SearchScopeChunks      SearchScope = "chunks"
	SearchScopeCommunities SearchScope = "communities"
	SearchScopeAll         SearchScope = "all"
)

// Valid reports whether the search scope is a known scope
func (s SearchScope) Valid() bool {
	switch s {
	case SearchScopeNodes, SearchScopeChunks, SearchScopeCommunities, SearchScopeAll:
		return true
	}
	return false
}

const (
	// DefaultSearchLimit is used when a query does not specify a limit
	DefaultSearchLimit = 10
	// MaxSearchLimit bounds the number of results a single search may return
	MaxSearchLimit = 100
	// DefaultHybridAlpha weights semantic similarity in hybrid search
	// (1.0 = pure semantic, 0.0 = pure keyword)
	DefaultHybridAlpha = 0.7
)

// SearchQuery describes a single search request against a tenant's corpus.
// Queries are created per request and discarded after the call returns.
type SearchQuery struct {
	Query            string            `json:"query"`
	TenantID         string            `json:"tenant_id"`
	SearchType       SearchType        `json:"search_type"`
	SearchScope      SearchScope       `json:"search_scope"`
	Limit            int               `json:"limit"`
	Threshold        float64           `json:"threshold"`
	Filters          map[string]string `json:"filters,omitempty"`
	Rerank           bool              `json:"rerank"`

	// HybridAlpha weights the semantic sub-score in hybrid search. Zero is a
	// meaningful value (pure keyword), so Normalize never fills it; callers
	// that mean "unspecified" set DefaultHybridAlpha themselves.
	HybridAlpha      float64 `json:"hybrid_alpha"`
	IncludeReasoning bool    `json:"include_reasoning"`
}

// Normalize fills defaults for optional fields. It does not validate.
func (q *SearchQuery) Normalize() {
	if q.SearchType == "" {
		q.SearchType = SearchTypeSemantic
	}
	if q.SearchScope == "" {
		q.SearchScope = SearchScopeChunks
	}
	if q.Limit == 0 {
		q.Limit = DefaultSearchLimit
	}
}

// Validate checks the query before any remote call is made
func (q *SearchQuery) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return ErrEmptyQuery
	}
	if q.TenantID == "" {
		return ErrMissingTenant
	}
	if !q.SearchType.Valid() {
		return ErrInvalidSearchType
	}
	if !q.SearchScope.Valid() {
		return ErrInvalidSearchScope
	}
	if q.Limit < 1 || q.Limit > MaxSearchLimit {
		return ErrInvalidLimit
	}
	if q.Threshold < 0 || q.Threshold > 1 {
		return ErrInvalidThreshold
	}
	if q.HybridAlpha < 0 || q.HybridAlpha > 1 {
		return ErrInvalidHybridAlpha
	}
	return nil
}

// Fingerprint returns a stable cache key component for the query: tenant,
// search type, normalized query text, and sorted filter pairs. Limit and
// threshold are included so presets with different caps do not collide.
func (q *SearchQuery) Fingerprint() string {
	var b strings.Builder
	b.WriteString(q.TenantID)
	b.WriteByte('|')
	b.WriteString(string(q.SearchType))
	b.WriteByte('|')
	b.WriteString(string(q.SearchScope))
	b.WriteByte('|')
	b.WriteString(strings.ToLower(strings.Join(strings.Fields(q.Query), " ")))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(q.Limit))
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(q.Threshold, 'f', -1, 64))
	if q.SearchType == SearchTypeHybrid {
		b.WriteByte('|')
		b.WriteString(strconv.FormatFloat(q.HybridAlpha, 'f', -1, 64))
	}

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(q.Filters[k])
	}
	return b.String()
}

// SearchResult is a single retrieved passage or entity. Immutable once
// returned by the engine.
type SearchResult struct {
	ID            string            `json:"id"`
	Content       string            `json:"content"`
	Score         float64           `json:"score"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	SearchType    SearchType        `json:"search_type"`
	MatchedFields []string          `json:"matched_fields,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// EntityMatch records an entity mention surfaced by a search
type EntityMatch struct {
	EntityID   string  `json:"entity_id"`
	EntityType string  `json:"entity_type"`
	Relevance  float64 `json:"relevance"`
}

// SearchMetadata echoes the parameters a search executed with
type SearchMetadata struct {
	SearchType  SearchType        `json:"search_type"`
	SearchScope SearchScope       `json:"search_scope"`
	Threshold   float64           `json:"threshold"`
	Filters     map[string]string `json:"filters,omitempty"`
	TenantID    string            `json:"tenant_id"`
}

// AggregateSearchResult is the full outcome of one search call.
// Invariant: Total == len(Results). QualityScore is clamped to [0,1].
type AggregateSearchResult struct {
	Query          string         `json:"query"`
	Results        []SearchResult `json:"results"`
	Total          int            `json:"total"`
	Metadata       SearchMetadata `json:"metadata"`
	Communities    []string       `json:"communities,omitempty"`
	EntityMatches  []EntityMatch  `json:"entity_matches,omitempty"`
	ReasoningChain []string       `json:"reasoning_chain,omitempty"`
	QualityScore   float64        `json:"quality_score"`
	Duration       time.Duration  `json:"duration"`
}

// Clone returns a deep copy so cached entries are never shared with callers
func (r *AggregateSearchResult) Clone() *AggregateSearchResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Results = make([]SearchResult, len(r.Results))
	for i, res := range r.Results {
		out.Results[i] = res
		if res.Metadata != nil {
			md := make(map[string]string, len(res.Metadata))
			for k, v := range res.Metadata {
				md[k] = v
			}
			out.Results[i].Metadata = md
		}
		if res.MatchedFields != nil {
			out.Results[i].MatchedFields = append([]string(nil), res.MatchedFields...)
		}
	}
	if r.Metadata.Filters != nil {
		filters := make(map[string]string, len(r.Metadata.Filters))
		for k, v := range r.Metadata.Filters {
			filters[k] = v
		}
		out.Metadata.Filters = filters
	}
	out.Communities = append([]string(nil), r.Communities...)
	out.EntityMatches = append([]EntityMatch(nil), r.EntityMatches...)
	out.ReasoningChain = append([]string(nil), r.ReasoningChain...)
	return &out
}

// Well-known metadata keys attached to search results by the backing store
const (
	MetadataKeyDocumentID    = "document_id"
	MetadataKeyCommunityID   = "community_id"
	MetadataKeyEntityID      = "entity_id"
	MetadataKeyEntityType    = "entity_type"
	MetadataKeySemanticScore = "semantic_score"
	MetadataKeyKeywordScore  = "keyword_score"
)
