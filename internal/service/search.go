package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/brianjwalters/graphrag-service/internal/cache"
	"github.com/brianjwalters/graphrag-service/internal/domain"
	"github.com/brianjwalters/graphrag-service/internal/metrics"
	"github.com/brianjwalters/graphrag-service/internal/telemetry"
)

// Quality score weights: mean relevance dominates, coverage rewards filling
// the requested limit, and a small bonus rewards score diversity.
const (
	qualityMeanWeight     = 0.7
	qualityCoverageWeight = 0.2
	qualityDiversityCap   = 0.1
)

// FilterCommunityID names the filter key that scopes a local search to a
// single community
const FilterCommunityID = "community_id"

// SearchParams carries the strategy-independent parameters of one
// backing-store lookup
type SearchParams struct {
	TenantID  string
	Threshold float64
	Filters   map[string]string
	Limit     int
}

// SearchStore is the consumer interface for the backing similarity store.
// The four operations are addressed by name; their internal algorithm runs
// inside the data store.
type SearchStore interface {
	SearchChunksSemantic(ctx context.Context, embedding []float32, params SearchParams) ([]domain.SearchResult, error)
	SearchChunksHybrid(ctx context.Context, embedding []float32, queryText string, params SearchParams) ([]domain.SearchResult, error)
	SearchCommunityScoped(ctx context.Context, embedding []float32, communityID string, params SearchParams) ([]domain.SearchResult, error)
	SearchGlobal(ctx context.Context, embedding []float32, params SearchParams) ([]domain.SearchResult, error)
}

// EmbeddingProvider resolves query embeddings
type EmbeddingProvider interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// SearchService is the vector search engine: it resolves a query embedding,
// dispatches to one of four strategies, assembles a ranked result list, and
// scores the aggregate quality.
type SearchService struct {
	store       SearchStore
	embedder    EmbeddingProvider
	resultCache *cache.Cache[*domain.AggregateSearchResult]
	logger      *zap.Logger
}

// NewSearchService creates the search engine. resultCache may be nil to
// disable result caching.
func NewSearchService(store SearchStore, embedder EmbeddingProvider, resultCache *cache.Cache[*domain.AggregateSearchResult], logger *zap.Logger) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{
		store:       store,
		embedder:    embedder,
		resultCache: resultCache,
		logger:      logger,
	}
}

// Search executes a structured search query and returns the aggregate
// result. Validation failures return before any remote call; backing-store
// failures propagate because the caller has no safe default to substitute.
func (s *SearchService) Search(ctx context.Context, query domain.SearchQuery) (*domain.AggregateSearchResult, error) {
	query.Normalize()
	if err := query.Validate(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "SearchService.Search", telemetry.SpanAttributes{
		TenantID:   query.TenantID,
		SearchType: string(query.SearchType),
		Operation:  "search",
	})
	defer span.End()

	fingerprint := query.Fingerprint()
	if s.resultCache != nil {
		if cached, ok := s.resultCache.Get(fingerprint); ok {
			return cached.Clone(), nil
		}
	}

	start := time.Now()

	embedding, err := s.embedder.GetEmbedding(ctx, query.Query)
	if err != nil {
		span.SetError(err)
		metrics.SearchDuration.WithLabelValues(string(query.SearchType), "error").Observe(time.Since(start).Seconds())
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeRetrieval, "embedding resolution failed", err)
	}

	results, err := s.dispatch(ctx, query, embedding)
	if err != nil {
		span.SetError(err)
		metrics.SearchDuration.WithLabelValues(string(query.SearchType), "error").Observe(time.Since(start).Seconds())
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeRetrieval, fmt.Sprintf("%s search failed", query.SearchType), err)
	}

	if len(results) > query.Limit {
		results = results[:query.Limit]
	}

	agg := &domain.AggregateSearchResult{
		Query:   query.Query,
		Results: results,
		Total:   len(results),
		Metadata: domain.SearchMetadata{
			SearchType:  query.SearchType,
			SearchScope: query.SearchScope,
			Threshold:   query.Threshold,
			Filters:     query.Filters,
			TenantID:    query.TenantID,
		},
		Communities:   collectCommunities(results),
		EntityMatches: collectEntityMatches(results),
		QualityScore:  qualityScore(results, query.Limit),
	}

	if query.SearchType == domain.SearchTypeGlobal && query.IncludeReasoning {
		agg.ReasoningChain = reasoningChain(query, agg)
	}

	agg.Duration = time.Since(start)

	metrics.SearchDuration.WithLabelValues(string(query.SearchType), "ok").Observe(agg.Duration.Seconds())
	metrics.SearchResultsReturned.WithLabelValues(string(query.SearchType)).Observe(float64(agg.Total))

	if s.resultCache != nil {
		s.resultCache.Set(fingerprint, agg.Clone())
	}

	s.logger.Debug("search completed",
		zap.String("tenant_id", query.TenantID),
		zap.String("search_type", string(query.SearchType)),
		zap.Int("results", agg.Total),
		zap.Float64("quality", agg.QualityScore),
		zap.Duration("duration", agg.Duration),
	)

	return agg, nil
}

// SemanticSearch is a preset for pure similarity search
func (s *SearchService) SemanticSearch(ctx context.Context, tenantID, query string, limit int) (*domain.AggregateSearchResult, error) {
	return s.Search(ctx, domain.SearchQuery{
		Query:      query,
		TenantID:   tenantID,
		SearchType: domain.SearchTypeSemantic,
		Limit:      limit,
	})
}

// HybridSearch is a preset for weighted semantic+keyword search
func (s *SearchService) HybridSearch(ctx context.Context, tenantID, query string, limit int) (*domain.AggregateSearchResult, error) {
	return s.Search(ctx, domain.SearchQuery{
		Query:       query,
		TenantID:    tenantID,
		SearchType:  domain.SearchTypeHybrid,
		Limit:       limit,
		HybridAlpha: domain.DefaultHybridAlpha,
	})
}

// GlobalSearch is a preset for full-corpus search with community and entity
// collection
func (s *SearchService) GlobalSearch(ctx context.Context, tenantID, query string, limit int, includeReasoning bool) (*domain.AggregateSearchResult, error) {
	return s.Search(ctx, domain.SearchQuery{
		Query:            query,
		TenantID:         tenantID,
		SearchType:       domain.SearchTypeGlobal,
		Limit:            limit,
		IncludeReasoning: includeReasoning,
	})
}

func (s *SearchService) dispatch(ctx context.Context, query domain.SearchQuery, embedding []float32) ([]domain.SearchResult, error) {
	params := SearchParams{
		TenantID:  query.TenantID,
		Threshold: query.Threshold,
		Filters:   query.Filters,
		Limit:     query.Limit,
	}

	switch query.SearchType {
	case domain.SearchTypeSemantic:
		return s.store.SearchChunksSemantic(ctx, embedding, params)
	case domain.SearchTypeHybrid:
		results, err := s.store.SearchChunksHybrid(ctx, embedding, query.Query, params)
		if err != nil {
			return nil, err
		}
		return combineHybridScores(results, query.HybridAlpha, query.Threshold), nil
	case domain.SearchTypeLocal:
		communityID := query.Filters[FilterCommunityID]
		return s.store.SearchCommunityScoped(ctx, embedding, communityID, params)
	case domain.SearchTypeGlobal:
		return s.store.SearchGlobal(ctx, embedding, params)
	default:
		// unreachable after validation; kept so a new enum value cannot
		// silently fall through
		return nil, domain.ErrInvalidSearchType
	}
}

// combineHybridScores applies the hybrid weight alpha to the per-row
// semantic and keyword sub-scores: combined = alpha*semantic +
// (1-alpha)*keyword. Sub-scores stay in metadata for explainability.
func combineHybridScores(results []domain.SearchResult, alpha, threshold float64) []domain.SearchResult {
	combined := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		semantic := parseScore(r.Metadata[domain.MetadataKeySemanticScore])
		keyword := parseScore(r.Metadata[domain.MetadataKeyKeywordScore])
		r.Score = alpha*semantic + (1-alpha)*keyword
		if r.Score < threshold {
			continue
		}
		combined = append(combined, r)
	}
	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].Score > combined[j].Score
	})
	return combined
}

func parseScore(raw string) float64 {
	if raw == "" {
		return 0
	}
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return score
}

// collectCommunities gathers distinct community ids from result metadata;
// no extra backing-store round trip.
func collectCommunities(results []domain.SearchResult) []string {
	seen := make(map[string]struct{})
	var communities []string
	for _, r := range results {
		id := r.Metadata[domain.MetadataKeyCommunityID]
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		communities = append(communities, id)
	}
	return communities
}

// collectEntityMatches gathers entity mentions from result metadata,
// keeping the highest relevance per entity.
func collectEntityMatches(results []domain.SearchResult) []domain.EntityMatch {
	best := make(map[string]domain.EntityMatch)
	var order []string
	for _, r := range results {
		id := r.Metadata[domain.MetadataKeyEntityID]
		if id == "" {
			continue
		}
		match := domain.EntityMatch{
			EntityID:   id,
			EntityType: r.Metadata[domain.MetadataKeyEntityType],
			Relevance:  r.Score,
		}
		existing, ok := best[id]
		if !ok {
			order = append(order, id)
			best[id] = match
		} else if match.Relevance > existing.Relevance {
			best[id] = match
		}
	}
	matches := make([]domain.EntityMatch, 0, len(order))
	for _, id := range order {
		matches = append(matches, best[id])
	}
	return matches
}

// qualityScore rates an aggregate result in [0,1]:
// 0.7*mean(scores) + 0.2*min(returned/limit, 1) + min(0.1, stddev(scores)).
// An empty result list yields 0.0 without error.
func qualityScore(results []domain.SearchResult, limit int) float64 {
	if len(results) == 0 || limit <= 0 {
		return 0
	}

	var sum float64
	for _, r := range results {
		sum += r.Score
	}
	mean := sum / float64(len(results))

	coverage := math.Min(float64(len(results))/float64(limit), 1.0)

	var variance float64
	for _, r := range results {
		d := r.Score - mean
		variance += d * d
	}
	variance /= float64(len(results))
	diversity := math.Min(qualityDiversityCap, math.Sqrt(variance))

	return clamp01(qualityMeanWeight*mean + qualityCoverageWeight*coverage + diversity)
}

// reasoningChain produces the templated explanation for a global search.
// Deterministic text derived from result count and top score; not a model
// call.
func reasoningChain(query domain.SearchQuery, agg *domain.AggregateSearchResult) []string {
	if agg.Total == 0 {
		return []string{
			fmt.Sprintf("Global search across the full corpus for %q matched no passages above threshold %.2f.", query.Query, query.Threshold),
		}
	}

	chain := []string{
		fmt.Sprintf("Global search ranked %d passages across the full tenant corpus by semantic similarity to %q.", agg.Total, query.Query),
		fmt.Sprintf("The strongest match scored %.2f; results below threshold %.2f were discarded.", agg.Results[0].Score, query.Threshold),
	}
	if len(agg.Communities) > 0 {
		chain = append(chain, fmt.Sprintf("Matches span %d distinct communities, indicating cross-cluster relevance.", len(agg.Communities)))
	}
	if len(agg.EntityMatches) > 0 {
		chain = append(chain, fmt.Sprintf("%d distinct entities were mentioned in the top results.", len(agg.EntityMatches)))
	}
	return chain
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
