package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/brianjwalters/graphrag-service/internal/domain"
	"github.com/brianjwalters/graphrag-service/internal/service"
)

// SearchRepository executes the four named similarity operations against the
// backing store. The similarity computation itself runs inside the data
// store; this client only addresses it and scans rows.
type SearchRepository struct {
	pool *pgxpool.Pool
}

// NewSearchRepository creates a backing-store search client
func NewSearchRepository(pool *pgxpool.Pool) *SearchRepository {
	return &SearchRepository{pool: pool}
}

// allowed filter columns; anything else is ignored rather than interpolated
var filterColumns = map[string]string{
	"document_id":  "document_id",
	"jurisdiction": "jurisdiction",
	"case_type":    "case_type",
	"entity_type":  "entity_type",
}

func filterClause(filters map[string]string, args *[]interface{}) string {
	var b strings.Builder
	for key, value := range filters {
		col, ok := filterColumns[key]
		if !ok {
			continue
		}
		*args = append(*args, value)
		fmt.Fprintf(&b, " AND %s = $%d", col, len(*args))
	}
	return b.String()
}

// SearchChunksSemantic runs a pure similarity lookup over the tenant's
// chunks, ordered by similarity descending and capped at limit.
func (r *SearchRepository) SearchChunksSemantic(ctx context.Context, embedding []float32, params service.SearchParams) ([]domain.SearchResult, error) {
	vec := pgvector.NewVector(embedding)

	args := []interface{}{vec, params.TenantID, params.Threshold}
	query := `
		SELECT id, content, document_id, community_id, entity_id, entity_type,
		       1.0 / (1.0 + (embedding <=> $1)) AS score,
		       created_at
		FROM graph_chunks
		WHERE tenant_id = $2
		  AND embedding IS NOT NULL
		  AND 1.0 / (1.0 + (embedding <=> $1)) >= $3`
	query += filterClause(params.Filters, &args)
	args = append(args, params.Limit)
	query += fmt.Sprintf(`
		ORDER BY score DESC
		LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunkRows(rows, domain.SearchTypeSemantic, nil)
}

// SearchChunksHybrid runs one backing-store call returning RRF-ranked
// candidates with separate semantic and keyword sub-scores. Combining the
// sub-scores with the hybrid weight is the engine's job.
func (r *SearchRepository) SearchChunksHybrid(ctx context.Context, embedding []float32, queryText string, params service.SearchParams) ([]domain.SearchResult, error) {
	vec := pgvector.NewVector(embedding)

	// Threshold applies to the combined score, which only the engine can
	// compute once the hybrid weight is applied; no threshold predicate here.
	args := []interface{}{vec, params.TenantID, queryText}
	query := `
		WITH semantic AS (
			SELECT id, 1.0 / (1.0 + (embedding <=> $1)) AS semantic_score,
			       ROW_NUMBER() OVER (ORDER BY embedding <=> $1) AS rank
			FROM graph_chunks
			WHERE tenant_id = $2 AND embedding IS NOT NULL
			ORDER BY embedding <=> $1
			LIMIT 200
		), keyword AS (
			SELECT id, ts_rank(search_tsv, websearch_to_tsquery('english', $3)) AS keyword_score,
			       ROW_NUMBER() OVER (ORDER BY ts_rank(search_tsv, websearch_to_tsquery('english', $3)) DESC) AS rank
			FROM graph_chunks
			WHERE tenant_id = $2
			  AND search_tsv @@ websearch_to_tsquery('english', $3)
			ORDER BY keyword_score DESC
			LIMIT 200
		)
		SELECT c.id, c.content, c.document_id, c.community_id, c.entity_id, c.entity_type,
		       COALESCE(s.semantic_score, 0) AS semantic_score,
		       COALESCE(LEAST(k.keyword_score, 1.0), 0) AS keyword_score,
		       COALESCE(1.0 / (60 + s.rank), 0) + COALESCE(1.0 / (60 + k.rank), 0) AS rrf_score,
		       c.created_at
		FROM graph_chunks c
		LEFT JOIN semantic s ON s.id = c.id
		LEFT JOIN keyword k ON k.id = c.id
		WHERE c.tenant_id = $2
		  AND (s.id IS NOT NULL OR k.id IS NOT NULL)`
	query += filterClause(params.Filters, &args)
	args = append(args, params.Limit)
	query += fmt.Sprintf(`
		ORDER BY rrf_score DESC
		LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHybridRows(rows)
}

// SearchCommunityScoped runs the semantic lookup restricted to a single
// community when one is named; with no community it is unrestricted.
func (r *SearchRepository) SearchCommunityScoped(ctx context.Context, embedding []float32, communityID string, params service.SearchParams) ([]domain.SearchResult, error) {
	vec := pgvector.NewVector(embedding)

	args := []interface{}{vec, params.TenantID, params.Threshold}
	query := `
		SELECT id, content, document_id, community_id, entity_id, entity_type,
		       1.0 / (1.0 + (embedding <=> $1)) AS score,
		       created_at
		FROM graph_chunks
		WHERE tenant_id = $2
		  AND embedding IS NOT NULL
		  AND 1.0 / (1.0 + (embedding <=> $1)) >= $3`
	if communityID != "" {
		args = append(args, communityID)
		query += fmt.Sprintf(" AND community_id = $%d", len(args))
	}
	query += filterClause(params.Filters, &args)
	args = append(args, params.Limit)
	query += fmt.Sprintf(`
		ORDER BY score DESC
		LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunkRows(rows, domain.SearchTypeLocal, nil)
}

// SearchGlobal searches the full tenant corpus without community
// restriction, returning community ids and entity mentions on each row.
func (r *SearchRepository) SearchGlobal(ctx context.Context, embedding []float32, params service.SearchParams) ([]domain.SearchResult, error) {
	vec := pgvector.NewVector(embedding)

	args := []interface{}{vec, params.TenantID, params.Threshold}
	query := `
		SELECT id, content, document_id, community_id, entity_id, entity_type,
		       1.0 / (1.0 + (embedding <=> $1)) AS score,
		       created_at
		FROM graph_chunks
		WHERE tenant_id = $2
		  AND embedding IS NOT NULL
		  AND 1.0 / (1.0 + (embedding <=> $1)) >= $3`
	query += filterClause(params.Filters, &args)
	args = append(args, params.Limit)
	query += fmt.Sprintf(`
		ORDER BY score DESC
		LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunkRows(rows, domain.SearchTypeGlobal, nil)
}

func scanChunkRows(rows pgx.Rows, searchType domain.SearchType, matched []string) ([]domain.SearchResult, error) {
	results := make([]domain.SearchResult, 0)
	for rows.Next() {
		var (
			result                                       domain.SearchResult
			documentID, communityID, entityID, entityTyp *string
			createdAt                                    time.Time
		)
		if err := rows.Scan(&result.ID, &result.Content, &documentID, &communityID, &entityID, &entityTyp, &result.Score, &createdAt); err != nil {
			return nil, err
		}
		result.SearchType = searchType
		result.CreatedAt = createdAt
		result.MatchedFields = matched
		result.Metadata = chunkMetadata(documentID, communityID, entityID, entityTyp)
		results = append(results, result)
	}
	return results, rows.Err()
}

func scanHybridRows(rows pgx.Rows) ([]domain.SearchResult, error) {
	results := make([]domain.SearchResult, 0)
	for rows.Next() {
		var (
			result                                       domain.SearchResult
			documentID, communityID, entityID, entityTyp *string
			semanticScore, keywordScore, rrfScore        float64
			createdAt                                    time.Time
		)
		if err := rows.Scan(&result.ID, &result.Content, &documentID, &communityID, &entityID, &entityTyp, &semanticScore, &keywordScore, &rrfScore, &createdAt); err != nil {
			return nil, err
		}
		result.SearchType = domain.SearchTypeHybrid
		result.Score = rrfScore
		result.CreatedAt = createdAt
		result.Metadata = chunkMetadata(documentID, communityID, entityID, entityTyp)
		result.Metadata[domain.MetadataKeySemanticScore] = fmt.Sprintf("%.6f", semanticScore)
		result.Metadata[domain.MetadataKeyKeywordScore] = fmt.Sprintf("%.6f", keywordScore)
		results = append(results, result)
	}
	return results, rows.Err()
}

func chunkMetadata(documentID, communityID, entityID, entityType *string) map[string]string {
	md := make(map[string]string, 4)
	if documentID != nil && *documentID != "" {
		md[domain.MetadataKeyDocumentID] = *documentID
	}
	if communityID != nil && *communityID != "" {
		md[domain.MetadataKeyCommunityID] = *communityID
	}
	if entityID != nil && *entityID != "" {
		md[domain.MetadataKeyEntityID] = *entityID
	}
	if entityType != nil && *entityType != "" {
		md[domain.MetadataKeyEntityType] = *entityType
	}
	return md
}
