//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brianjwalters/graphrag-service/internal/domain"
	"github.com/brianjwalters/graphrag-service/internal/service"
	"github.com/brianjwalters/graphrag-service/internal/testutil"
)

// testVector builds a 1536-dim unit-ish vector dominated by one axis, so
// cosine distance between different axes is large and stable.
func testVector(axis int) []float32 {
	vec := make([]float32, 1536)
	for i := range vec {
		vec[i] = 0.001
	}
	vec[axis] = 1.0
	return vec
}

type chunkRow struct {
	tenantID     string
	documentID   string
	communityID  string
	entityID     string
	entityType   string
	jurisdiction string
	content      string
	embedding    []float32
}

func insertChunk(ctx context.Context, t *testing.T, pool *pgxpool.Pool, row chunkRow) string {
	id := uuid.NewString()
	_, err := pool.Exec(ctx, `
		INSERT INTO graph_chunks (id, tenant_id, document_id, community_id, entity_id, entity_type, jurisdiction, content, embedding)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9)`,
		id, row.tenantID, row.documentID, row.communityID, row.entityID, row.entityType, row.jurisdiction, row.content, pgvector.NewVector(row.embedding))
	require.NoError(t, err)
	return id
}

func TestSearchRepositoryIntegration(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc)
	defer pool.Close()

	repo := NewSearchRepository(pool)

	seed := func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))
		insertChunk(ctx, t, pool, chunkRow{
			tenantID: "t1", documentID: "doc-1", communityID: "c1",
			entityID: "judge-1", entityType: "judge", jurisdiction: "California",
			content:   "The court granted summary judgment on the negligence claim.",
			embedding: testVector(0),
		})
		insertChunk(ctx, t, pool, chunkRow{
			tenantID: "t1", documentID: "doc-2", communityID: "c2",
			jurisdiction: "New York",
			content:      "The arbitration clause was held unconscionable.",
			embedding:    testVector(1),
		})
		insertChunk(ctx, t, pool, chunkRow{
			tenantID: "t2", documentID: "doc-3", communityID: "c1",
			content:   "An unrelated tenant's chunk about summary judgment.",
			embedding: testVector(0),
		})
	}

	t.Run("semantic search is tenant scoped and ranked", func(t *testing.T) {
		seed(t)

		results, err := repo.SearchChunksSemantic(ctx, testVector(0), service.SearchParams{
			TenantID: "t1",
			Limit:    10,
		})
		require.NoError(t, err)
		require.Len(t, results, 2)
		// the chunk sharing the query axis ranks first
		assert.Contains(t, results[0].Content, "summary judgment")
		assert.Greater(t, results[0].Score, results[1].Score)
		for _, r := range results {
			assert.NotEqual(t, "doc-3", r.Metadata[domain.MetadataKeyDocumentID])
		}
	})

	t.Run("semantic search applies threshold", func(t *testing.T) {
		seed(t)

		results, err := repo.SearchChunksSemantic(ctx, testVector(0), service.SearchParams{
			TenantID:  "t1",
			Threshold: 0.9,
			Limit:     10,
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
	})

	t.Run("semantic search applies jurisdiction filter", func(t *testing.T) {
		seed(t)

		results, err := repo.SearchChunksSemantic(ctx, testVector(0), service.SearchParams{
			TenantID: "t1",
			Filters:  map[string]string{"jurisdiction": "New York"},
			Limit:    10,
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Contains(t, results[0].Content, "arbitration")
	})

	t.Run("unknown filter keys are ignored", func(t *testing.T) {
		seed(t)

		results, err := repo.SearchChunksSemantic(ctx, testVector(0), service.SearchParams{
			TenantID: "t1",
			Filters:  map[string]string{"evil; DROP TABLE graph_chunks;--": "x"},
			Limit:    10,
		})
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("hybrid search returns sub-scores", func(t *testing.T) {
		seed(t)

		results, err := repo.SearchChunksHybrid(ctx, testVector(0), "summary judgment", service.SearchParams{
			TenantID: "t1",
			Limit:    10,
		})
		require.NoError(t, err)
		require.NotEmpty(t, results)

		top := results[0]
		assert.Equal(t, domain.SearchTypeHybrid, top.SearchType)
		assert.NotEmpty(t, top.Metadata[domain.MetadataKeySemanticScore])
		assert.NotEmpty(t, top.Metadata[domain.MetadataKeyKeywordScore])
		assert.Contains(t, top.Content, "summary judgment")
	})

	t.Run("community scoped search restricts to one community", func(t *testing.T) {
		seed(t)

		results, err := repo.SearchCommunityScoped(ctx, testVector(0), "c2", service.SearchParams{
			TenantID: "t1",
			Limit:    10,
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "c2", results[0].Metadata[domain.MetadataKeyCommunityID])
	})

	t.Run("community scoped without community is unrestricted", func(t *testing.T) {
		seed(t)

		results, err := repo.SearchCommunityScoped(ctx, testVector(0), "", service.SearchParams{
			TenantID: "t1",
			Limit:    10,
		})
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("global search surfaces entity metadata", func(t *testing.T) {
		seed(t)

		results, err := repo.SearchGlobal(ctx, testVector(0), service.SearchParams{
			TenantID: "t1",
			Limit:    10,
		})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "judge-1", results[0].Metadata[domain.MetadataKeyEntityID])
		assert.Equal(t, "judge", results[0].Metadata[domain.MetadataKeyEntityType])
	})

	t.Run("limit caps results", func(t *testing.T) {
		seed(t)
		for i := 0; i < 5; i++ {
			insertChunk(ctx, t, pool, chunkRow{
				tenantID:  "t1",
				content:   fmt.Sprintf("filler chunk %d", i),
				embedding: testVector(2 + i),
			})
		}

		results, err := repo.SearchChunksSemantic(ctx, testVector(0), service.SearchParams{
			TenantID: "t1",
			Limit:    3,
		})
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})
}
