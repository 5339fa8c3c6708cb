// Package metrics exposes Prometheus instrumentation for the search engine
// and the RAG orchestrator.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "graphrag",
			Name:      "search_duration_seconds",
			Help:      "Vector search duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"search_type", "status"},
	)

	SearchResultsReturned = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "graphrag",
			Name:      "search_results_returned",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		},
		[]string{"search_type"},
	)

	RAGQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "graphrag",
			Name:      "rag_query_duration_seconds",
			Help:      "End-to-end RAG query duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"mode", "intent"},
	)

	ContextFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "graphrag",
			Name:      "context_failures_total",
			Help:      "Context service failures that degraded to empty context",
		},
		[]string{"mode"},
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "graphrag",
			Name:      "cache_total",
			Help:      "Cache hits and misses by cache name",
		},
		[]string{"cache", "result"}, // result: "hit" / "miss"
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "graphrag",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)
)

var registered bool

// Register registers all engine metrics. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchResultsReturned)
	prometheus.MustRegister(RAGQueryDuration)
	prometheus.MustRegister(ContextFailuresTotal)
	prometheus.MustRegister(CacheTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	registered = true
}
