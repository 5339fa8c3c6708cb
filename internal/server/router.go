package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/brianjwalters/graphrag-service/internal/api"
	"github.com/brianjwalters/graphrag-service/internal/api/handlers"
	"github.com/brianjwalters/graphrag-service/internal/api/middleware"
	"github.com/brianjwalters/graphrag-service/internal/metrics"
)

type RouterConfig struct {
	SearchHandler *handlers.SearchHandler
	RAGHandler    *handlers.RAGHandler
	Logger        *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog(logger))
	r.Use(metrics.Middleware())
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/search", cfg.SearchHandler.Search)

		r.Route("/rag", func(r chi.Router) {
			r.Post("/query", cfg.RAGHandler.Query)
			r.Post("/contextual", cfg.RAGHandler.Contextual)
			r.Post("/precedent", cfg.RAGHandler.Precedent)
		})
	})

	return r
}
