package admin

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brianjwalters/graphrag-service/internal/api/handlers"
	"github.com/brianjwalters/graphrag-service/internal/cache"
	"github.com/brianjwalters/graphrag-service/internal/config"
	"github.com/brianjwalters/graphrag-service/internal/contextsvc"
	"github.com/brianjwalters/graphrag-service/internal/domain"
	"github.com/brianjwalters/graphrag-service/internal/embedding"
	"github.com/brianjwalters/graphrag-service/internal/metrics"
	"github.com/brianjwalters/graphrag-service/internal/openai"
	"github.com/brianjwalters/graphrag-service/internal/repository"
	"github.com/brianjwalters/graphrag-service/internal/server"
	"github.com/brianjwalters/graphrag-service/internal/service"
	"github.com/brianjwalters/graphrag-service/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the graphrag API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			logger.Warn("telemetry init failed, continuing without tracing", zap.Error(err))
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("connected to database")

	metrics.Register()

	if !cfg.HasOpenAI() {
		return domain.ErrNoEmbeddingProvider
	}

	embeddingCache := cache.New[[]float32]("embedding", cfg.EmbeddingCacheSize, cfg.EmbeddingCacheTTL, metrics.CacheTotal, logger)
	resultCache := cache.New[*domain.AggregateSearchResult]("result", cfg.ResultCacheSize, cfg.ResultCacheTTL, metrics.CacheTotal, logger)

	embeddingClient := openai.NewClientWithConfig(openai.Config{
		APIKey:         cfg.OpenAIAPIKey,
		EmbeddingModel: cfg.EmbeddingModel,
	})
	embedder := embedding.NewCached(embeddingClient, embeddingCache, logger)

	searchRepo := repository.NewSearchRepository(pool)
	searchSvc := service.NewSearchService(searchRepo, embedder, resultCache, logger)

	var contextClient service.ContextProvider
	if cfg.HasContextService() {
		client, err := contextsvc.New(contextsvc.Config{
			BaseURL: cfg.ContextServiceURL,
			Timeout: cfg.ContextTimeout,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create context service client: %w", err)
		}
		contextClient = client
		logger.Info("context service configured", zap.String("url", cfg.ContextServiceURL))
	} else {
		logger.Warn("no context service configured, queries run retrieval-only")
	}

	ragSvc := service.NewRAGService(searchSvc, contextClient, service.NewRuleClassifier(), logger)

	router := server.NewRouter(server.RouterConfig{
		SearchHandler: handlers.NewSearchHandler(searchSvc),
		RAGHandler:    handlers.NewRAGHandler(ragSvc),
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
