package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	OpenAIAPIKey   string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL"`

	ContextServiceURL string        `envconfig:"CONTEXT_SERVICE_URL"`
	ContextTimeout    time.Duration `envconfig:"CONTEXT_TIMEOUT" default:"3s"`

	// Bounded in-memory caches for query embeddings and search results
	EmbeddingCacheSize int           `envconfig:"EMBEDDING_CACHE_SIZE" default:"1000"`
	EmbeddingCacheTTL  time.Duration `envconfig:"EMBEDDING_CACHE_TTL" default:"1h"`
	ResultCacheSize    int           `envconfig:"RESULT_CACHE_SIZE" default:"1000"`
	ResultCacheTTL     time.Duration `envconfig:"RESULT_CACHE_TTL" default:"15m"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("GRAPHRAG", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasContextService() bool {
	return c.ContextServiceURL != ""
}
