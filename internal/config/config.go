package config

import (
	"log/slog"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration for all services.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Upload limits
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"` // 10MB in bytes

	// Chunking bounds in characters
	ChunkMinChars int `env:"CHUNK_MIN_CHARS" envDefault:"40"`
	ChunkMaxChars int `env:"CHUNK_MAX_CHARS" envDefault:"160"`

	// Store
	StoreProvider string `env:"STORE_PROVIDER" envDefault:"postgres"` // "postgres" or "bolt"
	DBURL         string `env:"DB_URL"`
	BoltPath      string `env:"BOLT_PATH" envDefault:"prompt-gen.db"`

	// Queue
	QueueProvider string `env:"QUEUE_PROVIDER" envDefault:"nats"`
	QueueURL      string `env:"QUEUE_URL"`

	// Cache
	RedisAddr     string `env:"REDIS_ADDR"` // empty disables caching
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"2"` // seconds; progress polls are short-lived

	// LLM
	LLMProvider    string `env:"LLM_PROVIDER" envDefault:"openai"` // "openai", "anthropic" or "stub"
	OpenAIKey      string `env:"OPENAI_API_KEY"`
	AnthropicKey   string `env:"ANTHROPIC_API_KEY"`
	LLMModel       string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	AnthropicModel string `env:"ANTHROPIC_MODEL"`

	// Generation
	MaxWorkers int `env:"MAX_WORKERS" envDefault:"10"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
