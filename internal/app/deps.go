package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/v3"

	"github.com/punitarani/prompt-gen/internal/cache"
	"github.com/punitarani/prompt-gen/internal/config"
	"github.com/punitarani/prompt-gen/internal/llm"
	"github.com/punitarani/prompt-gen/internal/logger"
	"github.com/punitarani/prompt-gen/internal/queue"
	"github.com/punitarani/prompt-gen/internal/store"
)

// Deps bundles common runtime dependencies for services.
type Deps struct {
	Config config.Config
	Log    *slog.Logger
	Store  store.Store
	Queue  queue.Queue
	Cache  cache.Cache
	LLM    llm.Client
}

// Build loads env, config, and the components shared by every service
// (store, queue, cache).
func Build() (Deps, error) {
	_ = godotenv.Load() // .env is optional
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	st, err := buildStore(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	q, err := buildQueue(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	c, err := buildCache(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize cache: %w", err)
	}
	return Deps{
		Config: cfg,
		Log:    log,
		Store:  st,
		Queue:  q,
		Cache:  c,
	}, nil
}

// BuildGenerator is Build plus the LLM client the generator worker needs.
func BuildGenerator() (Deps, error) {
	deps, err := Build()
	if err != nil {
		return Deps{}, err
	}
	llmClient, err := BuildLLM(deps.Config, deps.Log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	deps.LLM = llmClient
	return deps, nil
}

func buildStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_PROVIDER=postgres")
		}
		db, err := store.NewPostgres(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres store")
		return db, nil
	case "bolt":
		db, err := store.NewBolt(cfg.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Bolt: %w", err)
		}
		log.Info("using Bolt store", "path", cfg.BoltPath)
		return db, nil
	default:
		return nil, fmt.Errorf("invalid STORE_PROVIDER: %s (valid options: postgres, bolt)", cfg.StoreProvider)
	}
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, error) {
	switch cfg.QueueProvider {
	case "nats":
		if cfg.QueueURL == "" {
			return nil, fmt.Errorf("QUEUE_URL is required when QUEUE_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		return queue.NewNATS(log, nc), nil
	default:
		return nil, fmt.Errorf("invalid QUEUE_PROVIDER: %s (valid option: nats)", cfg.QueueProvider)
	}
}

func buildCache(cfg config.Config, log *slog.Logger) (cache.Cache, error) {
	if cfg.RedisAddr == "" {
		log.Info("no REDIS_ADDR set; progress caching disabled")
		return cache.NewNoOpCache(), nil
	}
	c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		// A dead cache should not take the service down with it.
		log.Warn("redis unavailable; progress caching disabled", "err", err)
		return cache.NewNoOpCache(), nil
	}
	log.Info("using Redis cache", "addr", cfg.RedisAddr)
	return c, nil
}

// BuildLLM constructs the configured LLM provider.
func BuildLLM(cfg config.Config, log *slog.Logger) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
		client, err := llm.NewOpenAIClient(cfg.OpenAIKey, openai.ChatModel(cfg.LLMModel))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		log.Info("using OpenAI LLM client", "model", cfg.LLMModel)
		return client, nil
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required when LLM_PROVIDER=anthropic")
		}
		client, err := llm.NewAnthropicClient(cfg.AnthropicKey, cfg.AnthropicModel)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Anthropic client: %w", err)
		}
		log.Info("using Anthropic LLM client", "model", cfg.AnthropicModel)
		return client, nil
	case "stub":
		log.Info("using stub LLM client")
		return llm.NewStubClient(time.Now().UnixNano()), nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid options: openai, anthropic, stub)", cfg.LLMProvider)
	}
}
