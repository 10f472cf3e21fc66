package setup

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"arxiv-similarity-search/internal/config"
	"arxiv-similarity-search/internal/llm/bedrock"
	"arxiv-similarity-search/internal/models"
	"arxiv-similarity-search/internal/pipeline"
	redisconn "arxiv-similarity-search/internal/redis"
	"arxiv-similarity-search/internal/service"
	"arxiv-similarity-search/internal/session"
	"arxiv-similarity-search/internal/summarizer"
)

type Config struct {
	APIPort       string
	ConfigPath    string
	AWSRegion     string
	ClaudeModelID string
	SessionStore  string
	RedisAddr     string
	RedisPassword string
	MaxSessions   int
	SessionTTL    time.Duration
}

type Dependencies struct {
	Service   *service.Service
	AppConfig *config.Config
	Logger    *zerolog.Logger
}

func LoadConfig() *Config {
	return &Config{
		APIPort:       getEnv("API_PORT", "8000"),
		ConfigPath:    getEnv("CONFIG_PATH", "config.yaml"),
		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		ClaudeModelID: getEnv("CLAUDE_MODEL_ID", ""),
		SessionStore:  getEnv("SESSION_STORE", "memory"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		MaxSessions:   getEnvInt("SESSION_MAX_COUNT", 1000),
		SessionTTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),
	}
}

func Wire(ctx context.Context, cfg *Config, logger *zerolog.Logger) (*Dependencies, error) {
	appCfg, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := ensureDataDirs(appCfg); err != nil {
		return nil, fmt.Errorf("failed to create data directories: %w", err)
	}

	generator := createGenerator(ctx, cfg, logger)

	registry := pipeline.NewRegistry(func(mode models.Mode) (pipeline.Pipeline, error) {
		switch mode {
		case models.ModeArxiv:
			return pipeline.NewArxivPipeline(appCfg.Arxiv.MaxResults, appCfg.Reranking.TopK, generator, logger), nil
		case models.ModeLocal:
			return pipeline.NewLocalPipeline(appCfg.LocalDatabase.FolderPath, appCfg.Arxiv.MaxResults, appCfg.Reranking.TopK, generator, logger)
		default:
			return nil, fmt.Errorf("unknown mode %q", mode)
		}
	})

	store, err := createSessionStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		Service:   service.New(registry, store, logger),
		AppConfig: appCfg,
		Logger:    logger,
	}, nil
}

// createGenerator wires the Bedrock-backed summarizer. Summaries are an
// optional capability: with no model configured, or an unreachable Bedrock,
// search still works and summary requests fail with the summary failure code.
func createGenerator(ctx context.Context, cfg *Config, logger *zerolog.Logger) *summarizer.Generator {
	if cfg.ClaudeModelID == "" {
		logger.Warn().Msg("CLAUDE_MODEL_ID not set, summaries disabled")
		return nil
	}

	llmClient, err := bedrock.NewClient(ctx, cfg.AWSRegion, cfg.ClaudeModelID)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to create Bedrock client, summaries disabled")
		return nil
	}

	generator, err := summarizer.NewGenerator(llmClient, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to create summary generator, summaries disabled")
		return nil
	}
	return generator
}

func createSessionStore(ctx context.Context, cfg *Config) (session.Store, error) {
	switch cfg.SessionStore {
	case "redis":
		client, err := redisconn.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, 5)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		return session.NewRedisStore(client, cfg.SessionTTL), nil
	default:
		return session.NewMemoryStore(cfg.MaxSessions, cfg.SessionTTL), nil
	}
}

func ensureDataDirs(appCfg *config.Config) error {
	for _, dir := range []string{appCfg.LocalDatabase.FolderPath, appCfg.Paths.SamplePDFs} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		value = defaultValue
	}

	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		value = defaultValue
	}

	return value
}
