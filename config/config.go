package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerHost  string
	ServerPort  string
	CORSOrigins []string

	// Database configuration
	DBDriver    string
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	SQLitePath  string
	AutoMigrate bool
	Migrations  string

	// Redis configuration
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Nutrition data source
	USDAAPIKey  string
	USDAAPIURL  string
	USDATimeout time.Duration

	// Generative model
	LLMAPIKey   string
	LLMAPIURL   string
	LLMModel    string
	VisionModel string
	LLMTimeout  time.Duration

	// Embeddings
	EmbeddingProvider   string
	EmbeddingAPIKey     string
	EmbeddingAPIURL     string
	EmbeddingModel      string
	EmbeddingDimensions int
	EmbeddingCacheTTL   time.Duration

	// Pipeline tuning
	RecipeTopK        int
	LookupConcurrency int
	IngestBatchSize   int
	IngestMaxRecords  int

	// Object storage for ingestion sources
	S3BucketName string
	AWSRegion    string

	// Logging
	LogLevel  string
	LogFormat string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://frontend:5173")

	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "nutritionist")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("SQLITE_PATH", "nutritionist.db")
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("MIGRATIONS_DIR", "migrations")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("USDA_API_URL", "https://api.nal.usda.gov/fdc/v1")
	v.SetDefault("USDA_TIMEOUT", "10s")

	v.SetDefault("LLM_API_URL", "https://generativelanguage.googleapis.com/v1beta/openai")
	v.SetDefault("LLM_MODEL", "gemini-2.5-flash")
	v.SetDefault("VISION_MODEL", "gemini-2.5-flash")
	v.SetDefault("LLM_TIMEOUT", "60s")

	v.SetDefault("EMBEDDING_PROVIDER", "hash")
	v.SetDefault("EMBEDDING_API_URL", "https://api.openai.com/v1")
	v.SetDefault("EMBEDDING_MODEL", "text-embedding-3-small")
	v.SetDefault("EMBEDDING_DIMENSIONS", 384)
	v.SetDefault("EMBEDDING_CACHE_TTL", "168h")

	v.SetDefault("RECIPE_TOP_K", 5)
	v.SetDefault("LOOKUP_CONCURRENCY", 4)
	v.SetDefault("INGEST_BATCH_SIZE", 1000)
	v.SetDefault("INGEST_MAX_RECORDS", 80000)

	v.SetDefault("S3_BUCKET_NAME", "nutritionist-datasets")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// LoadConfig reads configuration from an optional .env file, the process
// environment and the secrets directory, then validates it.
func LoadConfig() (*Config, error) {
	// A missing .env file is fine; the environment may already be populated.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Environment: GetEnvironment(),

		ServerHost:  v.GetString("SERVER_HOST"),
		ServerPort:  v.GetString("SERVER_PORT"),
		CORSOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		DBDriver:    strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseURL: v.GetString("DATABASE_URL"),
		DBHost:      v.GetString("DB_HOST"),
		DBPort:      v.GetString("DB_PORT"),
		DBUser:      secretOrEnv(v, "db_user", "DB_USER"),
		DBPassword:  secretOrEnv(v, "db_password", "DB_PASSWORD"),
		DBName:      v.GetString("DB_NAME"),
		DBSSLMode:   v.GetString("DB_SSL_MODE"),
		SQLitePath:  v.GetString("SQLITE_PATH"),
		AutoMigrate: v.GetBool("AUTO_MIGRATE"),
		Migrations:  v.GetString("MIGRATIONS_DIR"),

		RedisURL:      v.GetString("REDIS_URL"),
		RedisHost:     v.GetString("REDIS_HOST"),
		RedisPort:     v.GetString("REDIS_PORT"),
		RedisPassword: secretOrEnv(v, "redis_password", "REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		USDAAPIKey:  secretOrEnv(v, "usda_api_key", "USDA_API_KEY"),
		USDAAPIURL:  v.GetString("USDA_API_URL"),
		USDATimeout: v.GetDuration("USDA_TIMEOUT"),

		LLMAPIKey:   secretOrEnv(v, "llm_api_key", "LLM_API_KEY"),
		LLMAPIURL:   v.GetString("LLM_API_URL"),
		LLMModel:    v.GetString("LLM_MODEL"),
		VisionModel: v.GetString("VISION_MODEL"),
		LLMTimeout:  v.GetDuration("LLM_TIMEOUT"),

		EmbeddingProvider:   strings.ToLower(v.GetString("EMBEDDING_PROVIDER")),
		EmbeddingAPIKey:     secretOrEnv(v, "embedding_api_key", "EMBEDDING_API_KEY"),
		EmbeddingAPIURL:     v.GetString("EMBEDDING_API_URL"),
		EmbeddingModel:      v.GetString("EMBEDDING_MODEL"),
		EmbeddingDimensions: v.GetInt("EMBEDDING_DIMENSIONS"),
		EmbeddingCacheTTL:   v.GetDuration("EMBEDDING_CACHE_TTL"),

		RecipeTopK:        v.GetInt("RECIPE_TOP_K"),
		LookupConcurrency: v.GetInt("LOOKUP_CONCURRENCY"),
		IngestBatchSize:   v.GetInt("INGEST_BATCH_SIZE"),
		IngestMaxRecords:  v.GetInt("INGEST_MAX_RECORDS"),

		S3BucketName: v.GetString("S3_BUCKET_NAME"),
		AWSRegion:    v.GetString("AWS_REGION"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// PostgresDSN builds the connection string for the postgres driver. An explicit
// DATABASE_URL wins over the individual DB_* settings.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// splitList parses a comma-separated setting, dropping empty entries
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// secretOrEnv prefers the environment variable and falls back to a Docker secret
func secretOrEnv(v *viper.Viper, secret, env string) string {
	if value := v.GetString(env); value != "" {
		return value
	}
	return readSecret(secret)
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
