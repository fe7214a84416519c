package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var supportedDrivers = map[string]bool{
	"postgres": true,
	"sqlite":   true,
}

// PgvectorDimensions is the width of recipes.embedding in the postgres schema.
const PgvectorDimensions = 384

var supportedEmbeddingProviders = map[string]bool{
	"hash":   true,
	"openai": true,
}

// ValidateConfig checks the configuration and reports every problem at once
func ValidateConfig(cfg *Config) error {
	var errors []string
	add := func(field, msg string) {
		errors = append(errors, ValidationError{Field: field, Message: msg}.Error())
	}

	if port, err := strconv.Atoi(cfg.ServerPort); err != nil || port <= 0 || port > 65535 {
		add("SERVER_PORT", fmt.Sprintf("invalid port %q", cfg.ServerPort))
	}
	if !supportedDrivers[cfg.DBDriver] {
		add("DATABASE_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver))
	}
	if cfg.DBDriver == "postgres" && cfg.DatabaseURL == "" && cfg.DBHost == "" {
		add("DB_HOST", "required when DATABASE_URL is not set")
	}
	if cfg.DBDriver == "sqlite" && cfg.SQLitePath == "" {
		add("SQLITE_PATH", "required for the sqlite driver")
	}
	if !supportedEmbeddingProviders[cfg.EmbeddingProvider] {
		add("EMBEDDING_PROVIDER", fmt.Sprintf("unsupported provider %q", cfg.EmbeddingProvider))
	}
	if cfg.EmbeddingProvider == "openai" && cfg.EmbeddingAPIKey == "" {
		add("EMBEDDING_API_KEY", "required for the openai embedding provider")
	}
	if cfg.EmbeddingDimensions <= 0 {
		add("EMBEDDING_DIMENSIONS", "must be positive")
	} else if cfg.DBDriver == "postgres" && cfg.EmbeddingDimensions != PgvectorDimensions {
		add("EMBEDDING_DIMENSIONS", fmt.Sprintf("must be %d for the postgres recipe schema, got %d", PgvectorDimensions, cfg.EmbeddingDimensions))
	}
	if cfg.RecipeTopK <= 0 {
		add("RECIPE_TOP_K", "must be positive")
	}
	if cfg.LookupConcurrency <= 0 {
		add("LOOKUP_CONCURRENCY", "must be positive")
	}
	if cfg.IngestBatchSize <= 0 {
		add("INGEST_BATCH_SIZE", "must be positive")
	}
	if cfg.USDATimeout <= 0 {
		add("USDA_TIMEOUT", "must be positive")
	}
	if cfg.Environment.RequiresExternalKeys() && cfg.USDAAPIKey == "" {
		add("USDA_API_KEY", "environment variable or usda_api_key secret is required")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}
