package config

import (
	"os"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWKSURL     string
	CORSOrigins string
	TablePrefix string
	// Generation service configuration
	OpenAIAPIKey       string
	GenerationModel    string
	TranscriptionModel string
	// Provider is "openai" or "canned" (offline deterministic provider)
	Provider string
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWKSURL:     getEnv("JWKS_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getTablePrefix(env),
		// Generation service configuration
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		GenerationModel:    getEnv("GENERATION_MODEL", "gpt-4o-mini"),
		TranscriptionModel: getEnv("TRANSCRIPTION_MODEL", "whisper-1"),
		Provider:           getEnv("GENERATION_PROVIDER", defaultProvider(env)),
	}
}

// defaultProvider returns the default generation provider for an environment.
// Dev and test fall back to the offline provider so the server runs without
// an API key.
func defaultProvider(env string) string {
	if env == "prod" {
		return "openai"
	}
	return "canned"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
