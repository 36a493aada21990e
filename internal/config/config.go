package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// ErrMissingKey is returned by Validate when a required setting is empty.
var ErrMissingKey = errors.New("required setting is not set")

// Env names for the settings Validate can require.
const (
	DartAPIKeyEnv   = "DART_API_KEY"
	OpenAIAPIKeyEnv = "OPENAI_API_KEY"
	DatabaseURLEnv  = "DATABASE_URL"
	RedisURLEnv     = "REDIS_URL"
)

// Config holds all configuration for the application
type Config struct {
	DatabaseURL  string // Consolidated DB Connection URL
	RedisURL     string
	DartAPIKey   string
	DataAPIKey   string // data.go.kr, optional. PER/PBR fall back to defaults without it
	OpenAIAPIKey string
	OpenAIModel  string
	CorpCodePath string
	Port         string
}

// LoadConfig reads configuration from environment variables (.env file)
func LoadConfig() (*Config, error) {
	// In production, env variables are often set directly.
	_ = godotenv.Load()

	return &Config{
		DatabaseURL:  getEnv(DatabaseURLEnv, ""),
		RedisURL:     getEnv(RedisURLEnv, ""),
		DartAPIKey:   getEnv(DartAPIKeyEnv, ""),
		DataAPIKey:   getEnv("DATA_API_KEY", ""),
		OpenAIAPIKey: getEnv(OpenAIAPIKeyEnv, ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		CorpCodePath: getEnv("CORPCODE_PATH", "CORPCODE.xml"),
		Port:         getEnv("PORT", "8080"),
	}, nil
}

// Validate checks that every named setting has a value.
func (c *Config) Validate(required ...string) error {
	for _, name := range required {
		if c.lookup(name) == "" {
			return fmt.Errorf("%s: %w", name, ErrMissingKey)
		}
	}
	return nil
}

func (c *Config) lookup(name string) string {
	switch name {
	case DartAPIKeyEnv:
		return c.DartAPIKey
	case OpenAIAPIKeyEnv:
		return c.OpenAIAPIKey
	case DatabaseURLEnv:
		return c.DatabaseURL
	case RedisURLEnv:
		return c.RedisURL
	}
	return os.Getenv(name)
}

// Helper function to get env var or return default
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
