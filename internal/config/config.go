// Package config provides application configuration.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string

	// LLM
	UseMockLLM   bool
	GeminiAPIKey string
	GCPProjectID string
	GCPLocation  string
	ModelName    string

	// Storage
	StorageBackend  string // "memory", "firestore" or "sqlite"
	DBPath          string // sqlite only
	DefaultLanguage string
}

// Load reads configuration from the environment, honoring a local .env file
// when present.
func Load() (*Config, error) {
	// A missing .env is fine; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "*"),

		UseMockLLM:   getEnvBool("INTAKE_USE_MOCK_LLM", false),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GCPProjectID: getEnv("INTAKE_GCP_PROJECT", ""),
		GCPLocation:  getEnv("INTAKE_GCP_LOCATION", "us-central1"),
		ModelName:    getEnv("INTAKE_MODEL_NAME", "gemini-2.5-flash"),

		StorageBackend:  getEnv("INTAKE_STORAGE_BACKEND", "memory"),
		DBPath:          getEnv("INTAKE_DB_PATH", "./data/intake.db"),
		DefaultLanguage: getEnv("INTAKE_DEFAULT_LANGUAGE", "en"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the backend selections against their required settings.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	switch c.StorageBackend {
	case "memory":
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("INTAKE_DB_PATH is required for the sqlite backend")
		}
	case "firestore":
		if c.GCPProjectID == "" {
			return fmt.Errorf("INTAKE_GCP_PROJECT is required for the firestore backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}

	if !c.UseMockLLM && c.GeminiAPIKey == "" && c.GCPProjectID == "" {
		return fmt.Errorf("either GEMINI_API_KEY or INTAKE_GCP_PROJECT must be set (or enable INTAKE_USE_MOCK_LLM)")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "":
		return def
	case "1", "true", "TRUE":
		return true
	}
	return false
}
