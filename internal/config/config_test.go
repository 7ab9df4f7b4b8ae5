package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("INTAKE_USE_MOCK_LLM", "1")
	t.Setenv("PORT", "8080")
	t.Setenv("INTAKE_STORAGE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.StorageBackend)
	assert.Equal(t, "en", cfg.DefaultLanguage)
	assert.True(t, cfg.UseMockLLM)
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := &Config{Port: "8080", StorageBackend: "cassandra", UseMockLLM: true}

	assert.Error(t, cfg.Validate())
}

func TestValidateFirestoreNeedsProject(t *testing.T) {
	cfg := &Config{Port: "8080", StorageBackend: "firestore", UseMockLLM: true}
	require.Error(t, cfg.Validate())

	cfg.GCPProjectID = "demo-project"
	assert.NoError(t, cfg.Validate())
}

func TestValidateSqliteNeedsPath(t *testing.T) {
	cfg := &Config{Port: "8080", StorageBackend: "sqlite", UseMockLLM: true}
	require.Error(t, cfg.Validate())

	cfg.DBPath = "/tmp/intake.db"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRequiresSomeLLMCredentials(t *testing.T) {
	cfg := &Config{Port: "8080", StorageBackend: "memory"}
	require.Error(t, cfg.Validate())

	cfg.GeminiAPIKey = "key"
	assert.NoError(t, cfg.Validate())
}
