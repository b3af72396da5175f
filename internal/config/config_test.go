package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg := Load()

	assert.Equal(t, "5001", cfg.ServerPort)
	assert.Equal(t, "ollama", cfg.LLMProvider)
	assert.Empty(t, cfg.LLMModel)
	assert.Equal(t, "http://localhost:11434/v1", cfg.LLMBaseURL)
	assert.Equal(t, []string{"python3", "banner_analyzer.py"}, cfg.AnalyzerCommand)
	assert.Equal(t, int64(10<<20), cfg.UploadMaxBytes)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.NATSEnabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("PORT", "9090")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("LLM_TEMPERATURE", "0.7")
	t.Setenv("ANALYZER_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("NATS_URL", "nats://nats:4222")
	t.Setenv("RATE_LIMIT_REQUESTS", "not-a-number")

	cfg := Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.InDelta(t, 0.7, cfg.LLMTemperature, 1e-9)
	assert.Equal(t, 5*time.Second, cfg.AnalyzerTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.NATSEnabled())
	assert.Equal(t, 60, cfg.RateLimitRequests)
}

func TestLoad_ModelDefaultsToProvider(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("LLM_PROVIDER", "openai")

	cfg := Load()

	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Empty(t, cfg.LLMModel)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("ANALYZER_OCR_BACKEND=tesseract\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Cleanup(func() { os.Unsetenv("ANALYZER_OCR_BACKEND") })

	cfg := Load()

	assert.Equal(t, "tesseract", cfg.AnalyzerOCRBackend)
}
