// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServiceName        string

	// Completion engine settings
	LLMProvider     string
	LLMModel        string
	LLMBaseURL      string
	LLMMaxTokens    int
	LLMTemperature  float64
	LLMTimeout      time.Duration
	OpenAIAPIKey    string
	AnthropicAPIKey string
	GeminiAPIKey    string

	// Analyzer settings
	AnalyzerBackend     string
	AnalyzerCommand     []string
	AnalyzerOCRBackend  string
	AnalyzerNATSSubject string
	AnalyzerTimeout     time.Duration
	AnalyzerCacheSize   int

	// Upload handling
	UploadMaxBytes int64
	UploadTempDir  string

	// NATS settings
	NATSURL       string
	NATSCAFile    string
	NATSCertFile  string
	NATSKeyFile   string
	NATSToken     string
	DraftsEnabled bool

	// HTTP boundary
	CORSAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables. Values from the file
// named by ENV_FILE (default ".env") are loaded first when it exists; real
// environment variables win.
func Load() *Config {
	envFile := getEnv("ENV_FILE", ".env")
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "5001"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 180*time.Second),
		ServiceName:        getEnv("SERVICE_NAME", "Banner Analyzer API"),

		// Completion engine
		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", "ollama")),
		LLMModel:        getEnv("LLM_MODEL", ""),
		LLMBaseURL:      getEnv("LLM_BASE_URL", "http://localhost:11434/v1"),
		LLMMaxTokens:    getIntEnv("LLM_MAX_TOKENS", 2048),
		LLMTemperature:  getFloatEnv("LLM_TEMPERATURE", 0.2),
		LLMTimeout:      getDurationEnv("LLM_TIMEOUT", 120*time.Second),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),

		// Analyzer
		AnalyzerBackend:     strings.ToLower(getEnv("ANALYZER_BACKEND", "command")),
		AnalyzerCommand:     strings.Fields(getEnv("ANALYZER_COMMAND", "python3 banner_analyzer.py")),
		AnalyzerOCRBackend:  getEnv("ANALYZER_OCR_BACKEND", "easy"),
		AnalyzerNATSSubject: getEnv("ANALYZER_NATS_SUBJECT", "banner.analyze"),
		AnalyzerTimeout:     getDurationEnv("ANALYZER_TIMEOUT", 60*time.Second),
		AnalyzerCacheSize:   getIntEnv("ANALYZER_CACHE_SIZE", 128),

		// Uploads
		UploadMaxBytes: getInt64Env("UPLOAD_MAX_BYTES", 10<<20),
		UploadTempDir:  getEnv("UPLOAD_TEMP_DIR", ""),

		// NATS
		NATSURL:       getEnv("NATS_URL", ""),
		NATSCAFile:    getEnv("NATS_CA_FILE", ""),
		NATSCertFile:  getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:   getEnv("NATS_KEY_FILE", ""),
		NATSToken:     getEnv("NATS_TOKEN", ""),
		DraftsEnabled: getBoolEnv("DRAFTS_ENABLED", false),

		// HTTP boundary
		CORSAllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRequests:  getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:    getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// NATSEnabled reports whether a NATS server is configured.
func (c *Config) NATSEnabled() bool {
	return c.NATSURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
