package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port        string
	Environment string

	// Database
	DatabaseURL string
	RedisURL    string

	// OpenAI
	OpenAIAPIKey   string
	ClassifyModel  string
	ExtractModel   string
	LLMMaxTokens   int
	LLMTemperature float64
	LLMTimeoutSec  int

	// Gmail OAuth (refresh-token flow, single mailbox)
	GmailClientID     string
	GmailClientSecret string
	GmailRefreshToken string

	// Pipeline
	SyncMarginHours    int
	PipelineMaxResults int

	// Portal (Clickedu)
	PortalBaseURL      string
	PortalUsername     string
	PortalPassword     string
	PortalPassfile     string
	RosterMinExpected  int
	RosterLockTTLSec   int
	PipelineLockTTLSec int

	// S3 document store
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		// OpenAI
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		ClassifyModel:  getEnv("CLASSIFY_MODEL", "gpt-4o-mini"),
		ExtractModel:   getEnv("EXTRACT_MODEL", "gpt-4o"),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 4096),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0),
		LLMTimeoutSec:  getEnvInt("LLM_TIMEOUT_SEC", 120),

		// Gmail
		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		// Pipeline
		SyncMarginHours:    getEnvInt("SYNC_MARGIN_HOURS", 24),
		PipelineMaxResults: getEnvInt("PIPELINE_MAX_RESULTS", 10000),

		// Portal
		PortalBaseURL:      getEnv("PORTAL_BASE_URL", "https://escolaelturo.clickedu.eu"),
		PortalUsername:     getEnv("PORTAL_USERNAME", ""),
		PortalPassword:     getEnv("PORTAL_PASSWORD", ""),
		PortalPassfile:     getEnv("PORTAL_PASSFILE", ""),
		RosterMinExpected:  getEnvInt("ROSTER_MIN_EXPECTED", 250),
		RosterLockTTLSec:   getEnvInt("ROSTER_LOCK_TTL_SEC", 600),
		PipelineLockTTLSec: getEnvInt("PIPELINE_LOCK_TTL_SEC", 3600),

		// S3
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3Region:    getEnv("S3_REGION", "eu-west-1"),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3Bucket:    getEnv("S3_BUCKET", "documents"),
		S3UseSSL:    getEnvBool("S3_USE_SSL", true),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
