package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string
	APIPrefix     string

	// Business Settings
	BusinessType string

	// Session Store
	SessionBackend string // "memory" or "redis"
	SessionTTL     time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool

	// Optional Postgres archive for ended conversations
	DatabaseURL string

	// Knowledge Base
	KnowledgeBackend string // "file", "redis" or "none"
	KnowledgeFile    string

	// Twilio Settings
	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioPhoneNumber   string
	TwilioWebhookSecret string

	// Unknown-topic resolver (optional Gemini fallback)
	GeminiAPIKey  string
	GeminiModelID string

	// Speech settings (stub engines; kept for parity with deployments
	// that swap in a real transcriber)
	WhisperModel string
	TTSVoice     string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8000"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		APIPrefix:     getEnv("API_PREFIX", "/api/v1"),

		BusinessType: strings.ToLower(strings.TrimSpace(getEnv("BUSINESS_TYPE", "restaurant"))),

		SessionBackend: strings.ToLower(getEnv("SESSION_BACKEND", "memory")),
		SessionTTL:     getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		KnowledgeBackend: strings.ToLower(getEnv("KNOWLEDGE_BACKEND", "file")),
		KnowledgeFile:    getEnv("KNOWLEDGE_FILE", "knowledge.json"),

		TwilioAccountSID:    getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:     getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber:   getEnv("TWILIO_PHONE_NUMBER", ""),
		TwilioWebhookSecret: getEnv("TWILIO_WEBHOOK_SECRET", ""),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		WhisperModel: getEnv("WHISPER_MODEL", "base"),
		TTSVoice:     getEnv("TTS_VOICE", "en_US-amy-medium"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
