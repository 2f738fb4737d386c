package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ChatStoreMemory   = "memory"
	ChatStoreRedis    = "redis"
	ChatStorePostgres = "postgres"
)

type Config struct {
	// Server
	Port        string
	Environment string

	// CORS
	CORSOrigins []string

	// Rate Limiting
	RateLimitRequests int
	RateLimitWindow   int
	RateLimitBurst    int
	ChatRateLimit     int

	// Features
	EnableMetrics bool

	// Site
	SiteVariant      string
	SiteVariantsFile string
	StaticDir        string
	ChatAPIBase      string

	// Completion backend
	LLMEndpoint      string
	LLMModelName     string
	LLMMaxTokens     int
	LLMTemperature   float64
	LLMTopP          float64
	LLMTopK          int
	LLMRepeatPenalty float64
	LLMTimeout       time.Duration
	SystemPrompt     string

	// Chat sessions
	ChatStore           string
	ChatHistoryWindow   int
	ChatSessionMaxAge   time.Duration
	ChatCleanupInterval time.Duration

	// Redis
	RedisURL string

	// Database
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	DatabaseURL string
}

func New() *Config {
	c := &Config{
		// Server
		Port:        getEnv("PORT", "8000"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// CORS
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "https://ai.drinfinityai.com,http://localhost:3000")),

		// Rate Limiting
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   getEnvAsInt("RATE_LIMIT_WINDOW", 60),
		RateLimitBurst:    getEnvAsInt("RATE_LIMIT_BURST", 0),
		ChatRateLimit:     getEnvAsInt("CHAT_RATE_LIMIT", 20),

		// Features
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),

		// Site
		SiteVariant:      getEnv("SITE_VARIANT", "drinfinity"),
		SiteVariantsFile: getEnv("SITE_VARIANTS_FILE", ""),
		StaticDir:        getEnv("STATIC_DIR", "./static"),
		ChatAPIBase:      getEnv("CHAT_API_BASE", "/api"),

		// Completion backend
		LLMEndpoint:      getEnv("LLM_ENDPOINT", "http://localhost:8080/completion"),
		LLMModelName:     getEnv("LLM_MODEL_NAME", "Dr. Infinity"),
		LLMMaxTokens:     getEnvAsInt("LLM_MAX_TOKENS", 1024),
		LLMTemperature:   getEnvAsFloat("LLM_TEMPERATURE", 0.7),
		LLMTopP:          getEnvAsFloat("LLM_TOP_P", 0.95),
		LLMTopK:          getEnvAsInt("LLM_TOP_K", 40),
		LLMRepeatPenalty: getEnvAsFloat("LLM_REPEAT_PENALTY", 1.1),
		LLMTimeout:       getEnvAsDuration("LLM_TIMEOUT", 5*time.Minute),
		SystemPrompt:     getEnv("SYSTEM_PROMPT", ""),

		// Chat sessions
		ChatStore:           strings.ToLower(getEnv("CHAT_STORE", ChatStoreMemory)),
		ChatHistoryWindow:   getEnvAsInt("CHAT_HISTORY_WINDOW", 6),
		ChatSessionMaxAge:   getEnvAsDuration("CHAT_SESSION_MAX_AGE", time.Hour),
		ChatCleanupInterval: getEnvAsDuration("CHAT_CLEANUP_INTERVAL", 5*time.Minute),

		// Redis
		RedisURL: getEnv("REDIS_URL", "localhost:6379"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "assistant"),
		DBPassword: getEnv("DB_PASSWORD", "assistant"),
		DBName:     getEnv("DB_NAME", "assistant"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	c.DatabaseURL = getEnv("DATABASE_URL", fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	))

	return c
}

// Validate reports settings the application cannot start with.
func (c *Config) Validate() error {
	switch c.ChatStore {
	case ChatStoreMemory, ChatStoreRedis, ChatStorePostgres:
	default:
		return fmt.Errorf("unsupported CHAT_STORE %q", c.ChatStore)
	}
	if c.ChatHistoryWindow <= 0 {
		return fmt.Errorf("CHAT_HISTORY_WINDOW must be positive, got %d", c.ChatHistoryWindow)
	}
	if c.ChatSessionMaxAge <= 0 {
		return fmt.Errorf("CHAT_SESSION_MAX_AGE must be positive")
	}
	if strings.TrimSpace(c.LLMEndpoint) == "" {
		return fmt.Errorf("LLM_ENDPOINT is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return valueStr == "true" || valueStr == "1"
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("3600").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if seconds, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(seconds) * time.Second
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
