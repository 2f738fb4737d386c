package config

import (
	"os"
	"testing"
	"time"
)

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	original, existed := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset %s: %v", key, err)
	}
	t.Cleanup(func() {
		if !existed {
			_ = os.Unsetenv(key)
			return
		}
		_ = os.Setenv(key, original)
	})
}

func TestDefaultsMatchChatBackend(t *testing.T) {
	for _, key := range []string{"PORT", "CHAT_API_BASE", "LLM_MAX_TOKENS", "LLM_TEMPERATURE", "CHAT_HISTORY_WINDOW", "CHAT_SESSION_MAX_AGE", "CHAT_STORE", "CORS_ORIGINS", "CHAT_RATE_LIMIT"} {
		unsetEnv(t, key)
	}

	cfg := New()
	if cfg.Port != "8000" {
		t.Fatalf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.ChatAPIBase != "/api" {
		t.Fatalf("expected default api base /api, got %s", cfg.ChatAPIBase)
	}
	if cfg.LLMMaxTokens != 1024 || cfg.LLMTemperature != 0.7 {
		t.Fatalf("unexpected completion defaults: %d tokens, temperature %v", cfg.LLMMaxTokens, cfg.LLMTemperature)
	}
	if cfg.ChatHistoryWindow != 6 {
		t.Fatalf("expected history window 6, got %d", cfg.ChatHistoryWindow)
	}
	if cfg.ChatSessionMaxAge != time.Hour {
		t.Fatalf("expected session max age 1h, got %s", cfg.ChatSessionMaxAge)
	}
	if cfg.ChatRateLimit != 20 {
		t.Fatalf("expected chat rate limit 20, got %d", cfg.ChatRateLimit)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected two default CORS origins, got %v", cfg.CORSOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate: %v", err)
	}
}

func TestDurationAcceptsSecondsAndGoSyntax(t *testing.T) {
	t.Setenv("CHAT_SESSION_MAX_AGE", "120")
	t.Setenv("CHAT_CLEANUP_INTERVAL", "90s")

	cfg := New()
	if cfg.ChatSessionMaxAge != 2*time.Minute {
		t.Fatalf("expected 2m, got %s", cfg.ChatSessionMaxAge)
	}
	if cfg.ChatCleanupInterval != 90*time.Second {
		t.Fatalf("expected 90s, got %s", cfg.ChatCleanupInterval)
	}
}

func TestValidateRejectsUnknownStore(t *testing.T) {
	t.Setenv("CHAT_STORE", "Mongo")

	cfg := New()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unknown chat store to be rejected")
	}
}

func TestCORSOriginsAreTrimmed(t *testing.T) {
	t.Setenv("CORS_ORIGINS", " https://a.example.com , ,https://b.example.com")

	cfg := New()
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "https://a.example.com" || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
}
