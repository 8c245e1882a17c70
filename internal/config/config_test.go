package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "FAQ_SIMILARITY_THRESHOLD", "CORS_ALLOWED_ORIGINS", "AGENT_NAME", "ADMIN_TOKEN_TTL", "CRM_TIMEOUT", "USE_MEMORY_QUEUE"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" || cfg.IsProduction() {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.FAQSimilarityThreshold != 0.85 {
		t.Fatalf("expected default threshold, got %v", cfg.FAQSimilarityThreshold)
	}
	if cfg.AgentName != "The Paul Group AI" {
		t.Fatalf("expected default agent name, got %s", cfg.AgentName)
	}
	if cfg.AdminTokenTTL != 30*time.Minute {
		t.Fatalf("expected 30m admin token ttl, got %s", cfg.AdminTokenTTL)
	}
	if cfg.CRMTimeout != 10*time.Second {
		t.Fatalf("expected 10s crm timeout, got %s", cfg.CRMTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("expected wildcard cors default, got %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.UseMemoryQueue {
		t.Fatalf("expected memory queue by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "Production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("FAQ_SIMILARITY_THRESHOLD", "0.9")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("TWILIO_SKIP_SIGNATURE", "true")
	t.Setenv("SESSION_CACHE_TTL", "5m")
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("EMAIL_PROVIDER", "SES")

	cfg := Load()
	if cfg.Port != "9090" || !cfg.IsProduction() {
		t.Fatalf("unexpected server config %+v", cfg)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.FAQSimilarityThreshold != 0.9 {
		t.Fatalf("expected threshold override, got %v", cfg.FAQSimilarityThreshold)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.TwilioSkipSignature || cfg.SessionCacheTTL != 5*time.Minute || cfg.RateLimitBurst != 3 {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if cfg.EmailProvider != "ses" {
		t.Fatalf("expected provider lowercased, got %s", cfg.EmailProvider)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("FAQ_SIMILARITY_THRESHOLD", "high")
	t.Setenv("WORKER_COUNT", "many")
	t.Setenv("CRM_TIMEOUT", "soon")
	cfg := Load()
	if cfg.FAQSimilarityThreshold != 0.85 || cfg.WorkerCount != 2 || cfg.CRMTimeout != 10*time.Second {
		t.Fatalf("expected defaults for invalid values, got %+v", cfg)
	}
}
