package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string

	DatabaseURL     string
	RedisAddr       string
	RedisPassword   string
	RedisTLS        bool
	SessionCacheTTL time.Duration

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	DatasetBucket       string
	CRMSyncQueueURL     string
	CRMJobsTable        string
	UseMemoryQueue      bool
	WorkerCount         int

	OpenAIAPIKey   string
	OpenAIModel    string
	EmbeddingModel string
	BedrockModelID string
	GeminiAPIKey   string
	GeminiModel    string
	AgentName      string

	FAQSimilarityThreshold float64
	FAQDatasetDir          string

	CRMLeadURL    string
	CRMSummaryURL string
	CRMTimeout    time.Duration

	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioFromNumber     string
	TwilioWebhookBaseURL string
	TwilioSkipSignature  bool
	AgentAlertPhone      string

	// Booking alert email
	EmailProvider     string
	SendGridAPIKey    string
	EmailFrom         string
	EmailFromName     string
	BookingAlertEmail string

	AdminJWTSecret string
	AdminUsername  string
	AdminPassword  string
	AdminTokenTTL  time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisTLS:        getEnvAsBool("REDIS_TLS", false),
		SessionCacheTTL: getEnvAsDuration("SESSION_CACHE_TTL", 30*time.Minute),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		DatasetBucket:       getEnv("DATASET_BUCKET", ""),
		CRMSyncQueueURL:     getEnv("CRM_SYNC_QUEUE_URL", ""),
		CRMJobsTable:        getEnv("CRM_JOBS_TABLE", ""),
		UseMemoryQueue:      getEnvAsBool("USE_MEMORY_QUEUE", true),
		WorkerCount:         getEnvAsInt("WORKER_COUNT", 2),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		BedrockModelID: getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", ""),
		AgentName:      getEnv("AGENT_NAME", "The Paul Group AI"),

		FAQSimilarityThreshold: getEnvAsFloat("FAQ_SIMILARITY_THRESHOLD", 0.85),
		FAQDatasetDir:          getEnv("FAQ_DATASET_DIR", "data/datasets"),

		CRMLeadURL:    getEnv("CRM_LEAD_URL", ""),
		CRMSummaryURL: getEnv("CRM_SUMMARY_URL", ""),
		CRMTimeout:    getEnvAsDuration("CRM_TIMEOUT", 10*time.Second),

		TwilioAccountSID:     getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:      getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber:     getEnv("TWILIO_FROM_NUMBER", ""),
		TwilioWebhookBaseURL: getEnv("TWILIO_WEBHOOK_BASE_URL", ""),
		TwilioSkipSignature:  getEnvAsBool("TWILIO_SKIP_SIGNATURE", false),
		AgentAlertPhone:      getEnv("AGENT_ALERT_PHONE", ""),

		EmailProvider:     strings.ToLower(getEnv("EMAIL_PROVIDER", "sendgrid")),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		EmailFrom:         getEnv("EMAIL_FROM", ""),
		EmailFromName:     getEnv("EMAIL_FROM_NAME", "The Paul Group"),
		BookingAlertEmail: getEnv("BOOKING_ALERT_EMAIL", ""),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
		AdminUsername:  getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
		AdminTokenTTL:  getEnvAsDuration("ADMIN_TOKEN_TTL", 30*time.Minute),

		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 10),
	}
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
