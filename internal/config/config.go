// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// S3-compatible object storage for design assets
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string
	S3Private   bool // serve assets through presigned URLs

	// LLM providers used by the concept generator
	AIProvider     string // preferred text provider
	OpenAIKey      string
	OpenAIModel    string
	OpenAIBaseURL  string
	GeminiKey      string
	GeminiModel    string
	GeminiBaseURL  string
	ClaudeKey      string
	ClaudeModel    string
	ClaudeBaseURL  string
	MistralKey     string
	MistralModel   string
	MistralBaseURL string

	// Image generation and matting
	ImageProviders   []string // priority order, e.g. gemini,openai
	OpenAIImageModel string
	GeminiImageModel string
	RemoveBGKey      string
	RemoveBGBaseURL  string

	// Trend sources
	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string
	RedditSubreddits   []string
	NewsFeeds          []string
	TrendsMock         bool

	// Storefronts
	Storefront              string // "printful" or "shopify"
	PrintfulKey             string
	PrintfulStoreID         string
	PrintfulBaseURL         string
	PrintfulTemplateProduct string
	ShopifyStoreURL         string
	ShopifyToken            string
	ShopifyAPIVersion       string
	ShopifyTemplateHandle   string

	// Scheduler (standard five-field cron expressions)
	ScheduleScan        string
	ScheduleGenerate    string
	ScheduleSales       string
	ScheduleMaintenance string

	// Operator API
	OperatorTokenHash string // bcrypt hash of the bearer token

	// Outbound HTTP timeout for third-party APIs
	HTTPTimeout time.Duration

	// Tracing
	ServiceName     string
	Version         string
	OTelEnabled     bool
	OTelEndpoint    string // OTLP/HTTP collector; stdout exporter when empty
	OTelInsecure    bool
	OTelSampleRatio float64
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "gunmerch"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "gunmerch"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "fsn1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "gunmerch-designs"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),
		S3Private:   envBool("S3_PRIVATE", false),

		AIProvider:     envOrDefault("AI_PROVIDER", "openai"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    envOrDefault("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:  envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GeminiKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    envOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:  envOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		ClaudeKey:      os.Getenv("CLAUDE_API_KEY"),
		ClaudeModel:    envOrDefault("CLAUDE_MODEL", "claude-sonnet-4-5"),
		ClaudeBaseURL:  envOrDefault("CLAUDE_BASE_URL", "https://api.anthropic.com"),
		MistralKey:     os.Getenv("MISTRAL_API_KEY"),
		MistralModel:   envOrDefault("MISTRAL_MODEL", "mistral-large-latest"),
		MistralBaseURL: envOrDefault("MISTRAL_BASE_URL", "https://api.mistral.ai"),

		ImageProviders:   envList("IMAGE_PROVIDERS", "gemini,openai"),
		OpenAIImageModel: envOrDefault("OPENAI_IMAGE_MODEL", "dall-e-3"),
		GeminiImageModel: envOrDefault("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		RemoveBGKey:      os.Getenv("REMOVEBG_API_KEY"),
		RemoveBGBaseURL:  envOrDefault("REMOVEBG_BASE_URL", "https://api.remove.bg/v1.0"),

		RedditClientID:     os.Getenv("REDDIT_CLIENT_ID"),
		RedditClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		RedditUserAgent:    envOrDefault("REDDIT_USER_AGENT", "gunmerch/1.0 (trend scanner)"),
		RedditSubreddits:   envList("REDDIT_SUBREDDITS", "guns"),
		NewsFeeds:          envList("NEWS_FEEDS", "https://www.ammoland.com/feed/,https://www.thefirearmblog.com/blog/feed/"),

		Storefront:              envOrDefault("STOREFRONT", "printful"),
		PrintfulKey:             os.Getenv("PRINTFUL_API_KEY"),
		PrintfulStoreID:         os.Getenv("PRINTFUL_STORE_ID"),
		PrintfulBaseURL:         envOrDefault("PRINTFUL_BASE_URL", "https://api.printful.com"),
		PrintfulTemplateProduct: os.Getenv("PRINTFUL_TEMPLATE_PRODUCT"),
		ShopifyStoreURL:         os.Getenv("SHOPIFY_STORE_URL"),
		ShopifyToken:            os.Getenv("SHOPIFY_ACCESS_TOKEN"),
		ShopifyAPIVersion:       envOrDefault("SHOPIFY_API_VERSION", "2024-01"),
		ShopifyTemplateHandle:   envOrDefault("SHOPIFY_TEMPLATE_HANDLE", "gunmerch-template"),

		ScheduleScan:        envOrDefault("SCHEDULE_SCAN", "0 */6 * * *"),
		ScheduleGenerate:    envOrDefault("SCHEDULE_GENERATE", "0 1-23/6 * * *"),
		ScheduleSales:       envOrDefault("SCHEDULE_SALES", "30 3 * * *"),
		ScheduleMaintenance: envOrDefault("SCHEDULE_MAINTENANCE", "15 4 * * *"),

		OperatorTokenHash: os.Getenv("OPERATOR_TOKEN_HASH"),

		ServiceName:  envOrDefault("OTEL_SERVICE_NAME", "gunmerch"),
		Version:      envOrDefault("APP_VERSION", "dev"),
		OTelEnabled:  envBool("OTEL_ENABLED", false),
		OTelEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTelInsecure: envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
	}

	cfg.TrendsMock = envBool("TRENDS_MOCK", cfg.IsDev())

	timeout, err := time.ParseDuration(envOrDefault("HTTP_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	ratio, err := strconv.ParseFloat(envOrDefault("OTEL_SAMPLER_RATIO", "1"), 64)
	if err != nil || ratio < 0 || ratio > 1 {
		return nil, fmt.Errorf("OTEL_SAMPLER_RATIO must be between 0 and 1, got %q", os.Getenv("OTEL_SAMPLER_RATIO"))
	}
	cfg.OTelSampleRatio = ratio

	if cfg.Storefront != "printful" && cfg.Storefront != "shopify" {
		return nil, fmt.Errorf("STOREFRONT must be printful or shopify, got %q", cfg.Storefront)
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.OperatorTokenHash == "" {
			return nil, fmt.Errorf("OPERATOR_TOKEN_HASH must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// HasStorage reports whether S3 credentials are present.
func (c *Config) HasStorage() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != ""
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envBool parses a boolean environment variable, accepting 1/true/yes/on.
func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	switch strings.ToLower(v) {
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	return fallback
}

// envList splits a comma-separated environment variable, dropping blanks.
func envList(key, fallback string) []string {
	raw := envOrDefault(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
