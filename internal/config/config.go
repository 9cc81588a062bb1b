package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv        string
	Port          string
	PublicBaseURL string
	DatabaseURL   string
	RedisURL      string

	CORSAllowedOrigins []string

	JWTSecret      string
	AccessTokenTTL time.Duration

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	RazorpayBaseURL       string

	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
	WhatsAppGraphBaseURL  string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	SMSAPIKey   string
	SMSSenderID string

	Currency string

	CatalogCacheTTL  time.Duration
	IdempotencyTTL   time.Duration
	WebhookReplayTTL time.Duration

	NotifyMaxAttempts int
	NotifyTimeout     time.Duration

	RateLimitWindow time.Duration
	RateLimitMax    int

	MaxBodyBytes int64

	LogLevel  string
	LogFormat string

	MetricsNamespace string

	TracingEnabled  bool
	OTLPEndpoint    string
	TraceSampleRate float64

	SecurityHeadersEnabled bool
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:        valueOrDefault(k.String("APP_ENV"), "development"),
		Port:          valueOrDefault(k.String("PORT"), "8080"),
		PublicBaseURL: strings.TrimSpace(k.String("PUBLIC_BASE_URL")),
		DatabaseURL:   k.String("DATABASE_URL"),
		RedisURL:      k.String("REDIS_URL"),

		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		JWTSecret:      k.String("JWT_SECRET"),
		AccessTokenTTL: parseDuration(k.String("ACCESS_TOKEN_TTL"), "12h"),

		RazorpayKeyID:         k.String("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     k.String("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: k.String("RAZORPAY_WEBHOOK_SECRET"),
		RazorpayBaseURL:       strings.TrimSpace(k.String("RAZORPAY_BASE_URL")),

		WhatsAppAccessToken:   k.String("WHATSAPP_ACCESS_TOKEN"),
		WhatsAppPhoneNumberID: k.String("WHATSAPP_PHONE_NUMBER_ID"),
		WhatsAppGraphBaseURL:  valueOrDefault(k.String("WHATSAPP_GRAPH_BASE_URL"), "https://graph.facebook.com/v17.0"),

		SMTPHost: k.String("SMTP_HOST"),
		SMTPPort: atoiDefault(k.String("SMTP_PORT"), 587),
		SMTPUser: k.String("SMTP_USER"),
		SMTPPass: k.String("SMTP_PASS"),
		SMTPFrom: valueOrDefault(k.String("SMTP_FROM"), k.String("SMTP_USER")),

		SMSAPIKey:   k.String("SMS_API_KEY"),
		SMSSenderID: k.String("SMS_SENDER_ID"),

		Currency: valueOrDefault(k.String("CURRENCY_CODE"), "INR"),

		CatalogCacheTTL:  parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		IdempotencyTTL:   parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		WebhookReplayTTL: parseDuration(k.String("WEBHOOK_REPLAY_TTL"), "48h"),

		NotifyMaxAttempts: atoiDefault(k.String("NOTIFY_MAX_ATTEMPTS"), 6),
		NotifyTimeout:     parseDuration(k.String("NOTIFY_TIMEOUT"), "10s"),

		RateLimitWindow: parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:    atoiDefault(k.String("RATE_LIMIT_MAX"), 120),

		MaxBodyBytes: int64(atoiDefault(k.String("MAX_BODY_BYTES"), 1<<20)),

		LogLevel:  valueOrDefault(k.String("LOG_LEVEL"), "info"),
		LogFormat: valueOrDefault(k.String("LOG_FORMAT"), "json"),

		MetricsNamespace: valueOrDefault(k.String("METRICS_NAMESPACE"), "storefront"),

		TracingEnabled:  strings.EqualFold(k.String("TRACING_ENABLED"), "true"),
		OTLPEndpoint:    strings.TrimSpace(k.String("OTEL_EXPORTER_OTLP_ENDPOINT")),
		TraceSampleRate: floatDefault(k.String("TRACE_SAMPLE_RATE"), 1.0),

		SecurityHeadersEnabled: !strings.EqualFold(k.String("SECURITY_HEADERS_ENABLED"), "false"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// RazorpayConfigured reports whether gateway credentials are present.
// Payment handlers fail closed with a configuration error when they are not.
func (c *Config) RazorpayConfigured() bool {
	return strings.TrimSpace(c.RazorpayKeyID) != "" && strings.TrimSpace(c.RazorpayKeySecret) != ""
}

// WhatsAppConfigured reports whether the Graph API credentials are present.
func (c *Config) WhatsAppConfigured() bool {
	return strings.TrimSpace(c.WhatsAppAccessToken) != "" && strings.TrimSpace(c.WhatsAppPhoneNumberID) != ""
}

// SMTPConfigured reports whether outbound email can be attempted.
func (c *Config) SMTPConfigured() bool {
	return strings.TrimSpace(c.SMTPHost) != "" && strings.TrimSpace(c.SMTPUser) != "" && strings.TrimSpace(c.SMTPPass) != ""
}

// SMSConfigured reports whether the SMS gateway credentials are present.
func (c *Config) SMSConfigured() bool {
	return strings.TrimSpace(c.SMSAPIKey) != "" && strings.TrimSpace(c.SMSSenderID) != ""
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func floatDefault(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	var parsed float64
	if _, err := fmt.Sscanf(trimmed, "%g", &parsed); err != nil {
		return fallback
	}
	return parsed
}

func atoiDefault(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	var parsed int
	if _, err := fmt.Sscanf(trimmed, "%d", &parsed); err != nil {
		return fallback
	}
	return parsed
}
