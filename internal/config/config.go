package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DB_USERNAME       string
	DB_PASSWORD       string
	DB_HOST           string
	DB_PORT           string
	DB_NAME           string
	DISABLE_TLS       string
	DB_MAX_OPEN_CONNS int
	DB_MAX_IDLE_CONNS int
	MIGRATE_ON_START  bool

	PORT            string
	ALLOWED_ORIGINS []string
	ALLOWED_HEADERS string
	REQUEST_TIMEOUT time.Duration

	// Identity verification
	AUTH_PROVIDER       string
	FIREBASE_PROJECT_ID string
	AUTH_ISSUER         string
	AUTH_AUDIENCE       string
	AUTH_HMAC_SECRET    string

	TASK_MUTATION_REQUIRES_PROJECT_MEMBERSHIP bool
	DEBUG_ROUTES_ENABLED                      bool

	// Rate limiting, disabled when RATE_LIMIT is 0
	RATE_LIMIT      int
	RATE_LIMIT_UNIT string
	REDIS_URL       string

	EMAIL_PROVIDER string
	RESEND_API_KEY string
	EMAIL_FROM     string

	BOARD_PROVIDER  string
	TRELLO_KEY      string
	TRELLO_TOKEN    string
	TRELLO_BASE_URL string

	// Otel
	OTEL_EXPORTER_OTLP_ENDPOINT string
	OTEL_SERVICE_NAME           string
}

const (
	AuthProviderFirebase = "firebase"
	AuthProviderOIDC     = "oidc"
	AuthProviderJWKS     = "jwks"
	AuthProviderHMAC     = "hmac"

	EmailProviderLog    = "log"
	EmailProviderResend = "resend"

	BoardProviderMemory = "memory"
	BoardProviderTrello = "trello"
)

// ReadConfig reads configuration from the environment. When CONFIG_FILE points to a
// YAML file of flat KEY: value pairs, those values fill in keys the environment leaves unset.
func ReadConfig() *Config {
	src := newSource(os.Getenv("CONFIG_FILE"))

	return &Config{
		DB_USERNAME:       src.get("DB_USERNAME"),
		DB_PASSWORD:       src.get("DB_PASSWORD"),
		DB_HOST:           src.getOrDefault("DB_HOST", "localhost"),
		DB_PORT:           src.getOrDefault("DB_PORT", "5432"),
		DB_NAME:           src.get("DB_NAME"),
		DISABLE_TLS:       src.get("DISABLE_TLS"),
		DB_MAX_OPEN_CONNS: src.getInt("DB_MAX_OPEN_CONNS", 20),
		DB_MAX_IDLE_CONNS: src.getInt("DB_MAX_IDLE_CONNS", 5),
		MIGRATE_ON_START:  src.getBool("MIGRATE_ON_START", true),

		PORT:            src.getOrDefault("PORT", "5000"),
		ALLOWED_ORIGINS: splitList(src.get("ALLOWED_ORIGINS")),
		ALLOWED_HEADERS: src.getOrDefault("ALLOWED_HEADERS", "Authorization,Content-Type"),
		REQUEST_TIMEOUT: src.getDuration("REQUEST_TIMEOUT", 30*time.Second),

		AUTH_PROVIDER:       strings.ToLower(src.getOrDefault("AUTH_PROVIDER", AuthProviderHMAC)),
		FIREBASE_PROJECT_ID: src.get("FIREBASE_PROJECT_ID"),
		AUTH_ISSUER:         src.get("AUTH_ISSUER"),
		AUTH_AUDIENCE:       src.get("AUTH_AUDIENCE"),
		AUTH_HMAC_SECRET:    src.get("AUTH_HMAC_SECRET"),

		TASK_MUTATION_REQUIRES_PROJECT_MEMBERSHIP: src.getBool("TASK_MUTATION_REQUIRES_PROJECT_MEMBERSHIP", true),
		DEBUG_ROUTES_ENABLED:                      src.getBool("DEBUG_ROUTES_ENABLED", false),

		RATE_LIMIT:      src.getInt("RATE_LIMIT", 0),
		RATE_LIMIT_UNIT: src.getOrDefault("RATE_LIMIT_UNIT", "1min"),
		REDIS_URL:       src.get("REDIS_URL"),

		EMAIL_PROVIDER: strings.ToLower(src.getOrDefault("EMAIL_PROVIDER", EmailProviderLog)),
		RESEND_API_KEY: src.get("RESEND_API_KEY"),
		EMAIL_FROM:     src.getOrDefault("EMAIL_FROM", "projecthub <noreply@projecthub.local>"),

		BOARD_PROVIDER:  strings.ToLower(src.getOrDefault("BOARD_PROVIDER", BoardProviderMemory)),
		TRELLO_KEY:      src.get("TRELLO_KEY"),
		TRELLO_TOKEN:    src.get("TRELLO_TOKEN"),
		TRELLO_BASE_URL: src.getOrDefault("TRELLO_BASE_URL", "https://api.trello.com/1"),

		OTEL_EXPORTER_OTLP_ENDPOINT: src.get("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTEL_SERVICE_NAME:           src.getOrDefault("OTEL_SERVICE_NAME", "projecthub"),
	}
}

// GetEnvOrDefault returns the environment value for key, or defaultValue when it is unset.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

type source struct {
	file map[string]string
}

func newSource(path string) *source {
	s := &source{file: map[string]string{}}
	if path == "" {
		return s
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Unable to read config file, using environment only", slog.String("path", path), slog.Any("error", err))
		return s
	}

	values := map[string]any{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		slog.Warn("Unable to parse config file, using environment only", slog.String("path", path), slog.Any("error", err))
		return s
	}

	for k, v := range values {
		if v == nil {
			continue
		}
		s.file[strings.ToUpper(k)] = strings.TrimSpace(toString(v))
	}

	return s
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, toString(p))
		}
		return strings.Join(parts, ",")
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func (s *source) get(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return s.file[key]
}

func (s *source) getOrDefault(key, defaultValue string) string {
	if value := s.get(key); value != "" {
		return value
	}
	return defaultValue
}

func (s *source) getInt(key string, defaultValue int) int {
	raw := s.get(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("Invalid integer config value, using default", slog.String("key", key), slog.String("value", raw))
		return defaultValue
	}
	return v
}

func (s *source) getBool(key string, defaultValue bool) bool {
	raw := s.get(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("Invalid boolean config value, using default", slog.String("key", key), slog.String("value", raw))
		return defaultValue
	}
	return v
}

func (s *source) getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := s.get(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("Invalid duration config value, using default", slog.String("key", key), slog.String("value", raw))
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
