package config

import (
	"errors"
	"flag"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Catalog sources
const (
	CatalogEmbedded = "embedded"
	CatalogFile     = "file"
	CatalogPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Cache      CacheConfig
	Catalog    CatalogConfig
	Database   DatabaseConfig
	Logging    LoggingConfig
	Leads      LeadsConfig
	Moderation ModerationConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr       string
	MCPMode        bool
	APIRateLimit   float64 // requests per second per client
	APIRateBurst   int
	TrustedProxies []string // addresses or CIDRs allowed to set X-Forwarded-For
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	Backend   string // "memory" or "redis"
	TTL       time.Duration
	RedisAddr string
}

// CatalogConfig selects where the vehicle dataset comes from
type CatalogConfig struct {
	Source string // "embedded", "file" or "postgres"
	File   string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// LeadsConfig holds lead intake settings
type LeadsConfig struct {
	NATSURL        string
	SubmitInterval time.Duration
}

// ModerationConfig holds sell photo moderation settings.
type ModerationConfig struct {
	Enabled          bool
	AWSRegion        string
	RejectConfidence float64
	Timeout          time.Duration
	PendingUploadTTL time.Duration
}

// Load reads .env, then parses flags and environment variables to build configuration.
// Environment variables win over flags.
func Load() *Config {
	// A missing .env is the normal case outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = os.Stderr.WriteString("config: ignoring unreadable .env: " + err.Error() + "\n")
	}

	cfg := &Config{}

	// Define flags with defaults
	httpAddr := flag.String("http", ":8080", "HTTP server address")
	mcpMode := flag.Bool("mcp", false, "Serve catalog tools over MCP stdio instead of HTTP")
	apiRateLimit := flag.Float64("api-rate-limit", 20, "API requests per second allowed per client (0 disables)")
	apiRateBurst := flag.Int("api-rate-burst", 40, "API request burst per client")
	trustedProxies := flag.String("trusted-proxies", "", "Comma-separated proxy addresses or CIDRs whose X-Forwarded-For is honoured")
	cacheTTL := flag.Duration("cache-ttl", 5*time.Minute, "Cache TTL for catalog responses")
	cacheBackend := flag.String("cache-backend", "memory", "Cache backend: memory or redis")
	redisAddr := flag.String("redis-addr", "localhost:6379", "Redis server address")
	catalogSource := flag.String("catalog-source", CatalogEmbedded, "Vehicle dataset: embedded, file or postgres")
	catalogFile := flag.String("catalog-file", "", "YAML vehicle dataset used when -catalog-source=file")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	dbHost := flag.String("db-host", "localhost", "PostgreSQL host")
	dbPort := flag.Int("db-port", 5432, "PostgreSQL port")
	dbUser := flag.String("db-user", "postgres", "PostgreSQL user")
	dbPassword := flag.String("db-password", "postgres", "PostgreSQL password")
	dbName := flag.String("db-name", "autolot", "PostgreSQL database name")
	dbSSLMode := flag.String("db-sslmode", "disable", "PostgreSQL SSL mode")
	natsURL := flag.String("nats-url", "", "NATS server for lead notifications (empty logs leads only)")
	submitInterval := flag.Duration("lead-submit-interval", 30*time.Second, "Minimum delay between submissions of the same form by one client")

	flag.Parse()

	// Apply environment variable overrides
	applyEnvOverrides(httpAddr, cacheTTL, cacheBackend, redisAddr, logLevel, dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode)

	cfg.Server = ServerConfig{
		HTTPAddr:       *httpAddr,
		MCPMode:        *mcpMode || os.Getenv("MCP_MODE") == "true" || os.Getenv("MCP_MODE") == "1",
		APIRateLimit:   floatFromEnv("API_RATE_LIMIT", *apiRateLimit),
		APIRateBurst:   intFromEnv("API_RATE_BURST", *apiRateBurst),
		TrustedProxies: splitList(getEnvOrDefault("TRUSTED_PROXIES", *trustedProxies)),
	}

	cfg.Cache = CacheConfig{
		Backend:   *cacheBackend,
		TTL:       *cacheTTL,
		RedisAddr: *redisAddr,
	}

	cfg.Catalog = CatalogConfig{
		Source: strings.ToLower(getEnvOrDefault("CATALOG_SOURCE", *catalogSource)),
		File:   getEnvOrDefault("CATALOG_FILE", *catalogFile),
	}

	cfg.Database = DatabaseConfig{
		Host:     *dbHost,
		Port:     *dbPort,
		User:     *dbUser,
		Password: *dbPassword,
		Database: *dbName,
		SSLMode:  *dbSSLMode,
	}

	cfg.Logging = LoggingConfig{
		Level: *logLevel,
	}

	cfg.Leads = LeadsConfig{
		NATSURL:        getEnvOrDefault("NATS_URL", *natsURL),
		SubmitInterval: durationFromEnv("LEAD_SUBMIT_INTERVAL", *submitInterval),
	}

	cfg.Moderation = loadModerationConfig()

	return cfg
}

func loadModerationConfig() ModerationConfig {
	rejectConfidence := 70.0
	if v := os.Getenv("MODERATION_REJECT_CONFIDENCE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			rejectConfidence = parsed
		}
	}

	timeout := 5 * time.Second
	if v := os.Getenv("MODERATION_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			timeout = parsed
		}
	}

	pendingTTL := 30 * time.Minute
	if v := os.Getenv("MODERATION_PENDING_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			pendingTTL = parsed
		}
	}

	enabled := true
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("IMAGE_MODERATION_ENABLED"))); v == "false" || v == "0" {
		enabled = false
	}

	return ModerationConfig{
		Enabled:          enabled,
		AWSRegion:        os.Getenv("AWS_REGION"),
		RejectConfidence: rejectConfidence,
		Timeout:          timeout,
		PendingUploadTTL: pendingTTL,
	}
}

// splitList splits a comma-separated value, dropping blank entries
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func durationFromEnv(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			return d
		}
	}
	return defaultValue
}

func floatFromEnv(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			return f
		}
	}
	return defaultValue
}

func intFromEnv(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func applyEnvOverrides(
	httpAddr *string,
	cacheTTL *time.Duration,
	cacheBackend *string,
	redisAddr *string,
	logLevel *string,
	dbHost *string,
	dbPort *int,
	dbUser *string,
	dbPassword *string,
	dbName *string,
	dbSSLMode *string,
) {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		*httpAddr = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*cacheTTL = d
		}
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		*cacheBackend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		*redisAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		*logLevel = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		*dbHost = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			*dbPort = p
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		*dbUser = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		*dbPassword = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		*dbName = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		*dbSSLMode = v
	}
}
