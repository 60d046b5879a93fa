// Package config centralizes environment-variable parsing. A single Load
// call at boot produces a typed Config. The one exception downstream is
// observability, whose InitLogger and SamplingRate read ENV, LOG_LEVEL and
// LOG_SAMPLE_RATE with os.Getenv directly.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every environment-driven setting for the gateway process.
type Config struct {
	// Listeners
	Port       string
	BridgePort string

	// Persistence
	PostgresDSN        string
	DBMaxOpenConns      int
	DBMaxIdleConns      int
	DBConnMaxLifetime   time.Duration
	DBConnMaxIdleTime   time.Duration
	RedisURL            string
	ClickHouseDSN       string

	// Domain data sources
	IPDBPathV4   string
	IPDBPathV6   string
	TemplatePath string
	SiteName     string

	// IP classification
	AllowCountries []string
	DatacenterISPs []string
	IPCacheTTL     time.Duration
	IPCacheSize    int

	// Click recorder
	ClickQueueCapacity int
	ClickWorkerCount   int

	// Request handling
	RequestTimeout     time.Duration
	TrustProxyHeaders  bool
	TrustedProxies     []string

	// Rate limiting
	RateLimitEnabled bool
	RateLimitWindow  time.Duration
	RateLimitMax     int

	// Observability
	Env              string
	LogLevel         string
	ServiceName      string
	TracingEnabled   bool
	TempoEndpoint    string
	TracingSampleRate float64
}

// Load reads every setting from the environment, applying the defaults
// documented in SPEC_FULL.md §6.
func Load() Config {
	return Config{
		Port:       getenv("PORT", "3001"),
		BridgePort: getenv("BRIDGE_PORT", "3002"),

		PostgresDSN:       getenv("POSTGRES_DSN", "postgres://localhost:5432/linkgate?sslmode=disable"),
		DBMaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 10),
		DBConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		DBConnMaxIdleTime: envDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		RedisURL:          os.Getenv("REDIS_URL"),
		ClickHouseDSN:     os.Getenv("CLICKHOUSE_DSN"),

		IPDBPathV4:   getenv("IP_DB_PATH_V4", "./data/GeoLite2-Country-v4.mmdb"),
		IPDBPathV6:   getenv("IP_DB_PATH_V6", "./data/GeoLite2-Country-v6.mmdb"),
		TemplatePath: getenv("TEMPLATE_PATH", "./templates/landing.html"),
		SiteName:     getenv("SITE_NAME", "LinkGate"),

		AllowCountries: envList("ALLOW_COUNTRIES", []string{"VN"}),
		DatacenterISPs: envList("DATACENTER_ISPS", []string{
			"google", "amazon", "microsoft", "cloudflare", "ovh", "digitalocean", "linode", "hetzner",
		}),
		IPCacheTTL:  envDuration("IP_CACHE_TTL", 5*time.Minute),
		IPCacheSize: envInt("IP_CACHE_SIZE", 50000),

		ClickQueueCapacity: envInt("CLICK_QUEUE_CAPACITY", 10000),
		ClickWorkerCount:   envInt("CLICK_WORKER_COUNT", 4),

		RequestTimeout:    envDuration("REQUEST_TIMEOUT", 2*time.Second),
		TrustProxyHeaders: envBool("TRUST_PROXY_HEADERS", false),
		TrustedProxies:    envList("TRUSTED_PROXIES", nil),

		RateLimitEnabled: envBool("RATE_LIMIT_ENABLED", false),
		RateLimitWindow:  envDuration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitMax:     envInt("RATE_LIMIT_MAX", 10),

		Env:               getenv("ENV", "development"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		ServiceName:       getenv("SERVICE_NAME", "linkgate"),
		TracingEnabled:    envBool("TRACING_ENABLED", false),
		TempoEndpoint:     getenv("TEMPO_ENDPOINT", "localhost:4317"),
		TracingSampleRate: envFloat("TRACING_SAMPLE_RATE", 1.0),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
