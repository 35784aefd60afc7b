// Package config loads the server configuration from environment variables
// with defaults, and validates every setting on startup.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Auth     AuthConfig
	Cache    CacheConfig
	Export   ExportConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`

	// MaxBodyBytes caps JSON request bodies
	MaxBodyBytes int64 `env:"SERVER_MAX_BODY_BYTES" default:"1048576"`
}

// DatabaseConfig holds form store settings.
type DatabaseConfig struct {
	// URL selects the backend by scheme: postgres://, sqlite:// or memory://.
	// Supports both DATABASE_URL and DB_URL env vars.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" default:"sqlite://form1099.db"`

	// Pool settings apply to postgres only.
	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
	Burst             int  `env:"RATE_LIMIT_BURST" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// AuthConfig controls how requests are attributed to a user.
// With no JWTSecret every request runs as DefaultUser.
type AuthConfig struct {
	JWTSecret   string `env:"AUTH_JWT_SECRET"`
	JWTIssuer   string `env:"AUTH_JWT_ISSUER"`
	DefaultUser string `env:"AUTH_DEFAULT_USER" default:"local"`
}

// Enabled reports whether bearer tokens are required.
func (c *AuthConfig) Enabled() bool { return c.JWTSecret != "" }

// CacheConfig holds summary cache settings.
type CacheConfig struct {
	SummaryTTL time.Duration `env:"CACHE_SUMMARY_TTL" default:"5m"`
}

// ExportConfig bounds concurrent summary exports.
type ExportConfig struct {
	MaxConcurrent int           `env:"EXPORT_MAX_CONCURRENT" default:"4"`
	MaxWait       time.Duration `env:"EXPORT_MAX_WAIT" default:"10s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
