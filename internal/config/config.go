// Package config provides centralized configuration management for the lab.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Ingest    IngestConfig
	Export    ExportConfig
	Transform TransformConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is 0 so the event stream stays open (default: 0s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown (default: 15s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`

	// RequestTimeout is the middleware timeout for non-streaming requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`

	// TrustedProxies is a comma-separated CIDR list whose X-Real-IP and
	// X-Forwarded-For headers are believed (default: none)
	TrustedProxies string `env:"SERVER_TRUSTED_PROXIES"`
}

// IngestConfig holds sample file ingest settings.
type IngestConfig struct {
	// MaxFileSize is the maximum accepted file size in bytes (default: 16MB)
	MaxFileSize int64 `env:"INGEST_MAX_FILE_SIZE" default:"16777216"`

	// MaxConcurrent is the number of ingests parsed in parallel (default: 4)
	MaxConcurrent int `env:"INGEST_MAX_CONCURRENT" default:"4"`

	// MaxWait is how long an ingest waits for a free slot (default: 10s)
	MaxWait time.Duration `env:"INGEST_MAX_WAIT" default:"10s"`

	// Strict rejects files with non-numeric tokens instead of dropping them (default: false)
	Strict bool `env:"INGEST_STRICT" default:"false"`
}

// ExportConfig holds result export settings.
type ExportConfig struct {
	// Prefix is the default file name prefix (default: dft)
	Prefix string `env:"EXPORT_PREFIX" default:"dft"`

	// RealDigits is the number of decimals for the real part (default: 6)
	RealDigits int `env:"EXPORT_REAL_DIGITS" default:"6"`

	// ImagDigits is the number of decimals for the imaginary part (default: 4)
	ImagDigits int `env:"EXPORT_IMAG_DIGITS" default:"4"`

	// Dir is where the dftlab command writes exports (default: .)
	Dir string `env:"EXPORT_DIR" default:"."`
}

// TransformConfig selects the transforms the server runs on new input.
type TransformConfig struct {
	// Flat is applied to flat inputs (default: dft)
	Flat string `env:"TRANSFORM_FLAT" default:"dft"`

	// Grid is applied to grid inputs (default: dft2)
	Grid string `env:"TRANSFORM_GRID" default:"dft2"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the limit per client IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`
}

// SecurityConfig holds API authentication settings.
type SecurityConfig struct {
	// RequireAPIKey enables X-API-Key checks on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys string `env:"API_KEYS"`
}

// Keys returns the configured API keys with blanks removed.
func (c *SecurityConfig) Keys() []string {
	return splitList(c.APIKeys)
}

// Proxies returns the trusted proxy CIDRs with blanks removed.
func (c *ServerConfig) Proxies() []string {
	return splitList(c.TrustedProxies)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
