// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// ServerHost is the host address the API server binds to.
	ServerHost string
	// ServerPort is the port number the API server listens on.
	ServerPort int

	// DBDriver selects the SQL driver ("postgres", "mysql"). Empty keeps permission
	// requests inside the encrypted store and sends audit events to the log.
	DBDriver string
	// DBConnectionString is the connection string for the database.
	DBConnectionString string
	// DBMaxOpenConnections is the maximum number of open connections to the database.
	DBMaxOpenConnections int
	// DBMaxIdleConnections is the maximum number of idle connections in the database pool.
	DBMaxIdleConnections int
	// DBConnMaxLifetime is the maximum amount of time a connection may be reused.
	DBConnMaxLifetime time.Duration

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// StorePath is the bbolt database file backing the encrypted store.
	StorePath string
	// StoreFallbackDir is the directory used by the flat-file backend when bbolt cannot open.
	StoreFallbackDir string
	// StoreOpenTimeout bounds how long bbolt waits for its file lock.
	StoreOpenTimeout time.Duration
	// StoreFlushDelay is the debounce delay between a put and the automatic flush.
	StoreFlushDelay time.Duration

	// EncryptionAlgorithm is the AEAD used by the encrypted store.
	EncryptionAlgorithm string
	// EncryptionKey is the installation key as a JSON Web Key.
	EncryptionKey string
	// EncryptionKeyWrapped is the base64 KMS ciphertext of the JSON Web Key.
	EncryptionKeyWrapped string
	// EncryptionPassphrase derives the key with argon2id when no JWK is configured.
	EncryptionPassphrase string
	// EncryptionSalt is the base64 salt paired with EncryptionPassphrase.
	EncryptionSalt string

	// KMSKeyURI is the gocloud secrets URI that unwraps EncryptionKeyWrapped.
	KMSKeyURI string

	// TOTPIssuer is embedded in provisioning URIs.
	TOTPIssuer string
	// TOTPRecoveryCodes is the number of recovery codes issued per principal.
	TOTPRecoveryCodes int

	// PermissionGrantTTL is the default lifetime of an approved grant.
	PermissionGrantTTL time.Duration
	// PermissionReviewerIDs is a comma-separated reviewer allow-list.
	PermissionReviewerIDs string
	// PermissionPolicies is a JSON policy document mapping principal ids to standing rights.
	PermissionPolicies string

	// RateLimitEnabled indicates whether per-principal rate limiting is enabled.
	RateLimitEnabled bool
	// RateLimitRequestsPerSec is the number of requests allowed per second per principal.
	RateLimitRequestsPerSec float64
	// RateLimitBurst is the burst size for per-principal rate limiting.
	RateLimitBurst int

	// CORSEnabled indicates whether CORS is enabled.
	CORSEnabled bool
	// CORSAllowOrigins is a comma-separated list of allowed origins for CORS.
	CORSAllowOrigins string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	loadDotEnv()

	return &Config{
		// Server configuration
		ServerHost: env.GetString("SERVER_HOST", "0.0.0.0"),
		ServerPort: env.GetInt("SERVER_PORT", 8080),

		// Database configuration
		DBDriver:             env.GetString("DB_DRIVER", ""),
		DBConnectionString:   env.GetString("DB_CONNECTION_STRING", ""),
		DBMaxOpenConnections: env.GetInt("DB_MAX_OPEN_CONNECTIONS", 25),
		DBMaxIdleConnections: env.GetInt("DB_MAX_IDLE_CONNECTIONS", 5),
		DBConnMaxLifetime:    env.GetDuration("DB_CONN_MAX_LIFETIME", 5, time.Minute),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Encrypted store
		StorePath:        env.GetString("STORE_PATH", "./data/trustcore.db"),
		StoreFallbackDir: env.GetString("STORE_FALLBACK_DIR", "./data/records"),
		StoreOpenTimeout: env.GetDuration("STORE_OPEN_TIMEOUT_SECONDS", 1, time.Second),
		StoreFlushDelay:  env.GetDuration("STORE_FLUSH_DELAY_MS", 100, time.Millisecond),

		// Key material
		EncryptionAlgorithm:  env.GetString("ENCRYPTION_ALGORITHM", "aes-gcm"),
		EncryptionKey:        env.GetString("ENCRYPTION_KEY", ""),
		EncryptionKeyWrapped: env.GetString("ENCRYPTION_KEY_WRAPPED", ""),
		EncryptionPassphrase: env.GetString("ENCRYPTION_PASSPHRASE", ""),
		EncryptionSalt:       env.GetString("ENCRYPTION_SALT", ""),
		KMSKeyURI:            env.GetString("KMS_KEY_URI", ""),

		// Second factor
		TOTPIssuer:        env.GetString("TOTP_ISSUER", "trustcore"),
		TOTPRecoveryCodes: env.GetInt("TOTP_RECOVERY_CODES", 8),

		// Authorization workflow
		PermissionGrantTTL:    env.GetDuration("PERMISSION_GRANT_TTL_SECONDS", 3600, time.Second),
		PermissionReviewerIDs: env.GetString("PERMISSION_REVIEWER_IDS", ""),
		PermissionPolicies:    env.GetString("PERMISSION_POLICIES", ""),

		// Rate Limiting
		RateLimitEnabled:        env.GetBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequestsPerSec: env.GetFloat64("RATE_LIMIT_REQUESTS_PER_SEC", 10.0),
		RateLimitBurst:          env.GetInt("RATE_LIMIT_BURST", 20),

		// CORS
		CORSEnabled:      env.GetBool("CORS_ENABLED", false),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", ""),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "trustcore"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	if c.LogLevel == "debug" {
		return "debug"
	}
	return "release"
}

// ReviewerIDs returns the reviewer allow-list.
func (c *Config) ReviewerIDs() []string {
	return splitList(c.PermissionReviewerIDs)
}

// CORSOrigins returns the allowed CORS origins.
func (c *Config) CORSOrigins() []string {
	return splitList(c.CORSAllowOrigins)
}

// splitList splits a comma-separated setting, dropping blank entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// HasDatabase reports whether a SQL driver is configured.
func (c *Config) HasDatabase() bool {
	return c.DBDriver != ""
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}
