package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "load default configuration",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "0.0.0.0", cfg.ServerHost)
				assert.Equal(t, 8080, cfg.ServerPort)
				assert.Equal(t, "", cfg.DBDriver)
				assert.False(t, cfg.HasDatabase())
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Equal(t, "./data/trustcore.db", cfg.StorePath)
				assert.Equal(t, "./data/records", cfg.StoreFallbackDir)
				assert.Equal(t, time.Second, cfg.StoreOpenTimeout)
				assert.Equal(t, 100*time.Millisecond, cfg.StoreFlushDelay)
				assert.Equal(t, "aes-gcm", cfg.EncryptionAlgorithm)
				assert.Equal(t, "trustcore", cfg.TOTPIssuer)
				assert.Equal(t, 8, cfg.TOTPRecoveryCodes)
				assert.Equal(t, time.Hour, cfg.PermissionGrantTTL)
				assert.Nil(t, cfg.ReviewerIDs())
				assert.Equal(t, "", cfg.PermissionPolicies)
				assert.Equal(t, "trustcore", cfg.MetricsNamespace)
			},
		},
		{
			name: "load custom database configuration",
			envVars: map[string]string{
				"DB_DRIVER":               "mysql",
				"DB_CONNECTION_STRING":    "user:password@tcp(localhost:3306)/testdb",
				"DB_MAX_OPEN_CONNECTIONS": "50",
				"DB_MAX_IDLE_CONNECTIONS": "10",
				"DB_CONN_MAX_LIFETIME":    "10",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "mysql", cfg.DBDriver)
				assert.True(t, cfg.HasDatabase())
				assert.Equal(t, "user:password@tcp(localhost:3306)/testdb", cfg.DBConnectionString)
				assert.Equal(t, 50, cfg.DBMaxOpenConnections)
				assert.Equal(t, 10, cfg.DBMaxIdleConnections)
				assert.Equal(t, 10*time.Minute, cfg.DBConnMaxLifetime)
			},
		},
		{
			name: "load custom store configuration",
			envVars: map[string]string{
				"STORE_PATH":                 "/var/lib/trustcore/store.db",
				"STORE_FALLBACK_DIR":         "/var/lib/trustcore/records",
				"STORE_OPEN_TIMEOUT_SECONDS": "3",
				"STORE_FLUSH_DELAY_MS":       "250",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/var/lib/trustcore/store.db", cfg.StorePath)
				assert.Equal(t, "/var/lib/trustcore/records", cfg.StoreFallbackDir)
				assert.Equal(t, 3*time.Second, cfg.StoreOpenTimeout)
				assert.Equal(t, 250*time.Millisecond, cfg.StoreFlushDelay)
			},
		},
		{
			name: "load custom workflow configuration",
			envVars: map[string]string{
				"PERMISSION_GRANT_TTL_SECONDS": "60",
				"PERMISSION_REVIEWER_IDS":      " alice, ,bob ",
				"PERMISSION_POLICIES":          `{"admin":[{"data_type":"*","rights":["edit"]}]}`,
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, time.Minute, cfg.PermissionGrantTTL)
				assert.Equal(t, []string{"alice", "bob"}, cfg.ReviewerIDs())
				assert.Equal(t, `{"admin":[{"data_type":"*","rights":["edit"]}]}`, cfg.PermissionPolicies)
			},
		},
		{
			name: "load custom log level",
			envVars: map[string]string{
				"LOG_LEVEL": "debug",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, "debug", cfg.GetGinMode())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()

			for key, value := range tt.envVars {
				err := os.Setenv(key, value)
				require.NoError(t, err)
			}

			cfg := Load()

			tt.validate(t, cfg)
		})
	}
}

func TestGetGinMode(t *testing.T) {
	for _, level := range []string{"info", "warn", "error", "unknown"} {
		cfg := &Config{LogLevel: level}
		assert.Equal(t, "release", cfg.GetGinMode(), level)
	}
}

func TestSplitListSettings(t *testing.T) {
	cfg := &Config{
		PermissionReviewerIDs: " alice ,, bob ",
		CORSAllowOrigins:      "https://app.example.com, ,https://admin.example.com",
	}

	assert.Equal(t, []string{"alice", "bob"}, cfg.ReviewerIDs())
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORSOrigins())
	assert.Nil(t, (&Config{CORSAllowOrigins: " , "}).CORSOrigins())
}
