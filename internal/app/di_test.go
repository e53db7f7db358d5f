package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/trustcore/internal/config"
	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
	permissionDomain "github.com/allisson/trustcore/internal/permission/domain"
	permissionRepository "github.com/allisson/trustcore/internal/permission/repository"
)

func storeModeConfig(t *testing.T) *config.Config {
	t.Helper()

	key, err := cryptoDomain.NewEncryptionKey(cryptoDomain.AESGCM)
	require.NoError(t, err)
	jwk, err := key.MarshalJWK()
	require.NoError(t, err)

	dir := t.TempDir()
	return &config.Config{
		LogLevel:            "error",
		ServerHost:          "localhost",
		ServerPort:          0,
		StorePath:           filepath.Join(dir, "trustcore.db"),
		StoreFallbackDir:    filepath.Join(dir, "records"),
		StoreOpenTimeout:    time.Second,
		StoreFlushDelay:     10 * time.Millisecond,
		EncryptionAlgorithm: string(cryptoDomain.AESGCM),
		EncryptionKey:       string(jwk),
		TOTPIssuer:          "trustcore",
		TOTPRecoveryCodes:   4,
		PermissionGrantTTL:  time.Minute,
		PermissionPolicies:  `{"admin":[{"data_type":"*","rights":["edit","delete"]}]}`,
		MetricsEnabled:      false,
		MetricsNamespace:    "trustcore",
	}
}

func TestNewContainer(t *testing.T) {
	cfg := &config.Config{LogLevel: "info"}

	container := NewContainer(cfg)

	require.NotNil(t, container)
	assert.Same(t, cfg, container.Config())
}

func TestContainerLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "invalid"} {
		container := NewContainer(&config.Config{LogLevel: level})

		assert.Nil(t, container.logger, level)
		logger := container.Logger()
		require.NotNil(t, logger, level)
		assert.Same(t, logger, container.Logger(), level)
	}
}

func TestContainerDB(t *testing.T) {
	t.Run("Error_NoDriverConfigured", func(t *testing.T) {
		container := NewContainer(&config.Config{})

		_, err := container.DB()
		assert.Error(t, err)
	})

	t.Run("Error_InvalidDriverIsRemembered", func(t *testing.T) {
		container := NewContainer(&config.Config{DBDriver: "invalid_driver"})

		_, err := container.DB()
		require.Error(t, err)
		_, err = container.DB()
		assert.Error(t, err)
	})
}

func TestContainerStoreMode(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_BuildsWorkflowOverEncryptedStore", func(t *testing.T) {
		container := NewContainer(storeModeConfig(t))
		container.SetClock(clockwork.NewFakeClockAt(time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)))
		defer func() { assert.NoError(t, container.Shutdown(ctx)) }()

		repo, err := container.PermissionRequestRepository()
		require.NoError(t, err)
		assert.IsType(t, &permissionRepository.StorePermissionRequestRepository{}, repo)

		txManager, err := container.TxManager()
		require.NoError(t, err)
		require.NotNil(t, txManager)

		workflow, err := container.Workflow()
		require.NoError(t, err)

		created, err := workflow.CreateRequest(ctx, &permissionDomain.CreateRequestInput{
			RequesterID: "member",
			RequestType: permissionDomain.RequestTypeEdit,
			DataType:    "issue",
			DataID:      "42",
			Reason:      "fix typo",
		})
		require.NoError(t, err)
		assert.Equal(t, permissionDomain.StatusPending, created.Status)

		fetched, err := workflow.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, fetched.ID)
	})

	t.Run("Success_LifecycleSharesStore", func(t *testing.T) {
		container := NewContainer(storeModeConfig(t))
		defer func() { assert.NoError(t, container.Shutdown(ctx)) }()

		lifecycle, err := container.SecretLifecycle()
		require.NoError(t, err)

		out, err := lifecycle.StartSetup(ctx, "alice", "alice@example.com")
		require.NoError(t, err)
		assert.NotEmpty(t, out.Secret)

		enabled, err := lifecycle.IsEnabled(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("Success_NoAuditHandlerWithoutDatabase", func(t *testing.T) {
		container := NewContainer(storeModeConfig(t))

		handler, err := container.AuditLogHandler()
		require.NoError(t, err)
		assert.Nil(t, handler)

		recorder, err := container.AuditRecorder()
		require.NoError(t, err)
		assert.NotNil(t, recorder)
	})

	t.Run("Success_HTTPServer", func(t *testing.T) {
		container := NewContainer(storeModeConfig(t))
		defer func() { assert.NoError(t, container.Shutdown(ctx)) }()

		server, err := container.HTTPServer(ctx)
		require.NoError(t, err)
		require.NotNil(t, server)

		metricsServer, err := container.MetricsServer()
		require.NoError(t, err)
		assert.Nil(t, metricsServer)
	})

	t.Run("Error_InvalidPolicies", func(t *testing.T) {
		cfg := storeModeConfig(t)
		cfg.PermissionPolicies = "{not json"
		container := NewContainer(cfg)

		_, err := container.CapabilityResolver()
		assert.Error(t, err)
		_, err = container.PermissionRequestHandler()
		assert.Error(t, err)
	})

	t.Run("Error_InvalidAlgorithm", func(t *testing.T) {
		cfg := storeModeConfig(t)
		cfg.EncryptionAlgorithm = "rot13"
		container := NewContainer(cfg)

		_, err := container.KeyProvider()
		assert.Error(t, err)
	})

	t.Run("Success_MissingKeyDefersFailure", func(t *testing.T) {
		cfg := storeModeConfig(t)
		cfg.EncryptionKey = ""
		container := NewContainer(cfg)

		provider, err := container.KeyProvider()
		require.NoError(t, err)

		_, err = provider.Cipher(ctx)
		assert.ErrorIs(t, err, cryptoDomain.ErrCryptoUnavailable)
	})
}

func TestContainerBusinessMetrics(t *testing.T) {
	t.Run("Success_NoOpWhenDisabled", func(t *testing.T) {
		container := NewContainer(&config.Config{MetricsEnabled: false})

		provider, err := container.MetricsProvider()
		require.NoError(t, err)
		assert.Nil(t, provider)

		businessMetrics, err := container.BusinessMetrics()
		require.NoError(t, err)
		assert.NotNil(t, businessMetrics)
	})

	t.Run("Success_ProviderWhenEnabled", func(t *testing.T) {
		container := NewContainer(&config.Config{MetricsEnabled: true, MetricsNamespace: "di_test", MetricsPort: 0})
		defer func() { assert.NoError(t, container.Shutdown(context.Background())) }()

		provider, err := container.MetricsProvider()
		require.NoError(t, err)
		assert.NotNil(t, provider)

		metricsServer, err := container.MetricsServer()
		require.NoError(t, err)
		assert.NotNil(t, metricsServer)
	})
}

func TestContainerShutdown(t *testing.T) {
	container := NewContainer(&config.Config{LogLevel: "info"})

	assert.NoError(t, container.Shutdown(context.Background()))
}
