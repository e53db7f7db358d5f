package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/trustcore/internal/audit/domain"
	auditHTTP "github.com/allisson/trustcore/internal/audit/http"
	auditMocks "github.com/allisson/trustcore/internal/audit/usecase/mocks"
	"github.com/allisson/trustcore/internal/config"
	"github.com/allisson/trustcore/internal/metrics"
	permissionHTTP "github.com/allisson/trustcore/internal/permission/http"
	permissionMocks "github.com/allisson/trustcore/internal/permission/usecase/mocks"
	"github.com/allisson/trustcore/internal/principal"
	totpHTTP "github.com/allisson/trustcore/internal/totp/http"
	totpMocks "github.com/allisson/trustcore/internal/totp/usecase/mocks"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createTestServer() *Server {
	return NewServer(nil, "localhost", 8080, discardLogger())
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

type routerFixture struct {
	server    *Server
	lifecycle *totpMocks.MockSecretLifecycle
	workflow  *permissionMocks.MockWorkflow
	audit     *auditMocks.MockAuditLogUseCase
}

func setupRouterFixture(t *testing.T, cfg *config.Config, withAudit bool) *routerFixture {
	t.Helper()
	logger := discardLogger()

	f := &routerFixture{
		server:    createTestServer(),
		lifecycle: totpMocks.NewMockSecretLifecycle(t),
		workflow:  permissionMocks.NewMockWorkflow(t),
	}

	var auditHandler *auditHTTP.AuditLogHandler
	if withAudit {
		f.audit = auditMocks.NewMockAuditLogUseCase(t)
		auditHandler = auditHTTP.NewAuditLogHandler(f.audit, logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	f.server.SetupRouter(
		ctx,
		cfg,
		totpHTTP.NewTOTPHandler(f.lifecycle, logger),
		permissionHTTP.NewPermissionRequestHandler(f.workflow, permissionMocks.NewMockCapabilityResolver(t), logger),
		auditHandler,
		nil,
	)
	return f
}

func (f *routerFixture) do(method, target, principalID string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	if principalID != "" {
		req.Header.Set(principal.HeaderID, principalID)
	}
	f.server.router.ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	server := createTestServer()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	server.healthHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeBody(t, w)["status"])
}

func TestReadinessHandler(t *testing.T) {
	call := func(server *Server) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
		server.readinessHandler(c)
		return w
	}

	t.Run("Error_NilDatabase", func(t *testing.T) {
		w := call(createTestServer())

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "not_ready", body["status"])
		assert.Equal(t, map[string]any{"database": "error"}, body["components"])
	})

	t.Run("Success_DatabaseReachable", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		mock.ExpectPing()

		w := call(NewServer(db, "localhost", 8080, discardLogger()))

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "ready", body["status"])
		assert.Equal(t, map[string]any{"database": "ok"}, body["components"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_DatabasePingFails", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		mock.ExpectPing().WillReturnError(assert.AnError)

		w := call(NewServer(db, "localhost", 8080, discardLogger()))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_StoreOnly", func(t *testing.T) {
		server := createTestServer()
		server.storeOnly = true

		w := call(server)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, map[string]any{"store": "ok"}, decodeBody(t, w)["components"])
	})
}

func TestCustomLoggerMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(discardLogger()))
	router.Use(principal.HeaderMiddleware(discardLogger()))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "test"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(principal.HeaderID, "alice")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", decodeBody(t, w)["message"])

	requestID, err := uuid.Parse(w.Header().Get("X-Request-Id"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, requestID)
}

func TestRecoveryMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CustomLoggerMiddleware(discardLogger()))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSetupRouter(t *testing.T) {
	cfg := &config.Config{DBDriver: "postgres", RateLimitEnabled: false, LogLevel: "info"}

	t.Run("Success_HealthIsPublic", func(t *testing.T) {
		f := setupRouterFixture(t, cfg, true)

		w := f.do(http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Error_V1RequiresPrincipal", func(t *testing.T) {
		f := setupRouterFixture(t, cfg, true)

		w := f.do(http.MethodGet, "/v1/totp/status", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Success_TOTPStatusRoute", func(t *testing.T) {
		f := setupRouterFixture(t, cfg, true)
		f.lifecycle.On("IsEnabled", mock.Anything, "alice").Return(true, nil).Once()

		w := f.do(http.MethodGet, "/v1/totp/status", "alice")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decodeBody(t, w)["enabled"])
	})

	t.Run("Success_PermissionRequestRouteReachesWorkflow", func(t *testing.T) {
		f := setupRouterFixture(t, cfg, true)
		id := uuid.Must(uuid.NewV7())
		f.workflow.On("Get", mock.Anything, id).Return(nil, assert.AnError).Once()

		w := f.do(http.MethodGet, "/v1/permission-requests/"+id.String(), "alice")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("Success_AuditRouteInDatabaseMode", func(t *testing.T) {
		f := setupRouterFixture(t, cfg, true)
		f.audit.On("List", mock.Anything, mock.Anything, 0, 50).
			Return([]*auditDomain.Event{}, nil).
			Once()

		w := f.do(http.MethodGet, "/v1/audit-logs", "alice")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Success_NoAuditRouteInStoreMode", func(t *testing.T) {
		f := setupRouterFixture(t, &config.Config{RateLimitEnabled: false}, false)

		w := f.do(http.MethodGet, "/v1/audit-logs", "alice")
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = f.do(http.MethodGet, "/ready", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Error_RateLimited", func(t *testing.T) {
		limited := &config.Config{RateLimitEnabled: true, RateLimitRequestsPerSec: 1, RateLimitBurst: 1}
		f := setupRouterFixture(t, limited, false)
		f.lifecycle.On("IsEnabled", mock.Anything, "bob").Return(false, nil).Once()

		assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/v1/totp/status", "bob").Code)
		w := f.do(http.MethodGet, "/v1/totp/status", "bob")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
	})

	t.Run("Success_NoMetricsEndpoint", func(t *testing.T) {
		f := setupRouterFixture(t, cfg, false)

		w := f.do(http.MethodGet, "/metrics", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestServer_StartWithoutRouter(t *testing.T) {
	assert.Error(t, createTestServer().Start(context.Background()))
}

func TestServer_ShutdownGracefully(t *testing.T) {
	server := NewServer(nil, "localhost", 0, discardLogger())
	server.router = gin.New()

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(context.Background())
	}()

	time.Sleep(100 * time.Millisecond)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(shutdownCtx))

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestMetricsServer_Endpoints(t *testing.T) {
	provider, err := metrics.NewProvider("test_app")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	metricsServer := NewMetricsServer("localhost", 8081, discardLogger(), provider)
	require.NotNil(t, metricsServer)

	w := httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}
