package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/trustcore/internal/principal"
	totpDomain "github.com/allisson/trustcore/internal/totp/domain"
	"github.com/allisson/trustcore/internal/totp/http/dto"
	"github.com/allisson/trustcore/internal/totp/usecase/mocks"
)

func setupTestTOTPHandler(t *testing.T) (*TOTPHandler, *mocks.MockSecretLifecycle) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	lifecycle := mocks.NewMockSecretLifecycle(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewTOTPHandler(lifecycle, logger), lifecycle
}

func createTestContext(method, target string, body any, p *principal.Principal) (*gin.Context, *httptest.ResponseRecorder) {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if p != nil {
		req = req.WithContext(principal.WithPrincipal(req.Context(), p))
	}
	c.Request = req
	return c, w
}

var alice = &principal.Principal{ID: "alice", Name: "Alice", Email: "alice@example.com"}

func TestTOTPHandler_SetupHandler(t *testing.T) {
	t.Run("Success_DefaultsLabelToEmail", func(t *testing.T) {
		handler, lifecycle := setupTestTOTPHandler(t)

		output := &totpDomain.SetupOutput{
			Secret:          "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP",
			ProvisioningURI: "otpauth://totp/trustcore:alice@example.com?secret=JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP",
		}
		lifecycle.On("StartSetup", mock.Anything, "alice", "alice@example.com").Return(output, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/totp/setup", nil, alice)
		handler.SetupHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response dto.SetupResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, output.Secret, response.Secret)
		assert.Equal(t, output.ProvisioningURI, response.ProvisioningURI)
	})

	t.Run("Success_ExplicitLabel", func(t *testing.T) {
		handler, lifecycle := setupTestTOTPHandler(t)

		lifecycle.On("StartSetup", mock.Anything, "alice", "laptop").
			Return(&totpDomain.SetupOutput{Secret: "S", ProvisioningURI: "otpauth://totp/x"}, nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/totp/setup", dto.SetupRequest{AccountLabel: "laptop"}, alice)
		handler.SetupHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Error_MissingPrincipal", func(t *testing.T) {
		handler, _ := setupTestTOTPHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/totp/setup", nil, nil)
		handler.SetupHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Error_LabelWithWhitespace", func(t *testing.T) {
		handler, _ := setupTestTOTPHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/totp/setup", dto.SetupRequest{AccountLabel: " laptop"}, alice)
		handler.SetupHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_UseCaseFailure", func(t *testing.T) {
		handler, lifecycle := setupTestTOTPHandler(t)

		lifecycle.On("StartSetup", mock.Anything, "alice", "alice@example.com").
			Return(nil, errors.New("boom")).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/totp/setup", nil, alice)
		handler.SetupHandler(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestTOTPHandler_VerifyHandler(t *testing.T) {
	t.Run("Success_Valid", func(t *testing.T) {
		handler, lifecycle := setupTestTOTPHandler(t)
		lifecycle.On("VerifyCode", mock.Anything, "alice", "123456").Return(true, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/totp/verify", dto.CodeRequest{Code: "123456"}, alice)
		handler.VerifyHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"valid":true}`, w.Body.String())
	})

	t.Run("Success_Invalid", func(t *testing.T) {
		handler, lifecycle := setupTestTOTPHandler(t)
		lifecycle.On("VerifyCode", mock.Anything, "alice", "000000").Return(false, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/totp/verify", dto.CodeRequest{Code: "000000"}, alice)
		handler.VerifyHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"valid":false}`, w.Body.String())
	})

	t.Run("Error_MalformedCode", func(t *testing.T) {
		handler, _ := setupTestTOTPHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/totp/verify", dto.CodeRequest{Code: "12ab56"}, alice)
		handler.VerifyHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_InvalidJSON", func(t *testing.T) {
		handler, _ := setupTestTOTPHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/totp/verify", nil, alice)
		c.Request.Body = io.NopCloser(bytes.NewBufferString("{"))
		handler.VerifyHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestTOTPHandler_EnableHandler(t *testing.T) {
	t.Run("Success_Enabled", func(t *testing.T) {
		handler, lifecycle := setupTestTOTPHandler(t)
		lifecycle.On("ConfirmEnable", mock.Anything, "alice", "123456").Return(true, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/totp/enable", dto.CodeRequest{Code: "123456"}, alice)
		handler.EnableHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"enabled":true}`, w.Body.String())
	})

	t.Run("Error_CodeRejected", func(t *testing.T) {
		handler, lifecycle := setupTestTOTPHandler(t)
		lifecycle.On("ConfirmEnable", mock.Anything, "alice", "123456").Return(false, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/totp/enable", dto.CodeRequest{Code: "123456"}, alice)
		handler.EnableHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Error_NoSecret", func(t *testing.T) {
		handler, lifecycle := setupTestTOTPHandler(t)
		lifecycle.On("ConfirmEnable", mock.Anything, "alice", "123456").
			Return(false, totpDomain.ErrSecretNotFound).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/totp/enable", dto.CodeRequest{Code: "123456"}, alice)
		handler.EnableHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTOTPHandler_DisableHandler(t *testing.T) {
	t.Run("Success_Disabled", func(t *testing.T) {
		handler, lifecycle := setupTestTOTPHandler(t)
		lifecycle.On("Disable", mock.Anything, "alice", "654321").Return(true, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/totp/disable", dto.CodeRequest{Code: "654321"}, alice)
		handler.DisableHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"enabled":false}`, w.Body.String())
	})

	t.Run("Error_CodeRejected", func(t *testing.T) {
		handler, lifecycle := setupTestTOTPHandler(t)
		lifecycle.On("Disable", mock.Anything, "alice", "654321").Return(false, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/totp/disable", dto.CodeRequest{Code: "654321"}, alice)
		handler.DisableHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestTOTPHandler_RecoveryCodesHandler(t *testing.T) {
	t.Run("Success_Issued", func(t *testing.T) {
		handler, lifecycle := setupTestTOTPHandler(t)
		codes := []string{"abcd-efgh-ijkl-mnop", "qrst-uvwx-yz23-4567"}
		lifecycle.On("GenerateRecoveryCodes", mock.Anything, "alice", "123456").Return(codes, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/totp/recovery-codes", dto.CodeRequest{Code: "123456"}, alice)
		handler.RecoveryCodesHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response dto.RecoveryCodesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, codes, response.RecoveryCodes)
	})

	t.Run("Error_NotEnabled", func(t *testing.T) {
		handler, lifecycle := setupTestTOTPHandler(t)
		lifecycle.On("GenerateRecoveryCodes", mock.Anything, "alice", "123456").
			Return(nil, totpDomain.ErrNotEnabled).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/totp/recovery-codes", dto.CodeRequest{Code: "123456"}, alice)
		handler.RecoveryCodesHandler(c)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestTOTPHandler_RecoveryDisableHandler(t *testing.T) {
	t.Run("Success_Disabled", func(t *testing.T) {
		handler, lifecycle := setupTestTOTPHandler(t)
		lifecycle.On("DisableWithRecoveryCode", mock.Anything, "alice", "abcd-efgh-ijkl-mnop").
			Return(true, nil).
			Once()

		c, w := createTestContext(
			http.MethodPost,
			"/v1/totp/recovery-disable",
			dto.RecoveryCodeRequest{RecoveryCode: "abcd-efgh-ijkl-mnop"},
			alice,
		)
		handler.RecoveryDisableHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Error_CodeRejected", func(t *testing.T) {
		handler, lifecycle := setupTestTOTPHandler(t)
		lifecycle.On("DisableWithRecoveryCode", mock.Anything, "alice", "abcd-efgh-ijkl-mnop").
			Return(false, nil).
			Once()

		c, w := createTestContext(
			http.MethodPost,
			"/v1/totp/recovery-disable",
			dto.RecoveryCodeRequest{RecoveryCode: "abcd-efgh-ijkl-mnop"},
			alice,
		)
		handler.RecoveryDisableHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Error_MissingCode", func(t *testing.T) {
		handler, _ := setupTestTOTPHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/totp/recovery-disable", dto.RecoveryCodeRequest{}, alice)
		handler.RecoveryDisableHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestTOTPHandler_StatusHandler(t *testing.T) {
	t.Run("Success_Enabled", func(t *testing.T) {
		handler, lifecycle := setupTestTOTPHandler(t)
		lifecycle.On("IsEnabled", mock.Anything, "alice").Return(true, nil).Once()

		c, w := createTestContext(http.MethodGet, "/v1/totp/status", nil, alice)
		handler.StatusHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"enabled":true}`, w.Body.String())
	})

	t.Run("Error_MissingPrincipal", func(t *testing.T) {
		handler, _ := setupTestTOTPHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/totp/status", nil, nil)
		handler.StatusHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
