// Package http exposes the TOTP lifecycle over HTTP for the calling principal.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/trustcore/internal/errors"
	"github.com/allisson/trustcore/internal/httputil"
	"github.com/allisson/trustcore/internal/principal"
	totpDomain "github.com/allisson/trustcore/internal/totp/domain"
	"github.com/allisson/trustcore/internal/totp/http/dto"
	totpUseCase "github.com/allisson/trustcore/internal/totp/usecase"
	customValidation "github.com/allisson/trustcore/internal/validation"
)

// TOTPHandler handles the /v1/totp endpoints.
type TOTPHandler struct {
	lifecycle totpUseCase.SecretLifecycle
	logger    *slog.Logger
}

// NewTOTPHandler creates a new TOTP handler.
func NewTOTPHandler(lifecycle totpUseCase.SecretLifecycle, logger *slog.Logger) *TOTPHandler {
	return &TOTPHandler{lifecycle: lifecycle, logger: logger}
}

// SetupHandler starts provisioning.
// POST /v1/totp/setup - Returns 201 with the secret and otpauth:// URI.
func (h *TOTPHandler) SetupHandler(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	var req dto.SetupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.HandleValidationErrorGin(c, err, h.logger)
			return
		}
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	label := req.AccountLabel
	if label == "" {
		label = p.Email
	}

	output, err := h.lifecycle.StartSetup(c.Request.Context(), p.ID, label)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapSetupOutputToResponse(output))
}

// VerifyHandler checks a code without changing state.
// POST /v1/totp/verify - Returns 200 with {"valid": bool}.
func (h *TOTPHandler) VerifyHandler(c *gin.Context) {
	p, req, ok := h.bindCode(c)
	if !ok {
		return
	}

	valid, err := h.lifecycle.VerifyCode(c.Request.Context(), p.ID, req.Code)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.VerifyResponse{Valid: valid})
}

// EnableHandler confirms a provisional secret.
// POST /v1/totp/enable - Returns 200 on success, 401 when the code is rejected.
func (h *TOTPHandler) EnableHandler(c *gin.Context) {
	p, req, ok := h.bindCode(c)
	if !ok {
		return
	}

	enabled, err := h.lifecycle.ConfirmEnable(c.Request.Context(), p.ID, req.Code)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	if !enabled {
		httputil.HandleErrorGin(c, totpDomain.ErrInvalidCode, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.StatusResponse{Enabled: true})
}

// DisableHandler removes an enabled secret.
// POST /v1/totp/disable - Returns 200 on success, 401 when the code is rejected.
func (h *TOTPHandler) DisableHandler(c *gin.Context) {
	p, req, ok := h.bindCode(c)
	if !ok {
		return
	}

	disabled, err := h.lifecycle.Disable(c.Request.Context(), p.ID, req.Code)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	if !disabled {
		httputil.HandleErrorGin(c, totpDomain.ErrInvalidCode, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.StatusResponse{Enabled: false})
}

// RecoveryCodesHandler issues a new set of recovery codes.
// POST /v1/totp/recovery-codes - Returns 201 with the plain codes.
func (h *TOTPHandler) RecoveryCodesHandler(c *gin.Context) {
	p, req, ok := h.bindCode(c)
	if !ok {
		return
	}

	codes, err := h.lifecycle.GenerateRecoveryCodes(c.Request.Context(), p.ID, req.Code)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.RecoveryCodesResponse{RecoveryCodes: codes})
}

// RecoveryDisableHandler removes an enabled secret with a recovery code.
// POST /v1/totp/recovery-disable - Returns 200 on success, 401 when the code is rejected.
func (h *TOTPHandler) RecoveryDisableHandler(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	var req dto.RecoveryCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	disabled, err := h.lifecycle.DisableWithRecoveryCode(c.Request.Context(), p.ID, req.RecoveryCode)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	if !disabled {
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrUnauthorized, "invalid recovery code"), h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.StatusResponse{Enabled: false})
}

// StatusHandler reports whether the caller's second factor is enabled.
// GET /v1/totp/status
func (h *TOTPHandler) StatusHandler(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	enabled, err := h.lifecycle.IsEnabled(c.Request.Context(), p.ID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.StatusResponse{Enabled: enabled})
}

func (h *TOTPHandler) principal(c *gin.Context) (*principal.Principal, bool) {
	p, ok := principal.FromContext(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return nil, false
	}
	return p, true
}

func (h *TOTPHandler) bindCode(c *gin.Context) (*principal.Principal, *dto.CodeRequest, bool) {
	p, ok := h.principal(c)
	if !ok {
		return nil, nil, false
	}

	var req dto.CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return nil, nil, false
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return nil, nil, false
	}
	return p, &req, true
}
