// Package http exposes the permission request workflow over HTTP.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/trustcore/internal/errors"
	"github.com/allisson/trustcore/internal/httputil"
	permissionDomain "github.com/allisson/trustcore/internal/permission/domain"
	"github.com/allisson/trustcore/internal/permission/http/dto"
	permissionService "github.com/allisson/trustcore/internal/permission/service"
	permissionUseCase "github.com/allisson/trustcore/internal/permission/usecase"
	"github.com/allisson/trustcore/internal/principal"
	customValidation "github.com/allisson/trustcore/internal/validation"
)

// PermissionRequestHandler handles the /v1/permission-requests and /v1/grants endpoints.
type PermissionRequestHandler struct {
	workflow     permissionUseCase.Workflow
	capabilities permissionService.CapabilityResolver
	logger       *slog.Logger
}

// NewPermissionRequestHandler creates a new permission request handler.
func NewPermissionRequestHandler(
	workflow permissionUseCase.Workflow,
	capabilities permissionService.CapabilityResolver,
	logger *slog.Logger,
) *PermissionRequestHandler {
	return &PermissionRequestHandler{workflow: workflow, capabilities: capabilities, logger: logger}
}

// CreateHandler submits a permission request on behalf of the caller.
// POST /v1/permission-requests - Returns 201 with the pending request.
func (h *PermissionRequestHandler) CreateHandler(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	var req dto.CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	created, err := h.workflow.CreateRequest(c.Request.Context(), req.ToInput(p))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapPermissionRequestToResponse(created))
}

// ListHandler lists permission requests newest first.
// GET /v1/permission-requests?status=&requester_id=&offset=0&limit=50
func (h *PermissionRequestHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	filter := permissionDomain.ListFilter{
		Status:      permissionDomain.Status(c.Query("status")),
		RequesterID: c.Query("requester_id"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid status: must be one of pending, approved, denied, expired"),
			h.logger)
		return
	}

	requests, err := h.workflow.List(c.Request.Context(), filter, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPermissionRequestsToListResponse(requests))
}

// GetHandler returns one permission request.
// GET /v1/permission-requests/:id
func (h *PermissionRequestHandler) GetHandler(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	req, err := h.workflow.Get(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPermissionRequestToResponse(req))
}

// ReviewHandler approves or denies a pending request as the caller.
// POST /v1/permission-requests/:id/review - Returns 200 with the reviewed request.
func (h *PermissionRequestHandler) ReviewHandler(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	var req dto.ReviewPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	reviewed, err := h.workflow.Review(c.Request.Context(), &permissionDomain.ReviewInput{
		RequestID:  id,
		ReviewerID: p.ID,
		Decision:   permissionDomain.Decision(req.Decision),
		Notes:      req.Notes,
		TTL:        req.TTL(),
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPermissionRequestToResponse(reviewed))
}

// ActiveGrantHandler reports whether the caller may mutate a record right now.
// GET /v1/grants/active?data_type=&data_id=&request_type=
func (h *PermissionRequestHandler) ActiveGrantHandler(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	key := permissionDomain.GrantKey{
		RequesterID: p.ID,
		DataType:    c.Query("data_type"),
		DataID:      c.Query("data_id"),
		RequestType: permissionDomain.RequestType(c.Query("request_type")),
	}
	if err := validation.Validate(key.DataType, validation.Required, customValidation.Identifier); err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("data_type: %w", err), h.logger)
		return
	}
	if err := key.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	caps, err := h.capabilities.Resolve(c.Request.Context(), p.ID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	if caps.Allows(key.DataType, key.RequestType) {
		c.JSON(http.StatusOK, dto.ActiveGrantResponse{Active: true, Blanket: true})
		return
	}

	active, err := h.workflow.HasActiveGrant(c.Request.Context(), key)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ActiveGrantResponse{Active: active})
}

func (h *PermissionRequestHandler) principal(c *gin.Context) (*principal.Principal, bool) {
	p, ok := principal.FromContext(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return nil, false
	}
	return p, true
}

func (h *PermissionRequestHandler) requestID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid permission request ID format: must be a valid UUID"),
			h.logger)
		return uuid.Nil, false
	}
	return id, true
}
