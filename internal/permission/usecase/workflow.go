package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	auditDomain "github.com/allisson/trustcore/internal/audit/domain"
	auditUseCase "github.com/allisson/trustcore/internal/audit/usecase"
	"github.com/allisson/trustcore/internal/database"
	apperrors "github.com/allisson/trustcore/internal/errors"
	"github.com/allisson/trustcore/internal/lockutil"
	permissionDomain "github.com/allisson/trustcore/internal/permission/domain"
	permissionService "github.com/allisson/trustcore/internal/permission/service"
)

// DefaultGrantTTL is used when neither the review nor the configuration sets a lifetime.
const DefaultGrantTTL = time.Hour

type workflow struct {
	txManager  database.TxManager
	repo       PermissionRequestRepository
	authorizer permissionService.ReviewerAuthorizer
	audit      auditUseCase.Recorder
	clock      clockwork.Clock
	defaultTTL time.Duration
	index      *grantIndex
	locks      *lockutil.KeyedMutex
	logger     *slog.Logger
}

// NewWorkflow creates a Workflow. A non-positive defaultTTL falls back to DefaultGrantTTL.
func NewWorkflow(
	txManager database.TxManager,
	repo PermissionRequestRepository,
	authorizer permissionService.ReviewerAuthorizer,
	audit auditUseCase.Recorder,
	clock clockwork.Clock,
	defaultTTL time.Duration,
	logger *slog.Logger,
) Workflow {
	if defaultTTL <= 0 {
		defaultTTL = DefaultGrantTTL
	}
	return &workflow{
		txManager:  txManager,
		repo:       repo,
		authorizer: authorizer,
		audit:      audit,
		clock:      clock,
		defaultTTL: defaultTTL,
		index:      newGrantIndex(),
		locks:      lockutil.NewKeyedMutex(),
		logger:     logger,
	}
}

func (w *workflow) HasActiveGrant(ctx context.Context, key permissionDomain.GrantKey) (bool, error) {
	if err := key.Validate(); err != nil {
		return false, err
	}

	now := w.now()
	if w.index.active(key, now) {
		return true, nil
	}

	approved, err := w.repo.ListApproved(ctx, key)
	if err != nil {
		return false, err
	}

	active := false
	for _, req := range approved {
		if req.IsActiveGrant(now) {
			w.index.put(key, *req.ExpiresAt, now)
			active = true
			continue
		}
		if err := w.repo.MarkExpired(ctx, req.ID); err != nil {
			w.logger.Warn("failed to expire stale grant",
				slog.String("request_id", req.ID.String()),
				slog.Any("error", err))
			continue
		}
		w.record(ctx, auditDomain.KindPermissionExpired, "", true, map[string]any{
			"request_id": req.ID.String(),
			"expired":    1,
		})
	}
	return active, nil
}

func (w *workflow) CreateRequest(
	ctx context.Context,
	input *permissionDomain.CreateRequestInput,
) (*permissionDomain.PermissionRequest, error) {
	if strings.TrimSpace(input.Reason) == "" {
		return nil, permissionDomain.ErrReasonRequired
	}
	key := permissionDomain.GrantKey{
		RequesterID: input.RequesterID,
		DataType:    input.DataType,
		DataID:      input.DataID,
		RequestType: input.RequestType,
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate permission request id")
	}

	req := &permissionDomain.PermissionRequest{
		ID:             id,
		RequesterID:    input.RequesterID,
		RequesterName:  input.RequesterName,
		RequesterEmail: input.RequesterEmail,
		RequestType:    input.RequestType,
		DataType:       input.DataType,
		DataID:         input.DataID,
		DataName:       input.DataName,
		Reason:         strings.TrimSpace(input.Reason),
		Status:         permissionDomain.StatusPending,
		RequestedAt:    w.now(),
	}
	if err := w.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	w.record(ctx, auditDomain.KindPermissionRequested, req.RequesterID, true, requestMetadata(req))
	return req, nil
}

func (w *workflow) Review(
	ctx context.Context,
	input *permissionDomain.ReviewInput,
) (*permissionDomain.PermissionRequest, error) {
	if !input.Decision.Valid() {
		return nil, permissionDomain.ErrInvalidDecision
	}
	if input.TTL < 0 {
		return nil, permissionDomain.ErrInvalidTTL
	}
	if !w.authorizer.CanReview(ctx, input.ReviewerID) {
		w.record(ctx, auditDomain.KindPermissionReviewed, input.ReviewerID, false, map[string]any{
			"request_id": input.RequestID.String(),
			"reason":     "reviewer_not_authorized",
		})
		return nil, permissionDomain.ErrReviewerNotAuthorized
	}

	ttl := input.TTL
	if ttl == 0 {
		ttl = w.defaultTTL
	}

	// Every request belongs to exactly one tuple, so locking the tuple also serializes reviews
	// of the same request. The lock covers the index update so the index and storage agree on
	// which approval won.
	current, err := w.repo.Get(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}
	key := current.GrantKey()
	unlock := w.locks.Lock("grant:" + key.String())
	defer unlock()

	var reviewed *permissionDomain.PermissionRequest
	var superseded int64
	err = w.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := w.repo.LockGrant(ctx, key); err != nil {
			return err
		}

		req, err := w.repo.Get(ctx, input.RequestID)
		if err != nil {
			return err
		}
		if req.Status != permissionDomain.StatusPending {
			return permissionDomain.ErrRequestNotPending
		}

		now := w.now()
		req.ReviewedBy = strings.TrimSpace(input.ReviewerID)
		req.ReviewedAt = &now
		req.ReviewNotes = input.Notes
		if input.Decision == permissionDomain.DecisionApprove {
			expiresAt := now.Add(ttl)
			req.Status = permissionDomain.StatusApproved
			req.ExpiresAt = &expiresAt
		} else {
			req.Status = permissionDomain.StatusDenied
		}

		if err := w.repo.UpdateReview(ctx, req); err != nil {
			return err
		}
		if req.Status == permissionDomain.StatusApproved {
			if superseded, err = w.repo.SupersedeGrants(ctx, key, req.ID); err != nil {
				return err
			}
		}
		reviewed = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	if reviewed.Status == permissionDomain.StatusApproved {
		w.index.put(key, *reviewed.ExpiresAt, w.now())
	}

	metadata := requestMetadata(reviewed)
	metadata["decision"] = string(input.Decision)
	if reviewed.ExpiresAt != nil {
		metadata["expires_at"] = reviewed.ExpiresAt.Format(time.RFC3339)
	}
	w.record(ctx, auditDomain.KindPermissionReviewed, reviewed.ReviewedBy, true, metadata)
	if superseded > 0 {
		w.record(ctx, auditDomain.KindPermissionSuperseded, reviewed.ReviewedBy, true, map[string]any{
			"request_id": reviewed.ID.String(),
			"superseded": superseded,
		})
	}
	return reviewed, nil
}

func (w *workflow) Gate(
	ctx context.Context,
	caps permissionDomain.Capabilities,
	key permissionDomain.GrantKey,
	action func(ctx context.Context) error,
) (permissionDomain.ExecutionOutcome, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}

	if !caps.Allows(key.DataType, key.RequestType) {
		active, err := w.HasActiveGrant(ctx, key)
		if err != nil {
			return "", err
		}
		if !active {
			return permissionDomain.OutcomePendingApprovalRequired, nil
		}
	}
	return permissionDomain.OutcomeExecuted, action(ctx)
}

func (w *workflow) Get(ctx context.Context, id uuid.UUID) (*permissionDomain.PermissionRequest, error) {
	return w.repo.Get(ctx, id)
}

func (w *workflow) List(
	ctx context.Context,
	filter permissionDomain.ListFilter,
	offset, limit int,
) ([]*permissionDomain.PermissionRequest, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "unknown permission request status")
	}
	return w.repo.List(ctx, filter, offset, limit)
}

func (w *workflow) ExpireGrants(ctx context.Context) (int64, error) {
	now := w.now()
	count, err := w.repo.ExpireStale(ctx, now)
	if err != nil {
		return 0, err
	}
	w.index.sweep(now)

	if count > 0 {
		w.record(ctx, auditDomain.KindPermissionExpired, "", true, map[string]any{"expired": count})
	}
	return count, nil
}

func (w *workflow) now() time.Time {
	return w.clock.Now().UTC()
}

func (w *workflow) record(
	ctx context.Context,
	kind, principalID string,
	ok bool,
	metadata map[string]any,
) {
	event := &auditDomain.Event{
		Kind:        kind,
		Category:    auditDomain.CategoryPermission,
		PrincipalID: principalID,
		Outcome:     auditDomain.OutcomeOf(ok),
		Message:     messages[kind],
		Metadata:    metadata,
		CreatedAt:   w.now(),
	}
	if err := w.audit.Record(ctx, event); err != nil {
		w.logger.Warn("failed to record permission audit event",
			slog.String("kind", kind),
			slog.Any("error", err))
	}
}

func requestMetadata(req *permissionDomain.PermissionRequest) map[string]any {
	return map[string]any{
		"request_id":   req.ID.String(),
		"requester_id": req.RequesterID,
		"request_type": string(req.RequestType),
		"data_type":    req.DataType,
		"data_id":      req.DataID,
		"status":       string(req.Status),
	}
}

var messages = map[string]string{
	auditDomain.KindPermissionRequested:  "permission requested",
	auditDomain.KindPermissionReviewed:   "permission request reviewed",
	auditDomain.KindPermissionSuperseded: "earlier grants superseded",
	auditDomain.KindPermissionExpired:    "permission grants expired",
}
