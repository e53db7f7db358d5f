// Package usecase implements the permission request workflow.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	permissionDomain "github.com/allisson/trustcore/internal/permission/domain"
)

// PermissionRequestRepository persists permission requests. Transitions are conditional on the
// stored status so concurrent writers cannot both win.
type PermissionRequestRepository interface {
	Create(ctx context.Context, req *permissionDomain.PermissionRequest) error

	// Get returns ErrRequestNotFound when id is unknown.
	Get(ctx context.Context, id uuid.UUID) (*permissionDomain.PermissionRequest, error)

	// List returns requests newest first.
	List(
		ctx context.Context,
		filter permissionDomain.ListFilter,
		offset, limit int,
	) ([]*permissionDomain.PermissionRequest, error)

	// ListApproved returns the approved requests for key, active or not.
	ListApproved(ctx context.Context, key permissionDomain.GrantKey) ([]*permissionDomain.PermissionRequest, error)

	// UpdateReview stores the review fields of req when the stored request is still pending and
	// returns ErrRequestNotPending otherwise.
	UpdateReview(ctx context.Context, req *permissionDomain.PermissionRequest) error

	// LockGrant serializes reviews of key until the surrounding transaction ends.
	LockGrant(ctx context.Context, key permissionDomain.GrantKey) error

	// SupersedeGrants expires every approved request for key other than exceptID.
	SupersedeGrants(ctx context.Context, key permissionDomain.GrantKey, exceptID uuid.UUID) (int64, error)

	// MarkExpired expires one approved request. Requests in any other state are left alone.
	MarkExpired(ctx context.Context, id uuid.UUID) error

	// ExpireStale expires every approved request with expires_at <= now.
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

// Workflow grants time-boxed edit and delete rights through reviewed requests.
type Workflow interface {
	// HasActiveGrant reports whether key holds an approved request expiring after now.
	HasActiveGrant(ctx context.Context, key permissionDomain.GrantKey) (bool, error)

	// CreateRequest stores a new pending request.
	CreateRequest(
		ctx context.Context,
		input *permissionDomain.CreateRequestInput,
	) (*permissionDomain.PermissionRequest, error)

	// Review approves or denies a pending request. Approval supersedes any earlier grant for
	// the same key.
	Review(ctx context.Context, input *permissionDomain.ReviewInput) (*permissionDomain.PermissionRequest, error)

	// Gate runs action when caps or an active grant allow it, and reports
	// OutcomePendingApprovalRequired without running it otherwise. An action error is returned
	// with OutcomeExecuted.
	Gate(
		ctx context.Context,
		caps permissionDomain.Capabilities,
		key permissionDomain.GrantKey,
		action func(ctx context.Context) error,
	) (permissionDomain.ExecutionOutcome, error)

	Get(ctx context.Context, id uuid.UUID) (*permissionDomain.PermissionRequest, error)

	List(
		ctx context.Context,
		filter permissionDomain.ListFilter,
		offset, limit int,
	) ([]*permissionDomain.PermissionRequest, error)

	// ExpireGrants marks every approved request at or past its expiry as expired.
	ExpireGrants(ctx context.Context) (int64, error)
}
