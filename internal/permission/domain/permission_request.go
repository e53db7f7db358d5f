// Package domain defines permission requests, grants and capability policies.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestType is the mutation a request asks permission for.
type RequestType string

const (
	RequestTypeEdit   RequestType = "edit"
	RequestTypeDelete RequestType = "delete"
)

// Valid reports whether t is edit or delete.
func (t RequestType) Valid() bool {
	return t == RequestTypeEdit || t == RequestTypeDelete
}

// Status is the lifecycle state of a permission request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
	StatusExpired  Status = "expired"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDenied, StatusExpired:
		return true
	}
	return false
}

// Decision is a reviewer's verdict.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionDeny    Decision = "deny"
)

// Valid reports whether d is approve or deny.
func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionDeny
}

// ExecutionOutcome reports whether a gated action ran.
type ExecutionOutcome string

const (
	OutcomeExecuted                ExecutionOutcome = "executed"
	OutcomePendingApprovalRequired ExecutionOutcome = "pending_approval_required"
)

// GrantKey identifies the tuple a grant applies to. At most one active grant exists per key.
type GrantKey struct {
	RequesterID string
	DataType    string
	DataID      string
	RequestType RequestType
}

// Validate checks that every component of the key is present.
func (k GrantKey) Validate() error {
	if strings.TrimSpace(k.RequesterID) == "" || strings.TrimSpace(k.DataType) == "" ||
		strings.TrimSpace(k.DataID) == "" {
		return ErrTargetRequired
	}
	if !k.RequestType.Valid() {
		return ErrInvalidRequestType
	}
	return nil
}

// String joins the key components. It names the key for locking and logs.
func (k GrantKey) String() string {
	return strings.Join([]string{k.RequesterID, k.DataType, k.DataID, string(k.RequestType)}, "/")
}

// PermissionRequest asks for temporary edit or delete rights on one record. Requests are
// never deleted; an approved request with a future ExpiresAt is the active grant.
type PermissionRequest struct {
	ID             uuid.UUID   `json:"id"`
	RequesterID    string      `json:"requester_id"`
	RequesterName  string      `json:"requester_name"`
	RequesterEmail string      `json:"requester_email"`
	RequestType    RequestType `json:"request_type"`
	DataType       string      `json:"data_type"`
	DataID         string      `json:"data_id"`
	DataName       string      `json:"data_name"`
	Reason         string      `json:"reason"`
	Status         Status      `json:"status"`
	RequestedAt    time.Time   `json:"requested_at"`
	ReviewedBy     string      `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time  `json:"reviewed_at,omitempty"`
	ReviewNotes    string      `json:"review_notes,omitempty"`
	ExpiresAt      *time.Time  `json:"expires_at,omitempty"`
}

// GrantKey returns the tuple this request applies to.
func (r *PermissionRequest) GrantKey() GrantKey {
	return GrantKey{
		RequesterID: r.RequesterID,
		DataType:    r.DataType,
		DataID:      r.DataID,
		RequestType: r.RequestType,
	}
}

// IsActiveGrant reports whether the request is approved and expires strictly after now.
func (r *PermissionRequest) IsActiveGrant(now time.Time) bool {
	return r.Status == StatusApproved && r.ExpiresAt != nil && r.ExpiresAt.After(now)
}

// IsStaleGrant reports whether the request is still approved but no longer active.
func (r *PermissionRequest) IsStaleGrant(now time.Time) bool {
	return r.Status == StatusApproved && !r.IsActiveGrant(now)
}

// CreateRequestInput carries a new request.
type CreateRequestInput struct {
	RequesterID    string
	RequesterName  string
	RequesterEmail string
	RequestType    RequestType
	DataType       string
	DataID         string
	DataName       string
	Reason         string
}

// ReviewInput carries a reviewer decision. A zero TTL uses the configured default.
type ReviewInput struct {
	RequestID  uuid.UUID
	ReviewerID string
	Decision   Decision
	Notes      string
	TTL        time.Duration
}

// ListFilter narrows request listing. Zero values mean no filter.
type ListFilter struct {
	Status      Status
	RequesterID string
}
