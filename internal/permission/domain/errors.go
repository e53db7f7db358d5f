package domain

import (
	"github.com/allisson/trustcore/internal/errors"
)

var (
	// ErrRequestNotFound indicates the permission request does not exist.
	ErrRequestNotFound = errors.Wrap(errors.ErrNotFound, "permission request not found")

	// ErrRequestNotPending indicates the request was already reviewed or expired.
	ErrRequestNotPending = errors.Wrap(errors.ErrNotFound, "permission request is not pending")

	// ErrReasonRequired indicates a request was submitted without a reason.
	ErrReasonRequired = errors.Wrap(errors.ErrInvalidInput, "reason is required")

	// ErrReviewerNotAuthorized indicates the reviewer may not decide permission requests.
	ErrReviewerNotAuthorized = errors.Wrap(errors.ErrForbidden, "reviewer is not authorized")

	// ErrInvalidRequestType indicates a request type other than edit or delete.
	ErrInvalidRequestType = errors.Wrap(errors.ErrInvalidInput, "request type must be edit or delete")

	// ErrInvalidDecision indicates a decision other than approve or deny.
	ErrInvalidDecision = errors.Wrap(errors.ErrInvalidInput, "decision must be approve or deny")

	// ErrInvalidTTL indicates a negative grant lifetime.
	ErrInvalidTTL = errors.Wrap(errors.ErrInvalidInput, "ttl must not be negative")

	// ErrTargetRequired indicates a request or grant check without requester or target data.
	ErrTargetRequired = errors.Wrap(errors.ErrInvalidInput, "requester id, data type and data id are required")

	// ErrInvalidPolicy indicates a malformed policy document.
	ErrInvalidPolicy = errors.Wrap(errors.ErrInvalidInput, "invalid policy document")
)
