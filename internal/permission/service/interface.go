// Package service resolves standing capabilities and reviewer rights.
package service

import (
	"context"

	permissionDomain "github.com/allisson/trustcore/internal/permission/domain"
)

// CapabilityResolver returns the standing rights of a principal.
type CapabilityResolver interface {
	Resolve(ctx context.Context, principalID string) (permissionDomain.Capabilities, error)
}

// ReviewerAuthorizer decides whether a principal may review permission requests.
type ReviewerAuthorizer interface {
	CanReview(ctx context.Context, reviewerID string) bool
}
