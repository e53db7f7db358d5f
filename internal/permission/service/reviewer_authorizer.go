package service

import (
	"context"
	"strings"
)

type staticReviewerAuthorizer struct {
	allowed map[string]struct{}
}

// NewStaticReviewerAuthorizer accepts reviewers from ids. An empty list accepts any
// non-empty reviewer id.
func NewStaticReviewerAuthorizer(ids []string) ReviewerAuthorizer {
	allowed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			allowed[id] = struct{}{}
		}
	}
	return &staticReviewerAuthorizer{allowed: allowed}
}

func (a *staticReviewerAuthorizer) CanReview(_ context.Context, reviewerID string) bool {
	reviewerID = strings.TrimSpace(reviewerID)
	if reviewerID == "" {
		return false
	}
	if len(a.allowed) == 0 {
		return true
	}
	_, ok := a.allowed[reviewerID]
	return ok
}
