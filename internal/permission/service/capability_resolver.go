package service

import (
	"context"

	permissionDomain "github.com/allisson/trustcore/internal/permission/domain"
)

type policyCapabilityResolver struct {
	doc permissionDomain.PolicyDocument
}

// NewPolicyCapabilityResolver resolves capabilities from a static policy document. A
// principal receives its own policies plus those listed under "*".
func NewPolicyCapabilityResolver(doc permissionDomain.PolicyDocument) CapabilityResolver {
	return &policyCapabilityResolver{doc: doc}
}

func (r *policyCapabilityResolver) Resolve(
	_ context.Context,
	principalID string,
) (permissionDomain.Capabilities, error) {
	var policies []permissionDomain.Policy
	policies = append(policies, r.doc["*"]...)
	if principalID != "*" {
		policies = append(policies, r.doc[principalID]...)
	}
	return permissionDomain.Capabilities{Policies: policies}, nil
}
