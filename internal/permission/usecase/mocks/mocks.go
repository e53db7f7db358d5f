// Package mocks provides testify mocks for the permission use cases.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	permissionDomain "github.com/allisson/trustcore/internal/permission/domain"
)

// MockWorkflow is a mock of usecase.Workflow.
type MockWorkflow struct {
	mock.Mock
}

// NewMockWorkflow creates a mock whose expectations are asserted when the test ends.
func NewMockWorkflow(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorkflow {
	m := &MockWorkflow{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockWorkflow) HasActiveGrant(ctx context.Context, key permissionDomain.GrantKey) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockWorkflow) CreateRequest(
	ctx context.Context,
	input *permissionDomain.CreateRequestInput,
) (*permissionDomain.PermissionRequest, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*permissionDomain.PermissionRequest), args.Error(1)
}

func (m *MockWorkflow) Review(
	ctx context.Context,
	input *permissionDomain.ReviewInput,
) (*permissionDomain.PermissionRequest, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*permissionDomain.PermissionRequest), args.Error(1)
}

// Gate does not run action; tests that need it run it from a Run callback.
func (m *MockWorkflow) Gate(
	ctx context.Context,
	caps permissionDomain.Capabilities,
	key permissionDomain.GrantKey,
	action func(ctx context.Context) error,
) (permissionDomain.ExecutionOutcome, error) {
	args := m.Called(ctx, caps, key, action)
	return args.Get(0).(permissionDomain.ExecutionOutcome), args.Error(1)
}

func (m *MockWorkflow) Get(ctx context.Context, id uuid.UUID) (*permissionDomain.PermissionRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*permissionDomain.PermissionRequest), args.Error(1)
}

func (m *MockWorkflow) List(
	ctx context.Context,
	filter permissionDomain.ListFilter,
	offset, limit int,
) ([]*permissionDomain.PermissionRequest, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*permissionDomain.PermissionRequest), args.Error(1)
}

func (m *MockWorkflow) ExpireGrants(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockCapabilityResolver is a mock of service.CapabilityResolver.
type MockCapabilityResolver struct {
	mock.Mock
}

// NewMockCapabilityResolver creates a mock whose expectations are asserted when the test ends.
func NewMockCapabilityResolver(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCapabilityResolver {
	m := &MockCapabilityResolver{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCapabilityResolver) Resolve(
	ctx context.Context,
	principalID string,
) (permissionDomain.Capabilities, error) {
	args := m.Called(ctx, principalID)
	return args.Get(0).(permissionDomain.Capabilities), args.Error(1)
}
