// Package mocks provides testify mocks for the TOTP use cases.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	totpDomain "github.com/allisson/trustcore/internal/totp/domain"
)

// MockSecretLifecycle is a mock of usecase.SecretLifecycle.
type MockSecretLifecycle struct {
	mock.Mock
}

// NewMockSecretLifecycle creates a mock whose expectations are asserted when the test ends.
func NewMockSecretLifecycle(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSecretLifecycle {
	m := &MockSecretLifecycle{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSecretLifecycle) StartSetup(
	ctx context.Context,
	principalID, accountLabel string,
) (*totpDomain.SetupOutput, error) {
	args := m.Called(ctx, principalID, accountLabel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*totpDomain.SetupOutput), args.Error(1)
}

func (m *MockSecretLifecycle) VerifyCode(ctx context.Context, principalID, code string) (bool, error) {
	args := m.Called(ctx, principalID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockSecretLifecycle) ConfirmEnable(ctx context.Context, principalID, code string) (bool, error) {
	args := m.Called(ctx, principalID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockSecretLifecycle) Disable(ctx context.Context, principalID, code string) (bool, error) {
	args := m.Called(ctx, principalID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockSecretLifecycle) IsEnabled(ctx context.Context, principalID string) (bool, error) {
	args := m.Called(ctx, principalID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSecretLifecycle) GenerateRecoveryCodes(
	ctx context.Context,
	principalID, code string,
) ([]string, error) {
	args := m.Called(ctx, principalID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSecretLifecycle) DisableWithRecoveryCode(
	ctx context.Context,
	principalID, recoveryCode string,
) (bool, error) {
	args := m.Called(ctx, principalID, recoveryCode)
	return args.Bool(0), args.Error(1)
}
