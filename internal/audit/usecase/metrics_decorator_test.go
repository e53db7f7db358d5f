package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/trustcore/internal/audit/domain"
	"github.com/allisson/trustcore/internal/audit/usecase/mocks"
	metricsMocks "github.com/allisson/trustcore/internal/metrics/mocks"
)

func TestAuditLogUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_Record", func(t *testing.T) {
		next := &mocks.MockAuditLogUseCase{}
		m := &metricsMocks.MockBusinessMetrics{}
		useCase := NewAuditLogUseCaseWithMetrics(next, m)

		event := &auditDomain.Event{Kind: auditDomain.KindTOTPSetup}
		next.On("Record", ctx, event).Return(nil).Once()
		m.ExpectOperation(ctx, "audit", "audit_log_create", "success")

		require.NoError(t, useCase.Record(ctx, event))
		next.AssertExpectations(t)
		m.AssertExpectations(t)
	})

	t.Run("Error_List", func(t *testing.T) {
		next := &mocks.MockAuditLogUseCase{}
		m := &metricsMocks.MockBusinessMetrics{}
		useCase := NewAuditLogUseCaseWithMetrics(next, m)

		next.On("List", ctx, auditDomain.ListFilter{}, 0, 50).Return(nil, errors.New("boom")).Once()
		m.ExpectOperation(ctx, "audit", "audit_log_list", "error")

		_, err := useCase.List(ctx, auditDomain.ListFilter{}, 0, 50)
		assert.Error(t, err)
		m.AssertExpectations(t)
	})

	t.Run("Success_DeleteOlderThan", func(t *testing.T) {
		next := &mocks.MockAuditLogUseCase{}
		m := &metricsMocks.MockBusinessMetrics{}
		useCase := NewAuditLogUseCaseWithMetrics(next, m)

		next.On("DeleteOlderThan", ctx, 30, true).Return(int64(4), nil).Once()
		m.ExpectOperation(ctx, "audit", "audit_log_delete", "success")

		count, err := useCase.DeleteOlderThan(ctx, 30, true)
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)
		m.AssertExpectations(t)
	})
}
