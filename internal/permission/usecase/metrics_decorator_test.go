package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	metricsMocks "github.com/allisson/trustcore/internal/metrics/mocks"
	permissionDomain "github.com/allisson/trustcore/internal/permission/domain"
	"github.com/allisson/trustcore/internal/permission/usecase/mocks"
)

func TestWorkflowWithMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_CreateRequest", func(t *testing.T) {
		next := mocks.NewMockWorkflow(t)
		m := &metricsMocks.MockBusinessMetrics{}
		workflow := NewWorkflowWithMetrics(next, m)

		input := memberEditInput()
		req := &permissionDomain.PermissionRequest{ID: uuid.Must(uuid.NewV7())}
		next.On("CreateRequest", ctx, input).Return(req, nil).Once()
		m.ExpectOperation(ctx, "permission", "request_create", "success")

		got, err := workflow.CreateRequest(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, req, got)
		m.AssertExpectations(t)
	})

	t.Run("Error_Review", func(t *testing.T) {
		next := mocks.NewMockWorkflow(t)
		m := &metricsMocks.MockBusinessMetrics{}
		workflow := NewWorkflowWithMetrics(next, m)

		input := &permissionDomain.ReviewInput{RequestID: uuid.Must(uuid.NewV7()), ReviewerID: "admin"}
		next.On("Review", ctx, input).Return(nil, permissionDomain.ErrRequestNotPending).Once()
		m.ExpectOperation(ctx, "permission", "request_review", "error")

		_, err := workflow.Review(ctx, input)
		assert.ErrorIs(t, err, permissionDomain.ErrRequestNotPending)
		m.AssertExpectations(t)
	})

	t.Run("Success_GateAndGrantCheck", func(t *testing.T) {
		next := mocks.NewMockWorkflow(t)
		m := &metricsMocks.MockBusinessMetrics{}
		workflow := NewWorkflowWithMetrics(next, m)

		next.On("HasActiveGrant", ctx, memberEditKey).Return(true, nil).Once()
		next.On("Gate", ctx, permissionDomain.Capabilities{}, memberEditKey, mock.Anything).
			Return(permissionDomain.OutcomePendingApprovalRequired, nil).
			Once()
		m.ExpectOperation(ctx, "permission", "grant_check", "success")
		m.ExpectOperation(ctx, "permission", "gate", "success")

		active, err := workflow.HasActiveGrant(ctx, memberEditKey)
		require.NoError(t, err)
		assert.True(t, active)

		outcome, err := workflow.Gate(ctx, permissionDomain.Capabilities{}, memberEditKey, func(context.Context) error {
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, permissionDomain.OutcomePendingApprovalRequired, outcome)
		m.AssertExpectations(t)
	})

	t.Run("Success_GetAndList", func(t *testing.T) {
		next := mocks.NewMockWorkflow(t)
		m := &metricsMocks.MockBusinessMetrics{}
		workflow := NewWorkflowWithMetrics(next, m)

		id := uuid.Must(uuid.NewV7())
		next.On("Get", ctx, id).Return(&permissionDomain.PermissionRequest{ID: id}, nil).Once()
		next.On("List", ctx, permissionDomain.ListFilter{}, 0, 50).
			Return([]*permissionDomain.PermissionRequest{}, nil).
			Once()
		m.ExpectOperation(ctx, "permission", "request_get", "success")
		m.ExpectOperation(ctx, "permission", "request_list", "success")

		_, err := workflow.Get(ctx, id)
		require.NoError(t, err)
		_, err = workflow.List(ctx, permissionDomain.ListFilter{}, 0, 50)
		require.NoError(t, err)
		m.AssertExpectations(t)
	})

	t.Run("Success_ExpireGrantsRecordsBatchSize", func(t *testing.T) {
		next := mocks.NewMockWorkflow(t)
		m := &metricsMocks.MockBusinessMetrics{}
		workflow := NewWorkflowWithMetrics(next, m)

		next.On("ExpireGrants", ctx).Return(int64(3), nil).Once()
		m.ExpectOperation(ctx, "permission", "grant_expire", "success")
		m.On("RecordBatchSize", ctx, "permission", "grant_expire", 3).Return().Once()

		count, err := workflow.ExpireGrants(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
		m.AssertExpectations(t)
	})

	t.Run("Error_ExpireGrantsSkipsBatchSize", func(t *testing.T) {
		next := mocks.NewMockWorkflow(t)
		m := &metricsMocks.MockBusinessMetrics{}
		workflow := NewWorkflowWithMetrics(next, m)

		next.On("ExpireGrants", ctx).Return(int64(0), errors.New("db down")).Once()
		m.ExpectOperation(ctx, "permission", "grant_expire", "error")

		_, err := workflow.ExpireGrants(ctx)
		assert.Error(t, err)
		m.AssertExpectations(t)
	})
}
