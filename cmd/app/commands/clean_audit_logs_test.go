package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	auditMocks "github.com/allisson/trustcore/internal/audit/usecase/mocks"
)

func TestRunCleanAuditLogs(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	days := 30

	t.Run("Success_TextOutput", func(t *testing.T) {
		mockUseCase := auditMocks.NewMockAuditLogUseCase(t)
		mockUseCase.On("DeleteOlderThan", ctx, days, false).Return(int64(100), nil).Once()

		var out bytes.Buffer
		err := RunCleanAuditLogs(ctx, mockUseCase, logger, &out, days, false, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Successfully deleted 100 audit log(s)")
	})

	t.Run("Success_DryRunJSON", func(t *testing.T) {
		mockUseCase := auditMocks.NewMockAuditLogUseCase(t)
		mockUseCase.On("DeleteOlderThan", ctx, days, true).Return(int64(50), nil).Once()

		var out bytes.Buffer
		err := RunCleanAuditLogs(ctx, mockUseCase, logger, &out, days, true, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"count": 50`)
		require.Contains(t, out.String(), `"dry_run": true`)
	})

	t.Run("Error_NegativeDays", func(t *testing.T) {
		err := RunCleanAuditLogs(ctx, auditMocks.NewMockAuditLogUseCase(t), logger, &bytes.Buffer{}, -1, false, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "days must be a positive number")
	})

	t.Run("Error_UseCaseFails", func(t *testing.T) {
		mockUseCase := auditMocks.NewMockAuditLogUseCase(t)
		mockUseCase.On("DeleteOlderThan", ctx, days, false).Return(int64(0), context.DeadlineExceeded).Once()

		err := RunCleanAuditLogs(ctx, mockUseCase, logger, &bytes.Buffer{}, days, false, "text")

		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
