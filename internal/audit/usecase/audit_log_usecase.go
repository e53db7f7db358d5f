package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	auditDomain "github.com/allisson/trustcore/internal/audit/domain"
	apperrors "github.com/allisson/trustcore/internal/errors"
)

type auditLogUseCase struct {
	auditLogRepo AuditLogRepository
	clock        clockwork.Clock
}

// Record fills a UUIDv7 identifier and a UTC timestamp when the caller left them empty.
func (a *auditLogUseCase) Record(ctx context.Context, event *auditDomain.Event) error {
	if event.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return apperrors.Wrap(err, "failed to generate audit log id")
		}
		event.ID = id
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = a.clock.Now().UTC()
	}

	if err := a.auditLogRepo.Create(ctx, event); err != nil {
		return apperrors.Wrap(err, "failed to create audit log")
	}
	return nil
}

func (a *auditLogUseCase) List(
	ctx context.Context,
	filter auditDomain.ListFilter,
	offset, limit int,
) ([]*auditDomain.Event, error) {
	events, err := a.auditLogRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	return events, nil
}

func (a *auditLogUseCase) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	if days < 0 {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "days must be a non-negative number")
	}

	olderThan := a.clock.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	count, err := a.auditLogRepo.DeleteOlderThan(ctx, olderThan, dryRun)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit logs")
	}
	return count, nil
}

// NewAuditLogUseCase creates a repository-backed AuditLogUseCase.
func NewAuditLogUseCase(auditLogRepo AuditLogRepository, clock clockwork.Clock) AuditLogUseCase {
	return &auditLogUseCase{auditLogRepo: auditLogRepo, clock: clock}
}
