// Package usecase records and queries audit events.
package usecase

import (
	"context"
	"time"

	auditDomain "github.com/allisson/trustcore/internal/audit/domain"
)

// Recorder accepts audit events from other components.
type Recorder interface {
	Record(ctx context.Context, event *auditDomain.Event) error
}

// AuditLogRepository persists audit events.
type AuditLogRepository interface {
	Create(ctx context.Context, event *auditDomain.Event) error
	List(ctx context.Context, filter auditDomain.ListFilter, offset, limit int) ([]*auditDomain.Event, error)
	DeleteOlderThan(ctx context.Context, olderThan time.Time, dryRun bool) (int64, error)
}

// AuditLogUseCase is the repository-backed Recorder with listing and retention.
type AuditLogUseCase interface {
	Recorder

	// List returns events newest first.
	List(ctx context.Context, filter auditDomain.ListFilter, offset, limit int) ([]*auditDomain.Event, error)

	// DeleteOlderThan removes events older than days, or only counts them when dryRun is set.
	DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error)
}
