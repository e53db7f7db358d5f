package usecase

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	auditDomain "github.com/allisson/trustcore/internal/audit/domain"
)

type logRecorder struct {
	logger *slog.Logger
	clock  clockwork.Clock
}

// NewLogRecorder returns a Recorder that writes events to the structured log. It is used
// when no database is configured.
func NewLogRecorder(logger *slog.Logger, clock clockwork.Clock) Recorder {
	return &logRecorder{logger: logger, clock: clock}
}

func (l *logRecorder) Record(ctx context.Context, event *auditDomain.Event) error {
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = l.clock.Now().UTC()
	}

	attrs := []slog.Attr{
		slog.String("kind", event.Kind),
		slog.String("category", string(event.Category)),
		slog.String("principal_id", event.PrincipalID),
		slog.String("outcome", string(event.Outcome)),
		slog.Time("created_at", createdAt),
	}
	if len(event.Metadata) > 0 {
		attrs = append(attrs, slog.Any("metadata", event.Metadata))
	}

	l.logger.LogAttrs(ctx, slog.LevelInfo, "audit: "+event.Message, attrs...)
	return nil
}
