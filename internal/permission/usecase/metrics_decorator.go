package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/trustcore/internal/metrics"
	permissionDomain "github.com/allisson/trustcore/internal/permission/domain"
)

const metricsDomain = "permission"

// workflowWithMetrics decorates Workflow with metrics instrumentation.
type workflowWithMetrics struct {
	next    Workflow
	metrics metrics.BusinessMetrics
}

// NewWorkflowWithMetrics wraps a Workflow with metrics recording.
func NewWorkflowWithMetrics(workflow Workflow, m metrics.BusinessMetrics) Workflow {
	return &workflowWithMetrics{next: workflow, metrics: m}
}

func (w *workflowWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.Status(err)
	w.metrics.RecordOperation(ctx, metricsDomain, operation, status)
	w.metrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

func (w *workflowWithMetrics) HasActiveGrant(ctx context.Context, key permissionDomain.GrantKey) (bool, error) {
	start := time.Now()
	active, err := w.next.HasActiveGrant(ctx, key)
	w.record(ctx, "grant_check", start, err)
	return active, err
}

func (w *workflowWithMetrics) CreateRequest(
	ctx context.Context,
	input *permissionDomain.CreateRequestInput,
) (*permissionDomain.PermissionRequest, error) {
	start := time.Now()
	req, err := w.next.CreateRequest(ctx, input)
	w.record(ctx, "request_create", start, err)
	return req, err
}

func (w *workflowWithMetrics) Review(
	ctx context.Context,
	input *permissionDomain.ReviewInput,
) (*permissionDomain.PermissionRequest, error) {
	start := time.Now()
	req, err := w.next.Review(ctx, input)
	w.record(ctx, "request_review", start, err)
	return req, err
}

func (w *workflowWithMetrics) Gate(
	ctx context.Context,
	caps permissionDomain.Capabilities,
	key permissionDomain.GrantKey,
	action func(ctx context.Context) error,
) (permissionDomain.ExecutionOutcome, error) {
	start := time.Now()
	outcome, err := w.next.Gate(ctx, caps, key, action)
	w.record(ctx, "gate", start, err)
	return outcome, err
}

func (w *workflowWithMetrics) Get(ctx context.Context, id uuid.UUID) (*permissionDomain.PermissionRequest, error) {
	start := time.Now()
	req, err := w.next.Get(ctx, id)
	w.record(ctx, "request_get", start, err)
	return req, err
}

func (w *workflowWithMetrics) List(
	ctx context.Context,
	filter permissionDomain.ListFilter,
	offset, limit int,
) ([]*permissionDomain.PermissionRequest, error) {
	start := time.Now()
	requests, err := w.next.List(ctx, filter, offset, limit)
	w.record(ctx, "request_list", start, err)
	return requests, err
}

func (w *workflowWithMetrics) ExpireGrants(ctx context.Context) (int64, error) {
	start := time.Now()
	count, err := w.next.ExpireGrants(ctx)
	w.record(ctx, "grant_expire", start, err)
	if err == nil {
		w.metrics.RecordBatchSize(ctx, metricsDomain, "grant_expire", int(count))
	}
	return count, err
}
