package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	permissionDomain "github.com/allisson/trustcore/internal/permission/domain"
	permissionUseCase "github.com/allisson/trustcore/internal/permission/usecase"
)

// RunReviewRequest approves or denies a pending permission request as reviewer. A zero
// ttl uses the configured default grant lifetime.
func RunReviewRequest(
	ctx context.Context,
	workflow permissionUseCase.Workflow,
	logger *slog.Logger,
	w io.Writer,
	requestID string,
	reviewer string,
	decision string,
	notes string,
	ttl time.Duration,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	id, err := uuid.Parse(requestID)
	if err != nil {
		return fmt.Errorf("invalid request ID format: %w", err)
	}

	req, err := workflow.Review(ctx, &permissionDomain.ReviewInput{
		RequestID:  id,
		ReviewerID: reviewer,
		Decision:   permissionDomain.Decision(decision),
		Notes:      notes,
		TTL:        ttl,
	})
	if err != nil {
		return fmt.Errorf("failed to review request: %w", err)
	}

	logger.Info("permission request reviewed",
		slog.String("request_id", req.ID.String()),
		slog.String("reviewer", reviewer),
		slog.String("status", string(req.Status)),
	)

	if format == "json" {
		return writeJSON(w, req)
	}

	_, _ = fmt.Fprintf(w, "Request %s is now %s\n", req.ID, req.Status)
	if req.ExpiresAt != nil {
		_, _ = fmt.Fprintf(w, "Grant expires at %s\n", req.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return nil
}

// RunListRequests prints permission requests newest first.
func RunListRequests(
	ctx context.Context,
	workflow permissionUseCase.Workflow,
	w io.Writer,
	status string,
	requesterID string,
	offset, limit int,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	requests, err := workflow.List(ctx, permissionDomain.ListFilter{
		Status:      permissionDomain.Status(status),
		RequesterID: requesterID,
	}, offset, limit)
	if err != nil {
		return fmt.Errorf("failed to list requests: %w", err)
	}

	if format == "json" {
		return writeJSON(w, map[string]any{"data": requests})
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tREQUESTER\tTYPE\tDATA\tSTATUS\tREQUESTED AT\tEXPIRES AT")
	for _, req := range requests {
		expires := "-"
		if req.ExpiresAt != nil {
			expires = req.ExpiresAt.UTC().Format(time.RFC3339)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s/%s\t%s\t%s\t%s\n",
			req.ID,
			req.RequesterID,
			req.RequestType,
			req.DataType,
			req.DataID,
			req.Status,
			req.RequestedAt.UTC().Format(time.RFC3339),
			expires,
		)
	}
	return tw.Flush()
}

// RunExpireGrants marks every approved request past its expiry as expired.
func RunExpireGrants(
	ctx context.Context,
	workflow permissionUseCase.Workflow,
	logger *slog.Logger,
	w io.Writer,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	count, err := workflow.ExpireGrants(ctx)
	if err != nil {
		return fmt.Errorf("failed to expire grants: %w", err)
	}

	logger.Info("grant expiry sweep completed", slog.Int64("count", count))

	if format == "json" {
		return writeJSON(w, map[string]any{"expired": count})
	}
	_, err = fmt.Fprintf(w, "Expired %d grant(s)\n", count)
	return err
}
