package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/trustcore/internal/database"
	apperrors "github.com/allisson/trustcore/internal/errors"
	permissionDomain "github.com/allisson/trustcore/internal/permission/domain"
)

const requestColumns = `id, requester_id, requester_name, requester_email, request_type, data_type, data_id,
	data_name, reason, status, requested_at, reviewed_by, reviewed_at, review_notes, expires_at`

// PostgreSQLPermissionRequestRepository implements permission request persistence for PostgreSQL.
type PostgreSQLPermissionRequestRepository struct {
	db *sql.DB
}

// NewPostgreSQLPermissionRequestRepository creates a new PostgreSQL permission request repository.
func NewPostgreSQLPermissionRequestRepository(db *sql.DB) *PostgreSQLPermissionRequestRepository {
	return &PostgreSQLPermissionRequestRepository{db: db}
}

func (p *PostgreSQLPermissionRequestRepository) Create(
	ctx context.Context,
	req *permissionDomain.PermissionRequest,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO permission_requests (` + requestColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := querier.ExecContext(
		ctx,
		query,
		req.ID,
		req.RequesterID,
		req.RequesterName,
		req.RequesterEmail,
		string(req.RequestType),
		req.DataType,
		req.DataID,
		req.DataName,
		req.Reason,
		string(req.Status),
		req.RequestedAt,
		nullString(req.ReviewedBy),
		req.ReviewedAt,
		nullString(req.ReviewNotes),
		req.ExpiresAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create permission request")
	}
	return nil
}

func (p *PostgreSQLPermissionRequestRepository) Get(
	ctx context.Context,
	id uuid.UUID,
) (*permissionDomain.PermissionRequest, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + requestColumns + ` FROM permission_requests WHERE id = $1`
	if isTx(ctx) {
		query += " FOR UPDATE"
	}

	req, err := scanRequest(querier.QueryRowContext(ctx, query, id), scanUUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, permissionDomain.ErrRequestNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get permission request")
	}
	return req, nil
}

func (p *PostgreSQLPermissionRequestRepository) List(
	ctx context.Context,
	filter permissionDomain.ListFilter,
	offset, limit int,
) ([]*permissionDomain.PermissionRequest, error) {
	querier := database.GetTx(ctx, p.db)

	conditions, args := listConditions(filter, pgPlaceholder)

	query := `SELECT ` + requestColumns + ` FROM permission_requests`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY requested_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list permission requests")
	}
	return collectRequests(rows, scanUUID)
}

func (p *PostgreSQLPermissionRequestRepository) ListApproved(
	ctx context.Context,
	key permissionDomain.GrantKey,
) ([]*permissionDomain.PermissionRequest, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + requestColumns + ` FROM permission_requests
			  WHERE requester_id = $1 AND data_type = $2 AND data_id = $3 AND request_type = $4 AND status = $5`

	rows, err := querier.QueryContext(
		ctx,
		query,
		key.RequesterID,
		key.DataType,
		key.DataID,
		string(key.RequestType),
		string(permissionDomain.StatusApproved),
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list approved permission requests")
	}
	return collectRequests(rows, scanUUID)
}

// UpdateReview only touches rows still pending; zero affected rows means another reviewer won.
func (p *PostgreSQLPermissionRequestRepository) UpdateReview(
	ctx context.Context,
	req *permissionDomain.PermissionRequest,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE permission_requests
			  SET status = $1, reviewed_by = $2, reviewed_at = $3, review_notes = $4, expires_at = $5
			  WHERE id = $6 AND status = $7`

	result, err := querier.ExecContext(
		ctx,
		query,
		string(req.Status),
		nullString(req.ReviewedBy),
		req.ReviewedAt,
		nullString(req.ReviewNotes),
		req.ExpiresAt,
		req.ID,
		string(permissionDomain.StatusPending),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update permission request")
	}
	return requireOneRow(result)
}

// LockGrant takes a transaction-scoped advisory lock on the tuple, so it also holds while no
// approved row exists yet.
func (p *PostgreSQLPermissionRequestRepository) LockGrant(
	ctx context.Context,
	key permissionDomain.GrantKey,
) error {
	querier := database.GetTx(ctx, p.db)

	if _, err := querier.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key.String()); err != nil {
		return apperrors.Wrap(err, "failed to lock permission grant")
	}
	return nil
}

func (p *PostgreSQLPermissionRequestRepository) SupersedeGrants(
	ctx context.Context,
	key permissionDomain.GrantKey,
	exceptID uuid.UUID,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE permission_requests SET status = $1
			  WHERE requester_id = $2 AND data_type = $3 AND data_id = $4 AND request_type = $5
			  AND status = $6 AND id <> $7`

	result, err := querier.ExecContext(
		ctx,
		query,
		string(permissionDomain.StatusExpired),
		key.RequesterID,
		key.DataType,
		key.DataID,
		string(key.RequestType),
		string(permissionDomain.StatusApproved),
		exceptID,
	)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to supersede permission grants")
	}
	return rowsAffected(result)
}

func (p *PostgreSQLPermissionRequestRepository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	_, err := querier.ExecContext(
		ctx,
		`UPDATE permission_requests SET status = $1 WHERE id = $2 AND status = $3`,
		string(permissionDomain.StatusExpired),
		id,
		string(permissionDomain.StatusApproved),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to expire permission request")
	}
	return nil
}

func (p *PostgreSQLPermissionRequestRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(
		ctx,
		`UPDATE permission_requests SET status = $1 WHERE status = $2 AND (expires_at IS NULL OR expires_at <= $3)`,
		string(permissionDomain.StatusExpired),
		string(permissionDomain.StatusApproved),
		now,
	)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to expire permission grants")
	}
	return rowsAffected(result)
}

func pgPlaceholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
