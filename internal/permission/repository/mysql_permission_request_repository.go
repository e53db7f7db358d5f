package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/trustcore/internal/database"
	apperrors "github.com/allisson/trustcore/internal/errors"
	permissionDomain "github.com/allisson/trustcore/internal/permission/domain"
)

// MySQLPermissionRequestRepository implements permission request persistence for MySQL. Ids are
// BINARY(16).
type MySQLPermissionRequestRepository struct {
	db *sql.DB
}

// NewMySQLPermissionRequestRepository creates a new MySQL permission request repository.
func NewMySQLPermissionRequestRepository(db *sql.DB) *MySQLPermissionRequestRepository {
	return &MySQLPermissionRequestRepository{db: db}
}

func (m *MySQLPermissionRequestRepository) Create(
	ctx context.Context,
	req *permissionDomain.PermissionRequest,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := marshalID(req.ID)
	if err != nil {
		return err
	}

	query := `INSERT INTO permission_requests (` + requestColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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

func (m *MySQLPermissionRequestRepository) Get(
	ctx context.Context,
	id uuid.UUID,
) (*permissionDomain.PermissionRequest, error) {
	querier := database.GetTx(ctx, m.db)

	binaryID, err := marshalID(id)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + requestColumns + ` FROM permission_requests WHERE id = ?`
	if isTx(ctx) {
		query += " FOR UPDATE"
	}

	req, err := scanRequest(querier.QueryRowContext(ctx, query, binaryID), scanBinaryUUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, permissionDomain.ErrRequestNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get permission request")
	}
	return req, nil
}

func (m *MySQLPermissionRequestRepository) List(
	ctx context.Context,
	filter permissionDomain.ListFilter,
	offset, limit int,
) ([]*permissionDomain.PermissionRequest, error) {
	querier := database.GetTx(ctx, m.db)

	conditions, args := listConditions(filter, func(int) string { return "?" })

	query := `SELECT ` + requestColumns + ` FROM permission_requests`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY requested_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list permission requests")
	}
	return collectRequests(rows, scanBinaryUUID)
}

func (m *MySQLPermissionRequestRepository) ListApproved(
	ctx context.Context,
	key permissionDomain.GrantKey,
) ([]*permissionDomain.PermissionRequest, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + requestColumns + ` FROM permission_requests
			  WHERE requester_id = ? AND data_type = ? AND data_id = ? AND request_type = ? AND status = ?`

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
	return collectRequests(rows, scanBinaryUUID)
}

func (m *MySQLPermissionRequestRepository) UpdateReview(
	ctx context.Context,
	req *permissionDomain.PermissionRequest,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := marshalID(req.ID)
	if err != nil {
		return err
	}

	query := `UPDATE permission_requests
			  SET status = ?, reviewed_by = ?, reviewed_at = ?, review_notes = ?, expires_at = ?
			  WHERE id = ? AND status = ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		string(req.Status),
		nullString(req.ReviewedBy),
		req.ReviewedAt,
		nullString(req.ReviewNotes),
		req.ExpiresAt,
		id,
		string(permissionDomain.StatusPending),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update permission request")
	}
	return requireOneRow(result)
}

// LockGrant locks every row of the tuple in id order. The request under review is one of
// them, so two reviews of the same tuple always contend.
func (m *MySQLPermissionRequestRepository) LockGrant(
	ctx context.Context,
	key permissionDomain.GrantKey,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id FROM permission_requests
			  WHERE requester_id = ? AND data_type = ? AND data_id = ? AND request_type = ?
			  ORDER BY id FOR UPDATE`

	rows, err := querier.QueryContext(ctx, query, key.RequesterID, key.DataType, key.DataID, string(key.RequestType))
	if err != nil {
		return apperrors.Wrap(err, "failed to lock permission grant")
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var id []byte
		if err := rows.Scan(&id); err != nil {
			return apperrors.Wrap(err, "failed to lock permission grant")
		}
	}
	if err := rows.Err(); err != nil {
		return apperrors.Wrap(err, "failed to lock permission grant")
	}
	return nil
}

func (m *MySQLPermissionRequestRepository) SupersedeGrants(
	ctx context.Context,
	key permissionDomain.GrantKey,
	exceptID uuid.UUID,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := marshalID(exceptID)
	if err != nil {
		return 0, err
	}

	query := `UPDATE permission_requests SET status = ?
			  WHERE requester_id = ? AND data_type = ? AND data_id = ? AND request_type = ?
			  AND status = ? AND id <> ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		string(permissionDomain.StatusExpired),
		key.RequesterID,
		key.DataType,
		key.DataID,
		string(key.RequestType),
		string(permissionDomain.StatusApproved),
		id,
	)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to supersede permission grants")
	}
	return rowsAffected(result)
}

func (m *MySQLPermissionRequestRepository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	binaryID, err := marshalID(id)
	if err != nil {
		return err
	}

	_, err = querier.ExecContext(
		ctx,
		`UPDATE permission_requests SET status = ? WHERE id = ? AND status = ?`,
		string(permissionDomain.StatusExpired),
		binaryID,
		string(permissionDomain.StatusApproved),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to expire permission request")
	}
	return nil
}

func (m *MySQLPermissionRequestRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(
		ctx,
		`UPDATE permission_requests SET status = ? WHERE status = ? AND (expires_at IS NULL OR expires_at <= ?)`,
		string(permissionDomain.StatusExpired),
		string(permissionDomain.StatusApproved),
		now,
	)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to expire permission grants")
	}
	return rowsAffected(result)
}

func marshalID(id uuid.UUID) ([]byte, error) {
	binaryID, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal permission request id")
	}
	return binaryID, nil
}
