package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/trustcore/internal/database"
	apperrors "github.com/allisson/trustcore/internal/errors"
	permissionDomain "github.com/allisson/trustcore/internal/permission/domain"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// idScanner returns a scan destination for the id column and a function decoding it.
type idScanner func(id *uuid.UUID) (dest any, decode func() error)

func scanUUID(id *uuid.UUID) (any, func() error) {
	return id, func() error { return nil }
}

func scanBinaryUUID(id *uuid.UUID) (any, func() error) {
	var raw []byte
	return &raw, func() error {
		if err := id.UnmarshalBinary(raw); err != nil {
			return apperrors.Wrap(err, "failed to unmarshal permission request id")
		}
		return nil
	}
}

func scanRequest(row rowScanner, scanID idScanner) (*permissionDomain.PermissionRequest, error) {
	var req permissionDomain.PermissionRequest
	var requestType, status string
	var reviewedBy, reviewNotes sql.NullString
	var reviewedAt, expiresAt sql.NullTime

	idDest, decodeID := scanID(&req.ID)
	if err := row.Scan(
		idDest,
		&req.RequesterID,
		&req.RequesterName,
		&req.RequesterEmail,
		&requestType,
		&req.DataType,
		&req.DataID,
		&req.DataName,
		&req.Reason,
		&status,
		&req.RequestedAt,
		&reviewedBy,
		&reviewedAt,
		&reviewNotes,
		&expiresAt,
	); err != nil {
		return nil, err
	}
	if err := decodeID(); err != nil {
		return nil, err
	}

	req.RequestType = permissionDomain.RequestType(requestType)
	req.Status = permissionDomain.Status(status)
	req.ReviewedBy = reviewedBy.String
	req.ReviewNotes = reviewNotes.String
	req.ReviewedAt = timePtr(reviewedAt)
	req.ExpiresAt = timePtr(expiresAt)
	return &req, nil
}

func collectRequests(rows *sql.Rows, scanID idScanner) ([]*permissionDomain.PermissionRequest, error) {
	defer func() {
		_ = rows.Close()
	}()

	requests := make([]*permissionDomain.PermissionRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows, scanID)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan permission request")
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate permission requests")
	}
	return requests, nil
}

func listConditions(filter permissionDomain.ListFilter, placeholder func(n int) string) ([]string, []any) {
	var conditions []string
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, "status = "+placeholder(len(args)))
	}
	if filter.RequesterID != "" {
		args = append(args, filter.RequesterID)
		conditions = append(conditions, "requester_id = "+placeholder(len(args)))
	}
	return conditions, args
}

func requireOneRow(result sql.Result) error {
	count, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if count == 0 {
		return permissionDomain.ErrRequestNotPending
	}
	return nil
}

func rowsAffected(result sql.Result) (int64, error) {
	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows count")
	}
	return count, nil
}

// isTx reports whether ctx carries a transaction, in which case reads lock the row.
func isTx(ctx context.Context) bool {
	_, ok := database.GetTx(ctx, nil).(*sql.Tx)
	return ok
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
