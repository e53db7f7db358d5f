package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	permissionDomain "github.com/allisson/trustcore/internal/permission/domain"
	"github.com/allisson/trustcore/internal/testutil"
)

func binaryID(t *testing.T, id uuid.UUID) []byte {
	t.Helper()
	b, err := id.MarshalBinary()
	require.NoError(t, err)
	return b
}

func TestMySQLPermissionRequestRepository_Create(t *testing.T) {
	db, mock := testutil.NewSQLMock(t)
	repo := NewMySQLPermissionRequestRepository(db)
	req := newRequest()

	mock.ExpectExec(`INSERT INTO permission_requests .+ VALUES \(\?, \?`).
		WithArgs(binaryID(t, req.ID), "m42", "Member", "member@example.com", "edit", "invoice", "inv-7",
			"Invoice 7", "fix totals", "pending", requestedAt, nil, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), req))
}

func TestMySQLPermissionRequestRepository_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_DecodesBinaryID", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewMySQLPermissionRequestRepository(db)
		req := approved(newRequest(), requestedAt.Add(time.Hour))

		mock.ExpectQuery(`WHERE id = \?$`).
			WithArgs(binaryID(t, req.ID)).
			WillReturnRows(sqlmock.NewRows(permissionColumns).AddRow(requestRow(binaryID(t, req.ID), req)...))

		got, err := repo.Get(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, req, got)
	})

	t.Run("Error_InvalidBinaryID", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewMySQLPermissionRequestRepository(db)
		req := newRequest()

		mock.ExpectQuery("SELECT").
			WillReturnRows(sqlmock.NewRows(permissionColumns).AddRow(requestRow([]byte{1, 2, 3}, req)...))

		_, err := repo.Get(ctx, req.ID)
		assert.ErrorContains(t, err, "failed to unmarshal permission request id")
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewMySQLPermissionRequestRepository(db)

		mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows(permissionColumns))

		_, err := repo.Get(ctx, uuid.Must(uuid.NewV7()))
		assert.ErrorIs(t, err, permissionDomain.ErrRequestNotFound)
	})
}

func TestMySQLPermissionRequestRepository_List(t *testing.T) {
	db, mock := testutil.NewSQLMock(t)
	repo := NewMySQLPermissionRequestRepository(db)
	req := newRequest()

	mock.ExpectQuery(`WHERE status = \? ORDER BY requested_at DESC, id DESC LIMIT \? OFFSET \?`).
		WithArgs("pending", 50, 0).
		WillReturnRows(sqlmock.NewRows(permissionColumns).AddRow(requestRow(binaryID(t, req.ID), req)...))

	got, err := repo.List(context.Background(), permissionDomain.ListFilter{Status: permissionDomain.StatusPending}, 0, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, req.ID, got[0].ID)
}

func TestMySQLPermissionRequestRepository_UpdateReview(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_Denied", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewMySQLPermissionRequestRepository(db)
		req := newRequest()
		reviewedAt := requestedAt.Add(time.Minute)
		req.Status = permissionDomain.StatusDenied
		req.ReviewedBy = "admin"
		req.ReviewedAt = &reviewedAt

		mock.ExpectExec(`WHERE id = \? AND status = \?`).
			WithArgs("denied", "admin", reviewedAt, nil, nil, binaryID(t, req.ID), "pending").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateReview(ctx, req))
	})

	t.Run("Error_AlreadyReviewed", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewMySQLPermissionRequestRepository(db)

		mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.UpdateReview(ctx, newRequest()), permissionDomain.ErrRequestNotPending)
	})
}

func TestMySQLPermissionRequestRepository_Expiry(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_SupersedeGrants", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewMySQLPermissionRequestRepository(db)
		req := newRequest()

		mock.ExpectExec(`AND id <> \?`).
			WithArgs("expired", "m42", "invoice", "inv-7", "edit", "approved", binaryID(t, req.ID)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		count, err := repo.SupersedeGrants(ctx, req.GrantKey(), req.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Success_MarkExpired", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewMySQLPermissionRequestRepository(db)
		id := uuid.Must(uuid.NewV7())

		mock.ExpectExec("UPDATE permission_requests SET status").
			WithArgs("expired", binaryID(t, id), "approved").
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, repo.MarkExpired(ctx, id))
	})

	t.Run("Success_ExpireStale", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewMySQLPermissionRequestRepository(db)

		mock.ExpectExec(`expires_at <= \?`).
			WithArgs("expired", "approved", requestedAt).
			WillReturnResult(sqlmock.NewResult(0, 3))

		count, err := repo.ExpireStale(ctx, requestedAt)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})
}

func TestMySQLPermissionRequestRepository_LockGrant(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_LocksTupleRowsInIDOrder", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewMySQLPermissionRequestRepository(db)
		first, second := newRequest(), newRequest()

		mock.ExpectQuery(`SELECT id FROM permission_requests\s+WHERE requester_id = \? .+ ORDER BY id FOR UPDATE`).
			WithArgs("m42", "invoice", "inv-7", "edit").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).
				AddRow(binaryID(t, first.ID)).
				AddRow(binaryID(t, second.ID)))

		require.NoError(t, repo.LockGrant(ctx, first.GrantKey()))
	})

	t.Run("Error_LockFails", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewMySQLPermissionRequestRepository(db)

		mock.ExpectQuery(`FOR UPDATE`).WillReturnError(assert.AnError)

		assert.ErrorIs(t, repo.LockGrant(ctx, newRequest().GrantKey()), assert.AnError)
	})
}
