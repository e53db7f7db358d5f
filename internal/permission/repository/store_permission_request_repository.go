// Package repository persists permission requests in the encrypted store, PostgreSQL or MySQL.
package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/trustcore/internal/errors"
	permissionDomain "github.com/allisson/trustcore/internal/permission/domain"
	storeUseCase "github.com/allisson/trustcore/internal/store/usecase"
)

const (
	storeIndexKey     = "permission:index"
	storeRequestKeyNS = "permission:request:"
)

// StorePermissionRequestRepository keeps each request JSON-encoded under
// "permission:request:<id>" and the list of ids under "permission:index". Every write is
// flushed before returning.
type StorePermissionRequestRepository struct {
	store storeUseCase.EncryptedStore
	mu    sync.Mutex
}

// NewStorePermissionRequestRepository creates a repository over store.
func NewStorePermissionRequestRepository(store storeUseCase.EncryptedStore) *StorePermissionRequestRepository {
	return &StorePermissionRequestRepository{store: store}
}

func requestKey(id uuid.UUID) string {
	return storeRequestKeyNS + id.String()
}

func (r *StorePermissionRequestRepository) Create(ctx context.Context, req *permissionDomain.PermissionRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.loadIndex(ctx)
	if err != nil {
		return err
	}
	ids = append(ids, req.ID.String())

	if err := r.put(ctx, req); err != nil {
		return err
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode permission index")
	}
	if err := r.store.Put(ctx, storeIndexKey, data); err != nil {
		return apperrors.Wrap(err, "failed to save permission index")
	}
	return r.flush(ctx)
}

func (r *StorePermissionRequestRepository) Get(
	ctx context.Context,
	id uuid.UUID,
) (*permissionDomain.PermissionRequest, error) {
	return r.get(ctx, id)
}

func (r *StorePermissionRequestRepository) List(
	ctx context.Context,
	filter permissionDomain.ListFilter,
	offset, limit int,
) ([]*permissionDomain.PermissionRequest, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*permissionDomain.PermissionRequest, 0, len(all))
	for _, req := range all {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.RequesterID != "" && req.RequesterID != filter.RequesterID {
			continue
		}
		matched = append(matched, req)
	}

	if offset >= len(matched) {
		return []*permissionDomain.PermissionRequest{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *StorePermissionRequestRepository) ListApproved(
	ctx context.Context,
	key permissionDomain.GrantKey,
) ([]*permissionDomain.PermissionRequest, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	approved := make([]*permissionDomain.PermissionRequest, 0)
	for _, req := range all {
		if req.Status == permissionDomain.StatusApproved && req.GrantKey() == key {
			approved = append(approved, req)
		}
	}
	return approved, nil
}

func (r *StorePermissionRequestRepository) UpdateReview(
	ctx context.Context,
	req *permissionDomain.PermissionRequest,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.get(ctx, req.ID)
	if err != nil {
		return err
	}
	if stored.Status != permissionDomain.StatusPending {
		return permissionDomain.ErrRequestNotPending
	}

	stored.Status = req.Status
	stored.ReviewedBy = req.ReviewedBy
	stored.ReviewedAt = req.ReviewedAt
	stored.ReviewNotes = req.ReviewNotes
	stored.ExpiresAt = req.ExpiresAt
	if err := r.put(ctx, stored); err != nil {
		return err
	}
	return r.flush(ctx)
}

// LockGrant is a no-op: the store is owned by one process, and the workflow already serializes
// reviews per tuple in memory.
func (r *StorePermissionRequestRepository) LockGrant(context.Context, permissionDomain.GrantKey) error {
	return nil
}

func (r *StorePermissionRequestRepository) SupersedeGrants(
	ctx context.Context,
	key permissionDomain.GrantKey,
	exceptID uuid.UUID,
) (int64, error) {
	return r.expireWhere(ctx, func(req *permissionDomain.PermissionRequest) bool {
		return req.ID != exceptID && req.GrantKey() == key
	})
}

func (r *StorePermissionRequestRepository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	_, err := r.expireWhere(ctx, func(req *permissionDomain.PermissionRequest) bool {
		return req.ID == id
	})
	return err
}

func (r *StorePermissionRequestRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	return r.expireWhere(ctx, func(req *permissionDomain.PermissionRequest) bool {
		return req.IsStaleGrant(now)
	})
}

// expireWhere moves every approved request accepted by match to expired.
func (r *StorePermissionRequestRepository) expireWhere(
	ctx context.Context,
	match func(*permissionDomain.PermissionRequest) bool,
) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.loadAll(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	for _, req := range all {
		if req.Status != permissionDomain.StatusApproved || !match(req) {
			continue
		}
		req.Status = permissionDomain.StatusExpired
		if err := r.put(ctx, req); err != nil {
			return count, err
		}
		count++
	}
	if count == 0 {
		return 0, nil
	}
	return count, r.flush(ctx)
}

func (r *StorePermissionRequestRepository) get(
	ctx context.Context,
	id uuid.UUID,
) (*permissionDomain.PermissionRequest, error) {
	data, found, err := r.store.Get(ctx, requestKey(id))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read permission request")
	}
	if !found {
		return nil, permissionDomain.ErrRequestNotFound
	}

	var req permissionDomain.PermissionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode permission request")
	}
	return &req, nil
}

func (r *StorePermissionRequestRepository) put(ctx context.Context, req *permissionDomain.PermissionRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode permission request")
	}
	if err := r.store.Put(ctx, requestKey(req.ID), data); err != nil {
		return apperrors.Wrap(err, "failed to save permission request")
	}
	return nil
}

func (r *StorePermissionRequestRepository) flush(ctx context.Context) error {
	if err := r.store.Flush(ctx); err != nil {
		return apperrors.Wrap(err, "failed to flush permission requests")
	}
	return nil
}

func (r *StorePermissionRequestRepository) loadIndex(ctx context.Context) ([]string, error) {
	data, found, err := r.store.Get(ctx, storeIndexKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read permission index")
	}
	if !found {
		return nil, nil
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode permission index")
	}
	return ids, nil
}

// loadAll returns every indexed request newest first. Ids whose record is missing or
// undecryptable are skipped.
func (r *StorePermissionRequestRepository) loadAll(ctx context.Context) ([]*permissionDomain.PermissionRequest, error) {
	ids, err := r.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = storeRequestKeyNS + id
	}
	records, err := r.store.GetMany(ctx, keys)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read permission requests")
	}

	requests := make([]*permissionDomain.PermissionRequest, 0, len(records))
	for _, key := range keys {
		data, ok := records[key]
		if !ok {
			continue
		}
		var req permissionDomain.PermissionRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode permission request")
		}
		requests = append(requests, &req)
	}

	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].RequestedAt.After(requests[j].RequestedAt)
	})
	return requests, nil
}
