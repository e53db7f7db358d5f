package dto

import (
	"time"

	permissionDomain "github.com/allisson/trustcore/internal/permission/domain"
)

// PermissionRequestResponse represents a permission request in API responses.
type PermissionRequestResponse struct {
	ID             string     `json:"id"`
	RequesterID    string     `json:"requester_id"`
	RequesterName  string     `json:"requester_name,omitempty"`
	RequesterEmail string     `json:"requester_email,omitempty"`
	RequestType    string     `json:"request_type"`
	DataType       string     `json:"data_type"`
	DataID         string     `json:"data_id"`
	DataName       string     `json:"data_name,omitempty"`
	Reason         string     `json:"reason"`
	Status         string     `json:"status"`
	RequestedAt    time.Time  `json:"requested_at"`
	ReviewedBy     string     `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	ReviewNotes    string     `json:"review_notes,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// MapPermissionRequestToResponse converts a domain request to an API response.
func MapPermissionRequestToResponse(req *permissionDomain.PermissionRequest) PermissionRequestResponse {
	return PermissionRequestResponse{
		ID:             req.ID.String(),
		RequesterID:    req.RequesterID,
		RequesterName:  req.RequesterName,
		RequesterEmail: req.RequesterEmail,
		RequestType:    string(req.RequestType),
		DataType:       req.DataType,
		DataID:         req.DataID,
		DataName:       req.DataName,
		Reason:         req.Reason,
		Status:         string(req.Status),
		RequestedAt:    req.RequestedAt,
		ReviewedBy:     req.ReviewedBy,
		ReviewedAt:     req.ReviewedAt,
		ReviewNotes:    req.ReviewNotes,
		ExpiresAt:      req.ExpiresAt,
	}
}

// ListPermissionRequestsResponse represents a page of permission requests.
type ListPermissionRequestsResponse struct {
	Data []PermissionRequestResponse `json:"data"`
}

// MapPermissionRequestsToListResponse converts domain requests to a list response.
func MapPermissionRequestsToListResponse(
	requests []*permissionDomain.PermissionRequest,
) ListPermissionRequestsResponse {
	data := make([]PermissionRequestResponse, 0, len(requests))
	for _, req := range requests {
		data = append(data, MapPermissionRequestToResponse(req))
	}
	return ListPermissionRequestsResponse{Data: data}
}

// ActiveGrantResponse reports whether the caller may perform a mutation. Blanket is true when
// standing capabilities allow it without a grant.
type ActiveGrantResponse struct {
	Active  bool `json:"active"`
	Blanket bool `json:"blanket"`
}
