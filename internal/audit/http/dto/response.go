// Package dto maps audit events to API payloads.
package dto

import (
	"time"

	auditDomain "github.com/allisson/trustcore/internal/audit/domain"
)

// AuditLogResponse represents an audit event in API responses.
type AuditLogResponse struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	Category    string         `json:"category"`
	PrincipalID string         `json:"principal_id,omitempty"`
	Outcome     string         `json:"outcome"`
	Message     string         `json:"message,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// MapAuditLogToResponse converts a domain event to an API response.
func MapAuditLogToResponse(event *auditDomain.Event) AuditLogResponse {
	return AuditLogResponse{
		ID:          event.ID.String(),
		Kind:        event.Kind,
		Category:    string(event.Category),
		PrincipalID: event.PrincipalID,
		Outcome:     string(event.Outcome),
		Message:     event.Message,
		Metadata:    event.Metadata,
		CreatedAt:   event.CreatedAt,
	}
}

// ListAuditLogsResponse represents a page of audit events.
type ListAuditLogsResponse struct {
	Data []AuditLogResponse `json:"data"`
}

// MapAuditLogsToListResponse converts domain events to a list response.
func MapAuditLogsToListResponse(events []*auditDomain.Event) ListAuditLogsResponse {
	data := make([]AuditLogResponse, 0, len(events))
	for _, event := range events {
		data = append(data, MapAuditLogToResponse(event))
	}
	return ListAuditLogsResponse{Data: data}
}
