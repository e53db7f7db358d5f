// Package dto provides request and response payloads for the permission endpoints.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	permissionDomain "github.com/allisson/trustcore/internal/permission/domain"
	"github.com/allisson/trustcore/internal/principal"
	customValidation "github.com/allisson/trustcore/internal/validation"
)

// CreatePermissionRequest asks for temporary rights on one record. The requester is the caller.
type CreatePermissionRequest struct {
	RequestType string `json:"request_type"`
	DataType    string `json:"data_type"`
	DataID      string `json:"data_id"`
	DataName    string `json:"data_name"`
	Reason      string `json:"reason"`
}

func (r *CreatePermissionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RequestType,
			validation.Required,
			validation.In(string(permissionDomain.RequestTypeEdit), string(permissionDomain.RequestTypeDelete)),
		),
		validation.Field(&r.DataType,
			validation.Required,
			customValidation.Identifier,
			validation.Length(1, 255),
		),
		validation.Field(&r.DataID,
			validation.Required,
			customValidation.Identifier,
			validation.Length(1, 255),
		),
		validation.Field(&r.DataName, validation.Length(0, 255)),
		validation.Field(&r.Reason,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 2000),
		),
	)
}

// ToInput converts the request into workflow input for p.
func (r *CreatePermissionRequest) ToInput(p *principal.Principal) *permissionDomain.CreateRequestInput {
	return &permissionDomain.CreateRequestInput{
		RequesterID:    p.ID,
		RequesterName:  p.Name,
		RequesterEmail: p.Email,
		RequestType:    permissionDomain.RequestType(r.RequestType),
		DataType:       r.DataType,
		DataID:         r.DataID,
		DataName:       r.DataName,
		Reason:         r.Reason,
	}
}

// ReviewPermissionRequest carries a reviewer decision. TTLSeconds of zero uses the default.
type ReviewPermissionRequest struct {
	Decision   string `json:"decision"`
	Notes      string `json:"notes"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

func (r *ReviewPermissionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Decision,
			validation.Required,
			validation.In(string(permissionDomain.DecisionApprove), string(permissionDomain.DecisionDeny)),
		),
		validation.Field(&r.Notes, validation.Length(0, 2000)),
		validation.Field(&r.TTLSeconds, validation.Min(int64(0)), validation.Max(int64(30*24*3600))),
	)
}

// TTL returns the requested grant lifetime.
func (r *ReviewPermissionRequest) TTL() time.Duration {
	return time.Duration(r.TTLSeconds) * time.Second
}
