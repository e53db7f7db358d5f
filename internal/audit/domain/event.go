// Package domain defines audit events emitted by the second-factor lifecycle and the
// authorization workflow.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/trustcore/internal/errors"
)

// Category groups events by the component that emitted them.
type Category string

const (
	CategoryTOTP       Category = "totp"
	CategoryPermission Category = "permission"
)

// Outcome is the result of the audited attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event kinds.
const (
	KindTOTPSetup           = "totp.setup"
	KindTOTPVerify          = "totp.verify"
	KindTOTPEnable          = "totp.enable"
	KindTOTPDisable         = "totp.disable"
	KindTOTPRecoveryCodes   = "totp.recovery_codes"
	KindTOTPRecoveryDisable = "totp.recovery_disable"

	KindPermissionRequested  = "permission.requested"
	KindPermissionReviewed   = "permission.reviewed"
	KindPermissionSuperseded = "permission.superseded"
	KindPermissionExpired    = "permission.expired"
)

// Event is one audit record.
type Event struct {
	ID          uuid.UUID
	Kind        string
	Category    Category
	PrincipalID string
	Outcome     Outcome
	Message     string
	Metadata    map[string]any
	CreatedAt   time.Time
}

// OutcomeOf maps a boolean result to an Outcome.
func OutcomeOf(ok bool) Outcome {
	if ok {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

// ListFilter narrows audit listing. Zero values mean no filter; time bounds are inclusive.
type ListFilter struct {
	Category      Category
	PrincipalID   string
	CreatedAtFrom *time.Time
	CreatedAtTo   *time.Time
}

// ErrAuditUnavailable indicates audit listing was requested without a database.
var ErrAuditUnavailable = errors.Wrap(errors.ErrUnavailable, "audit log storage requires a database")
