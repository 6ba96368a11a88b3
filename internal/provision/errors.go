package provision

import (
	"errors"
	"fmt"
)

// ErrApprovalInProgress is returned when another approval already holds the
// lock for the same request.
var ErrApprovalInProgress = errors.New("approval already in progress")

// Phase labels the provisioning step an error came from. The label prefixes
// the error message shown to the approving administrator, e.g.
// "DB Creation: quota exceeded".
type Phase string

const (
	PhaseDBCreation    Phase = "DB Creation"
	PhaseSchemaClone   Phase = "Schema Clone"
	PhaseMetaWrite     Phase = "Meta Write"
	PhaseTenantConnect Phase = "Tenant Connect"
	PhaseTenantWrite   Phase = "Tenant Write"
)

// States recorded per request as provisioning advances. A run that dies
// between the two stores leaves its last state behind for an operator to
// reconcile.
const (
	StatePending          = "PENDING"
	StateInfraProvisioned = "INFRA_PROVISIONED"
	StateMetaCommitted    = "META_COMMITTED"
	StateTenantSeeded     = "TENANT_SEEDED"
	StateApproved         = "APPROVED"
)

// Error is a provisioning failure tagged with the phase it occurred in.
type Error struct {
	Phase Phase
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func phaseErr(phase Phase, err error) *Error {
	return &Error{Phase: phase, Err: err}
}
