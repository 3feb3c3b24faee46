package authz

import (
	"fmt"

	"gym-service/internal/models"
)

type Identity struct {
	ID   string
	Role models.Role
}

type Operation string

const (
	OpReadBooking    Operation = "booking.read"
	OpCancelBooking  Operation = "booking.cancel"
	OpExportBookings Operation = "booking.export"
	OpReadSession    Operation = "session.read"
	OpExportSessions Operation = "session.export"
)

// Resource is the slice of a record the guard needs: who owns it and whether
// it is soft-deleted. For booking operations the owner is the member, for
// session operations the trainer.
type Resource struct {
	OwnerID string
	Deleted bool
}

type Reason string

const (
	ReasonNotOwner      Reason = "not_owner"
	ReasonRoleForbidden Reason = "role_forbidden"
	ReasonNotFound      Reason = "not_found"
)

type Decision struct {
	Allowed bool
	Reason  Reason
}

// DeniedError is the error form of a Deny decision. Expected authorization
// failures travel as values, never as panics.
type DeniedError struct {
	Reason Reason
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("authorization denied: %s", e.Reason)
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

func isWrite(op Operation) bool {
	return op == OpCancelBooking
}

// Authorize decides whether caller may perform op on the resource. Pure,
// no side effects: members act on their own bookings, trainers on their own
// sessions, admins on anything. Writes additionally require a live record.
func Authorize(caller Identity, op Operation, res Resource) Decision {
	if isWrite(op) && res.Deleted {
		return deny(ReasonNotFound)
	}

	if caller.Role == models.RoleAdmin {
		return allow()
	}

	switch op {
	case OpReadBooking, OpCancelBooking, OpExportBookings:
		if caller.Role != models.RoleMember {
			return deny(ReasonRoleForbidden)
		}
	case OpReadSession, OpExportSessions:
		if caller.Role != models.RoleTrainer {
			return deny(ReasonRoleForbidden)
		}
	default:
		return deny(ReasonRoleForbidden)
	}

	if res.OwnerID != caller.ID {
		return deny(ReasonNotOwner)
	}

	return allow()
}

// Check is the error-returning convenience around Authorize.
func Check(caller Identity, op Operation, res Resource) error {
	d := Authorize(caller, op, res)
	if !d.Allowed {
		return &DeniedError{Reason: d.Reason}
	}

	return nil
}
