package authz

import (
	"errors"
	"testing"

	"gym-service/internal/models"
)

// TestMemberOwnsBookingAccess ensures a member reaches only their own
// bookings.
func TestMemberOwnsBookingAccess(t *testing.T) {
	member := Identity{ID: "m1", Role: models.RoleMember}

	d := Authorize(member, OpReadBooking, Resource{OwnerID: "m1"})
	if !d.Allowed {
		t.Fatalf("member must read their own booking, denied with %q", d.Reason)
	}

	d = Authorize(member, OpReadBooking, Resource{OwnerID: "m2"})
	if d.Allowed || d.Reason != ReasonNotOwner {
		t.Fatalf("expected not_owner deny, got %+v", d)
	}

	d = Authorize(member, OpCancelBooking, Resource{OwnerID: "m2"})
	if d.Allowed || d.Reason != ReasonNotOwner {
		t.Fatalf("expected not_owner deny on cancel, got %+v", d)
	}
}

// TestTrainerOwnsSessionAccess ensures a trainer exports only their own
// sessions and cannot touch booking operations.
func TestTrainerOwnsSessionAccess(t *testing.T) {
	trainer := Identity{ID: "t1", Role: models.RoleTrainer}

	d := Authorize(trainer, OpExportSessions, Resource{OwnerID: "t1"})
	if !d.Allowed {
		t.Fatalf("trainer must export their own sessions, denied with %q", d.Reason)
	}

	d = Authorize(trainer, OpExportSessions, Resource{OwnerID: "t2"})
	if d.Allowed || d.Reason != ReasonNotOwner {
		t.Fatalf("expected not_owner deny, got %+v", d)
	}

	d = Authorize(trainer, OpExportBookings, Resource{OwnerID: "t1"})
	if d.Allowed || d.Reason != ReasonRoleForbidden {
		t.Fatalf("expected role_forbidden deny, got %+v", d)
	}
}

// TestMemberCannotUseSessionOperations ensures the role split is symmetric.
func TestMemberCannotUseSessionOperations(t *testing.T) {
	member := Identity{ID: "m1", Role: models.RoleMember}

	d := Authorize(member, OpReadSession, Resource{OwnerID: "m1"})
	if d.Allowed || d.Reason != ReasonRoleForbidden {
		t.Fatalf("expected role_forbidden deny, got %+v", d)
	}
}

// TestAdminActsOnAnyResource ensures admin bypasses ownership but not the
// deleted check on writes.
func TestAdminActsOnAnyResource(t *testing.T) {
	admin := Identity{ID: "a1", Role: models.RoleAdmin}

	for _, op := range []Operation{OpReadBooking, OpCancelBooking, OpExportBookings, OpReadSession, OpExportSessions} {
		d := Authorize(admin, op, Resource{OwnerID: "someone-else"})
		if !d.Allowed {
			t.Fatalf("admin denied %q with %q", op, d.Reason)
		}
	}

	d := Authorize(admin, OpCancelBooking, Resource{OwnerID: "m1", Deleted: true})
	if d.Allowed || d.Reason != ReasonNotFound {
		t.Fatalf("write on deleted resource must deny not_found even for admin, got %+v", d)
	}
}

// TestWriteOnDeletedResource ensures writes require a live record.
func TestWriteOnDeletedResource(t *testing.T) {
	member := Identity{ID: "m1", Role: models.RoleMember}

	d := Authorize(member, OpCancelBooking, Resource{OwnerID: "m1", Deleted: true})
	if d.Allowed || d.Reason != ReasonNotFound {
		t.Fatalf("expected not_found deny, got %+v", d)
	}

	// Reads of deleted records are scoped by the repository, not the guard.
	d = Authorize(member, OpReadBooking, Resource{OwnerID: "m1", Deleted: true})
	if !d.Allowed {
		t.Fatalf("read authorization should not consult the deleted flag")
	}
}

// TestCheckWrapsDenyAsError ensures the error form carries the reason.
func TestCheckWrapsDenyAsError(t *testing.T) {
	member := Identity{ID: "m1", Role: models.RoleMember}

	err := Check(member, OpReadBooking, Resource{OwnerID: "m2"})

	var denied *DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected DeniedError, got %v", err)
	}
	if denied.Reason != ReasonNotOwner {
		t.Fatalf("expected not_owner, got %q", denied.Reason)
	}

	if err := Check(member, OpReadBooking, Resource{OwnerID: "m1"}); err != nil {
		t.Fatalf("own booking must pass, got %v", err)
	}
}
