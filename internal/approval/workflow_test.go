package approval

import (
	"context"
	"errors"
	"testing"

	"corebank.org/internal/access"
	"corebank.org/internal/identity"
)

func setup(t *testing.T) (*Workflow, *identity.Store, *identity.User, *identity.User) {
	t.Helper()
	ctx := context.Background()
	users := identity.NewStore()
	staff, err := users.CreateUser(ctx, "Staff", "staff@corebank.test", "staff-pass-1", identity.RoleStaff, true, "")
	if err != nil {
		t.Fatal(err)
	}
	pending, _, err := users.RegisterCustomer(ctx, "Alice", "alice@corebank.test", "customer-pass-1", "", "")
	if err != nil {
		t.Fatal(err)
	}
	return NewWorkflow(users, access.NewControl(users)), users, staff, pending
}

func TestApproveActivatesUser(t *testing.T) {
	w, users, staff, pending := setup(t)
	ctx := context.Background()

	if pending.Active {
		t.Fatal("registered user must start inactive")
	}
	profile, err := w.Approve(ctx, staff, pending.ID)
	if err != nil {
		t.Fatal(err)
	}
	if profile.Status != identity.ApprovalApproved {
		t.Fatalf("unexpected status: %s", profile.Status)
	}
	u, _ := users.Find(ctx, pending.ID)
	if !u.Active {
		t.Fatal("approval must activate the user")
	}
}

func TestRejectDeactivatesAndRetains(t *testing.T) {
	w, users, staff, pending := setup(t)
	ctx := context.Background()

	profile, err := w.Reject(ctx, staff, pending.ID)
	if err != nil {
		t.Fatal(err)
	}
	if profile.Status != identity.ApprovalRejected {
		t.Fatalf("unexpected status: %s", profile.Status)
	}
	u, err := users.Find(ctx, pending.ID)
	if err != nil {
		t.Fatal("rejected user must stay on record")
	}
	if u.Active {
		t.Fatal("rejection must leave the user inactive")
	}
	for _, p := range users.ListCustomers(ctx) {
		if p.UserID == pending.ID {
			t.Fatal("rejected profile leaked into customer listing")
		}
	}
}

func TestDecisionsAreOneShot(t *testing.T) {
	w, _, staff, pending := setup(t)
	ctx := context.Background()

	if _, err := w.Approve(ctx, staff, pending.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Reject(ctx, staff, pending.ID); !errors.Is(err, identity.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on second decision, got %v", err)
	}
	if _, err := w.Approve(ctx, staff, pending.ID); !errors.Is(err, identity.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on repeat approval, got %v", err)
	}
}

func TestCustomerCannotApprove(t *testing.T) {
	w, users, staff, pending := setup(t)
	ctx := context.Background()

	other, _, err := users.CreateCustomer(ctx, "Bob", "bob@corebank.test", "customer-pass-1", "", "", staff.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Approve(ctx, other, pending.ID); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := w.Pending(ctx, other); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for pending listing, got %v", err)
	}
}
