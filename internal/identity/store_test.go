package identity

import (
	"context"
	"errors"
	"testing"
)

func TestCreateUserAndAuthenticate(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "Admin", "Admin@Corebank.Test", "admin-pass-1", RoleAdmin, true, "")
	if err != nil {
		t.Fatal(err)
	}
	if u.Email != "admin@corebank.test" {
		t.Fatalf("email not normalized: %s", u.Email)
	}

	got, err := s.Authenticate(ctx, "admin@corebank.test", "admin-pass-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID {
		t.Fatalf("authenticated wrong user: %s", got.ID)
	}
	if _, err := s.Authenticate(ctx, "admin@corebank.test", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := s.Authenticate(ctx, "nobody@corebank.test", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestEmailUniqueness(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "One", "dup@corebank.test", "password-1", RoleStaff, true, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateUser(ctx, "Two", "dup@corebank.test", "password-2", RoleStaff, true, ""); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterCustomerStartsPending(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	u, p, err := s.RegisterCustomer(ctx, "Alice", "alice@corebank.test", "customer-pass-1", "555-0101", "1 Main St")
	if err != nil {
		t.Fatal(err)
	}
	if u.Active {
		t.Fatal("self-registered user must start inactive")
	}
	if p.Status != ApprovalPending {
		t.Fatalf("expected pending profile, got %s", p.Status)
	}
	pending := s.ListPendingCustomers(ctx)
	if len(pending) != 1 || pending[0].UserID != u.ID {
		t.Fatalf("pending listing wrong: %+v", pending)
	}
}

func TestBlockedUserMayStillAuthenticate(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	u, _, err := s.CreateCustomer(ctx, "Alice", "alice@corebank.test", "customer-pass-1", "", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetActive(ctx, u.ID, false); err != nil {
		t.Fatal(err)
	}
	got, err := s.Authenticate(ctx, "alice@corebank.test", "customer-pass-1")
	if err != nil {
		t.Fatalf("blocked user should still authenticate: %v", err)
	}
	if got.Active {
		t.Fatal("expected inactive user record")
	}
}

func TestSessionLog(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "Staff", "staff@corebank.test", "staff-pass-1", RoleStaff, true, "")
	if err != nil {
		t.Fatal(err)
	}

	sess, err := s.RecordLogin(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if sess.LogoutTime != nil {
		t.Fatal("fresh session must be open")
	}

	closed, err := s.RecordLogout(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if closed.ID != sess.ID || closed.LogoutTime == nil {
		t.Fatalf("logout did not close the session: %+v", closed)
	}
	if _, err := s.RecordLogout(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound with no open session, got %v", err)
	}

	recent := s.RecentSessions(ctx, 5)
	if len(recent) != 1 || recent[0].UserName != "Staff" {
		t.Fatalf("unexpected recent sessions: %+v", recent)
	}
}

func TestCounts(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "Admin", "admin@corebank.test", "admin-pass-1", RoleAdmin, true, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateUser(ctx, "Staff", "staff@corebank.test", "staff-pass-1", RoleStaff, true, ""); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.CreateCustomer(ctx, "Alice", "alice@corebank.test", "customer-pass-1", "", "", ""); err != nil {
		t.Fatal(err)
	}

	users, customers, staff := s.Counts(ctx)
	if users != 3 || customers != 1 || staff != 1 {
		t.Fatalf("unexpected counts: users=%d customers=%d staff=%d", users, customers, staff)
	}
}
