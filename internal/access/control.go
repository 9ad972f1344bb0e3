// Package access enforces the role capability table and active/blocked state
// in front of every mutating operation.
package access

import (
	"context"
	"errors"
	"fmt"

	"corebank.org/internal/identity"
)

var (
	// ErrForbidden means the role does not permit the operation.
	ErrForbidden = errors.New("access: forbidden")
	// ErrAccountBlocked means the user is deactivated; it wins over any
	// role-based permission.
	ErrAccountBlocked = errors.New("access: account blocked")
)

// Directory is the slice of the identity store the control layer needs.
type Directory interface {
	Find(ctx context.Context, id string) (*identity.User, error)
	SetActive(ctx context.Context, id string, active bool) (*identity.User, error)
}

// Control gates operations on role and active status.
type Control struct {
	users Directory
}

// NewControl builds the access layer over a user directory.
func NewControl(users Directory) *Control {
	return &Control{users: users}
}

// Authorize checks the actor against the capability table. Blocked users
// fail ErrAccountBlocked even when the role would otherwise permit the
// operation.
func (c *Control) Authorize(actor *identity.User, op Operation) error {
	if actor == nil {
		return ErrForbidden
	}
	if !actor.Active {
		return ErrAccountBlocked
	}
	if !Allowed(actor.Role, op) {
		return fmt.Errorf("%w: role %s may not %s", ErrForbidden, actor.Role, op)
	}
	return nil
}

// SetUserStatus toggles a user's active flag. Admin only; an admin may not
// block another admin, and nobody changes their own status.
func (c *Control) SetUserStatus(ctx context.Context, actor *identity.User, targetID string, active bool) (*identity.User, error) {
	if err := c.Authorize(actor, OpSetUserStatus); err != nil {
		return nil, err
	}
	if targetID == actor.ID {
		return nil, fmt.Errorf("%w: cannot change own status", identity.ErrInvalidInput)
	}
	target, err := c.users.Find(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Role == identity.RoleAdmin {
		return nil, fmt.Errorf("%w: admin accounts cannot be blocked", ErrForbidden)
	}
	return c.users.SetActive(ctx, targetID, active)
}
