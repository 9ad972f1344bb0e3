// Package approval drives the customer registration lifecycle. A profile is
// decided exactly once: pending moves to approved or rejected and never moves
// again.
package approval

import (
	"context"

	"corebank.org/internal/access"
	"corebank.org/internal/audit"
	"corebank.org/internal/identity"
)

// Workflow gates approval decisions behind the capability table and records
// every decision in the audit stream.
type Workflow struct {
	users   *identity.Store
	control *access.Control
}

// NewWorkflow wires the workflow over the identity store.
func NewWorkflow(users *identity.Store, control *access.Control) *Workflow {
	return &Workflow{users: users, control: control}
}

// Pending lists profiles awaiting a decision.
func (w *Workflow) Pending(ctx context.Context, actor *identity.User) ([]*identity.CustomerProfile, error) {
	if err := w.control.Authorize(actor, access.OpApproveCustomer); err != nil {
		return nil, err
	}
	return w.users.ListPendingCustomers(ctx), nil
}

// Approve activates a pending registration.
func (w *Workflow) Approve(ctx context.Context, actor *identity.User, userID string) (*identity.CustomerProfile, error) {
	return w.decide(ctx, actor, userID, identity.ApprovalApproved)
}

// Reject permanently deactivates a pending registration. The profile stays on
// record but drops out of customer listings.
func (w *Workflow) Reject(ctx context.Context, actor *identity.User, userID string) (*identity.CustomerProfile, error) {
	return w.decide(ctx, actor, userID, identity.ApprovalRejected)
}

func (w *Workflow) decide(ctx context.Context, actor *identity.User, userID string, to identity.ApprovalStatus) (*identity.CustomerProfile, error) {
	if err := w.control.Authorize(actor, access.OpApproveCustomer); err != nil {
		return nil, err
	}
	profile, err := w.users.TransitionApproval(ctx, userID, to)
	if err != nil {
		return nil, err
	}
	audit.LogEvent(ctx, "customer."+string(to), map[string]any{
		"user_id":     userID,
		"customer_id": profile.ID,
	})
	return profile, nil
}
