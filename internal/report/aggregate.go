// Package report computes read-only dashboard statistics. Every number is a
// point-in-time snapshot; reads never block ledger writers beyond the copy.
package report

import (
	"context"
	"time"

	"corebank.org/internal/access"
	"corebank.org/internal/account"
	"corebank.org/internal/identity"
	"corebank.org/internal/ledger"
	"corebank.org/internal/money"
)

const recentLimit = 10

// Snapshot is the admin dashboard payload.
type Snapshot struct {
	GeneratedAt        time.Time                 `json:"generated_at"`
	TotalUsers         int                       `json:"total_users"`
	TotalCustomers     int                       `json:"total_customers"`
	TotalStaff         int                       `json:"total_staff"`
	TotalAccounts      int                       `json:"total_accounts"`
	TotalBalance       money.Amount              `json:"total_balance"`
	TotalTransactions  int                       `json:"total_transactions"`
	RecentTransactions []ledger.Transaction      `json:"recent_transactions"`
	RecentSessions     []identity.SessionSummary `json:"recent_sessions"`
}

// Service aggregates over the live stores.
type Service struct {
	users    *identity.Store
	accounts *account.Store
	engine   *ledger.Engine
	control  *access.Control
}

// NewService wires the aggregation service.
func NewService(users *identity.Store, accounts *account.Store, engine *ledger.Engine, control *access.Control) *Service {
	return &Service{users: users, accounts: accounts, engine: engine, control: control}
}

// Snapshot builds the dashboard view. Admin only. Total balance sums active
// accounts; closed accounts keep their history but are excluded.
func (s *Service) Snapshot(ctx context.Context, actor *identity.User) (*Snapshot, error) {
	if err := s.control.Authorize(actor, access.OpViewDashboard); err != nil {
		return nil, err
	}

	users, customers, staff := s.users.Counts(ctx)

	accounts := s.accounts.Snapshot(ctx)
	total := money.Zero()
	for _, acc := range accounts {
		if acc.Status == account.StatusActive {
			total = total.Add(acc.Balance)
		}
	}

	return &Snapshot{
		GeneratedAt:        time.Now().UTC(),
		TotalUsers:         users,
		TotalCustomers:     customers,
		TotalStaff:         staff,
		TotalAccounts:      len(accounts),
		TotalBalance:       total,
		TotalTransactions:  s.engine.Count(),
		RecentTransactions: s.engine.Recent(recentLimit),
		RecentSessions:     s.users.RecentSessions(ctx, recentLimit),
	}, nil
}
