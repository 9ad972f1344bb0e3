package access

import "corebank.org/internal/identity"

// Operation identifies a gated action. The capability table below is the
// single authority on who may do what; handlers never test roles directly.
type Operation string

const (
	OpTransfer         Operation = "ledger.transfer"
	OpDeposit          Operation = "ledger.deposit"
	OpWithdraw         Operation = "ledger.withdraw"
	OpViewOwnAccounts  Operation = "customer.accounts.view"
	OpViewTransactions Operation = "ledger.transactions.view"
	OpStatement        Operation = "customer.statement.view"
	OpCreateCustomer   Operation = "staff.customer.create"
	OpListCustomers    Operation = "staff.customer.list"
	OpApproveCustomer  Operation = "staff.customer.approve"
	OpOpenAccount      Operation = "staff.account.open"
	OpViewAccounts     Operation = "staff.account.view"
	OpCreateStaff      Operation = "admin.staff.create"
	OpListUsers        Operation = "admin.user.list"
	OpSetUserStatus    Operation = "admin.user.status"
	OpViewAllLedger    Operation = "admin.ledger.view"
	OpViewDashboard    Operation = "admin.dashboard.view"
)

var customerOps = []Operation{
	OpTransfer,
	OpViewOwnAccounts,
	OpViewTransactions,
	OpStatement,
}

var staffOps = []Operation{
	OpCreateCustomer,
	OpListCustomers,
	OpApproveCustomer,
	OpDeposit,
	OpWithdraw,
	OpOpenAccount,
	OpViewAccounts,
	OpViewTransactions,
}

var adminOnlyOps = []Operation{
	OpCreateStaff,
	OpListUsers,
	OpSetUserStatus,
	OpViewAllLedger,
	OpViewDashboard,
}

var capabilities = buildTable()

func buildTable() map[identity.Role]map[Operation]struct{} {
	set := func(lists ...[]Operation) map[Operation]struct{} {
		m := make(map[Operation]struct{})
		for _, list := range lists {
			for _, op := range list {
				m[op] = struct{}{}
			}
		}
		return m
	}
	// Admin inherits the full staff set by construction.
	return map[identity.Role]map[Operation]struct{}{
		identity.RoleCustomer: set(customerOps),
		identity.RoleStaff:    set(staffOps),
		identity.RoleAdmin:    set(staffOps, adminOnlyOps),
	}
}

// Allowed reports whether the role may perform op.
func Allowed(role identity.Role, op Operation) bool {
	ops, ok := capabilities[role]
	if !ok {
		return false
	}
	_, ok = ops[op]
	return ok
}
