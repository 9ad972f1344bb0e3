package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"corebank.org/internal/access"
	"corebank.org/internal/account"
	"corebank.org/internal/identity"
	"corebank.org/internal/money"
)

type fixture struct {
	engine   *Engine
	accounts *account.Store
	users    *identity.Store

	admin *identity.User
	staff *identity.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	users := identity.NewStore()
	admin, err := users.CreateUser(ctx, "Admin", "admin@corebank.test", "admin-pass-1", identity.RoleAdmin, true, "")
	if err != nil {
		t.Fatal(err)
	}
	staff, err := users.CreateUser(ctx, "Staff", "staff@corebank.test", "staff-pass-1", identity.RoleStaff, true, admin.ID)
	if err != nil {
		t.Fatal(err)
	}

	accounts := account.NewStore()
	return &fixture{
		engine:   NewEngine(accounts, users, access.NewControl(users)),
		accounts: accounts,
		users:    users,
		admin:    admin,
		staff:    staff,
	}
}

// customer creates an approved customer with one account holding the given
// opening balance in cents.
func (f *fixture) customer(t *testing.T, email string, openingCents int64) (*identity.User, *account.Account) {
	t.Helper()
	ctx := context.Background()
	u, profile, err := f.users.CreateCustomer(ctx, "Customer "+email, email, "customer-pass-1", "", "", f.staff.ID)
	if err != nil {
		t.Fatal(err)
	}
	acc, err := f.engine.OpenAccount(ctx, f.staff, profile.ID, account.TypeSavings, money.MustFromCents(openingCents))
	if err != nil {
		t.Fatal(err)
	}
	return u, acc
}

func TestDepositRecordsOneTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, acc := f.customer(t, "alice@corebank.test", 0)

	before := f.engine.Count()
	tx, err := f.engine.Deposit(ctx, f.staff, acc.ID, money.MustFromCents(2500), "cash deposit")
	if err != nil {
		t.Fatal(err)
	}
	if tx.Type != TxDeposit || tx.ToAccountID != acc.ID || tx.Amount.String() != "25.00" {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if f.engine.Count() != before+1 {
		t.Fatalf("expected exactly one new transaction, got %d", f.engine.Count()-before)
	}
	got, _ := f.accounts.Get(ctx, acc.ID)
	if got.Balance.String() != "25.00" {
		t.Fatalf("unexpected balance: %s", got.Balance)
	}
}

func TestWithdrawInsufficientFundsLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, acc := f.customer(t, "alice@corebank.test", 10000)

	before := f.engine.Count()
	_, err := f.engine.Withdraw(ctx, f.staff, acc.ID, money.MustFromCents(15000), "")
	if !errors.Is(err, account.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if f.engine.Count() != before {
		t.Fatal("failed withdraw appended a transaction")
	}
	got, _ := f.accounts.Get(ctx, acc.ID)
	if got.Balance.String() != "100.00" {
		t.Fatalf("balance changed on failed withdraw: %s", got.Balance)
	}
}

func TestTransferMovesFundsAtomically(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, aliceAcc := f.customer(t, "alice@corebank.test", 10000)
	_, bobAcc := f.customer(t, "bob@corebank.test", 5000)

	tx, err := f.engine.Transfer(ctx, alice, aliceAcc.ID, bobAcc.Number, money.MustFromCents(3000), "rent")
	if err != nil {
		t.Fatal(err)
	}
	if tx.Type != TxTransfer || tx.FromAccountID != aliceAcc.ID || tx.ToAccountID != bobAcc.ID {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	ga, _ := f.accounts.Get(ctx, aliceAcc.ID)
	gb, _ := f.accounts.Get(ctx, bobAcc.ID)
	if ga.Balance.String() != "70.00" || gb.Balance.String() != "80.00" {
		t.Fatalf("unexpected balances: %s / %s", ga.Balance, gb.Balance)
	}
}

func TestTransferToSameAccountFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, acc := f.customer(t, "alice@corebank.test", 10000)

	_, err := f.engine.Transfer(ctx, alice, acc.ID, acc.Number, money.MustFromCents(100), "")
	if !errors.Is(err, ErrInvalidTransfer) {
		t.Fatalf("expected ErrInvalidTransfer, got %v", err)
	}
}

func TestTransferFromUnownedAccountFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, aliceAcc := f.customer(t, "alice@corebank.test", 10000)
	bob, bobAcc := f.customer(t, "bob@corebank.test", 5000)

	_, err := f.engine.Transfer(ctx, bob, aliceAcc.ID, bobAcc.Number, money.MustFromCents(100), "")
	if !errors.Is(err, ErrInvalidTransfer) {
		t.Fatalf("expected ErrInvalidTransfer, got %v", err)
	}
	got, _ := f.accounts.Get(ctx, aliceAcc.ID)
	if got.Balance.String() != "100.00" {
		t.Fatalf("balance changed: %s", got.Balance)
	}
}

func TestCustomerCannotDeposit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, acc := f.customer(t, "alice@corebank.test", 0)

	_, err := f.engine.Deposit(ctx, alice, acc.ID, money.MustFromCents(100), "")
	if !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestBlockedCustomerCannotTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, aliceAcc := f.customer(t, "alice@corebank.test", 10000)
	_, bobAcc := f.customer(t, "bob@corebank.test", 0)

	blocked, err := f.users.SetActive(ctx, alice.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.engine.Transfer(ctx, blocked, aliceAcc.ID, bobAcc.Number, money.MustFromCents(100), "")
	if !errors.Is(err, access.ErrAccountBlocked) {
		t.Fatalf("expected ErrAccountBlocked, got %v", err)
	}
}

func TestListTransactionsScopedByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, aliceAcc := f.customer(t, "alice@corebank.test", 10000)
	_, bobAcc := f.customer(t, "bob@corebank.test", 5000)

	if _, err := f.engine.Deposit(ctx, f.staff, bobAcc.ID, money.MustFromCents(500), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.Transfer(ctx, alice, aliceAcc.ID, bobAcc.Number, money.MustFromCents(1000), ""); err != nil {
		t.Fatal(err)
	}

	all, err := f.engine.ListTransactions(ctx, f.admin, 0)
	if err != nil {
		t.Fatal(err)
	}
	// Two opening deposits, one staff deposit, one transfer.
	if len(all) != 4 {
		t.Fatalf("admin expected 4 transactions, got %d", len(all))
	}
	if all[0].Type != TxTransfer {
		t.Fatalf("expected newest first, got %s", all[0].Type)
	}

	mine, err := f.engine.ListTransactions(ctx, alice, 0)
	if err != nil {
		t.Fatal(err)
	}
	// Alice's opening deposit and the transfer; Bob-only movements excluded.
	if len(mine) != 2 {
		t.Fatalf("customer expected 2 transactions, got %d", len(mine))
	}
	for _, tx := range mine {
		if tx.FromAccountID != aliceAcc.ID && tx.ToAccountID != aliceAcc.ID {
			t.Fatalf("leaked foreign transaction: %+v", tx)
		}
	}
}

func TestStatement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, aliceAcc := f.customer(t, "alice@corebank.test", 10000)
	_, bobAcc := f.customer(t, "bob@corebank.test", 0)

	if _, err := f.engine.Transfer(ctx, alice, aliceAcc.ID, bobAcc.Number, money.MustFromCents(2500), ""); err != nil {
		t.Fatal(err)
	}

	st, err := f.engine.Statement(ctx, alice, aliceAcc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if st.Balance.String() != "75.00" || st.AccountNumber != aliceAcc.Number {
		t.Fatalf("unexpected statement header: %+v", st)
	}
	if len(st.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(st.Transactions))
	}

	bob, _ := f.users.FindByEmail(ctx, "bob@corebank.test")
	if _, err := f.engine.Statement(ctx, bob, aliceAcc.ID); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign statement, got %v", err)
	}
}

func TestConcurrentOpposingTransfersConserveTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, aliceAcc := f.customer(t, "alice@corebank.test", 10000)
	bob, bobAcc := f.customer(t, "bob@corebank.test", 10000)

	amount := money.MustFromCents(100)
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = f.engine.Transfer(ctx, alice, aliceAcc.ID, bobAcc.Number, amount, "")
		}()
		go func() {
			defer wg.Done()
			_, _ = f.engine.Transfer(ctx, bob, bobAcc.ID, aliceAcc.Number, amount, "")
		}()
	}
	wg.Wait()

	ga, _ := f.accounts.Get(ctx, aliceAcc.ID)
	gb, _ := f.accounts.Get(ctx, bobAcc.ID)
	if total := ga.Balance.Add(gb.Balance); total.String() != "200.00" {
		t.Fatalf("conservation violated: %s", total)
	}
}
