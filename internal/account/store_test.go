package account

import (
	"context"
	"sync"
	"testing"
	"time"

	"corebank.org/internal/money"
)

func TestOpenAssignsUniqueNumbers(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		acc, err := s.Open(ctx, "cust-1", TypeSavings, money.Zero())
		if err != nil {
			t.Fatal(err)
		}
		if len(acc.Number) != 12 {
			t.Fatalf("unexpected number format: %q", acc.Number)
		}
		if seen[acc.Number] {
			t.Fatalf("duplicate account number %s", acc.Number)
		}
		seen[acc.Number] = true
	}
}

func TestCreditDebit(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	acc, _ := s.Open(ctx, "cust-1", TypeChecking, money.MustFromCents(10000))

	got, err := s.Credit(ctx, acc.ID, money.MustFromCents(2500))
	if err != nil {
		t.Fatal(err)
	}
	if got.Balance.String() != "125.00" {
		t.Fatalf("unexpected balance: %s", got.Balance)
	}

	got, err = s.Debit(ctx, acc.ID, money.MustFromCents(12500))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", got.Balance)
	}
}

func TestDebitInsufficientFundsLeavesBalance(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	acc, _ := s.Open(ctx, "cust-1", TypeSavings, money.MustFromCents(10000))

	if _, err := s.Debit(ctx, acc.ID, money.MustFromCents(15000)); err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	got, _ := s.Get(ctx, acc.ID)
	if got.Balance.String() != "100.00" {
		t.Fatalf("balance changed on failed debit: %s", got.Balance)
	}
}

func TestTransferAtomicity(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a, _ := s.Open(ctx, "cust-1", TypeSavings, money.MustFromCents(10000))
	b, _ := s.Open(ctx, "cust-2", TypeSavings, money.MustFromCents(5000))

	from, to, err := s.Transfer(ctx, a.ID, b.ID, money.MustFromCents(3000))
	if err != nil {
		t.Fatal(err)
	}
	if from.Balance.String() != "70.00" || to.Balance.String() != "80.00" {
		t.Fatalf("unexpected balances: from=%s to=%s", from.Balance, to.Balance)
	}

	// Failing transfer must leave both sides untouched.
	if _, _, err := s.Transfer(ctx, a.ID, b.ID, money.MustFromCents(1000000)); err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	ga, _ := s.Get(ctx, a.ID)
	gb, _ := s.Get(ctx, b.ID)
	if ga.Balance.String() != "70.00" || gb.Balance.String() != "80.00" {
		t.Fatalf("failed transfer mutated balances: %s / %s", ga.Balance, gb.Balance)
	}
}

func TestOpposingTransfersDoNotDeadlock(t *testing.T) {
	s := NewStore(WithLockWait(5 * time.Second))
	ctx := context.Background()
	a, _ := s.Open(ctx, "cust-1", TypeSavings, money.MustFromCents(10000))
	b, _ := s.Open(ctx, "cust-2", TypeSavings, money.MustFromCents(10000))

	amount := money.MustFromCents(100)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _, _ = s.Transfer(ctx, a.ID, b.ID, amount)
		}()
		go func() {
			defer wg.Done()
			_, _, _ = s.Transfer(ctx, b.ID, a.ID, amount)
		}()
	}
	wg.Wait()

	ga, _ := s.Get(ctx, a.ID)
	gb, _ := s.Get(ctx, b.ID)
	total := ga.Balance.Add(gb.Balance)
	if total.String() != "200.00" {
		t.Fatalf("conservation violated: %s", total)
	}
}

func TestBoundedLockWait(t *testing.T) {
	s := NewStore(WithLockWait(50 * time.Millisecond))
	ctx := context.Background()
	acc, _ := s.Open(ctx, "cust-1", TypeSavings, money.MustFromCents(10000))

	// Hold the account lock so the next operation times out.
	e, err := s.lookup(acc.ID)
	if err != nil {
		t.Fatal(err)
	}
	e.sem <- struct{}{}
	defer release(e)

	if _, err := s.Credit(ctx, acc.ID, money.MustFromCents(100)); err != ErrBusy {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	got, _ := s.Get(ctx, acc.ID)
	if got.Balance.String() != "100.00" {
		t.Fatalf("balance changed on busy credit: %s", got.Balance)
	}
}

func TestConcurrentCreditsSerialize(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	acc, _ := s.Open(ctx, "cust-1", TypeSavings, money.Zero())

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Credit(ctx, acc.ID, money.MustFromCents(100))
		}()
	}
	wg.Wait()

	got, _ := s.Get(ctx, acc.ID)
	if got.Balance.String() != "100.00" && got.Balance.Cents() != 10000 {
		t.Fatalf("lost update: %s", got.Balance)
	}
	if got.Balance.Cents() != 10000 {
		t.Fatalf("expected 100.00 after 100 credits of 1.00, got %s", got.Balance)
	}
}
