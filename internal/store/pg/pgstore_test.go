package pg

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"corebank.org/internal/ledger"
	"corebank.org/internal/money"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &Store{db: db}, mock
}

func TestAppend(t *testing.T) {
	s, mock := newMockStore(t)

	tx := &ledger.Transaction{
		ID:              "tx-1",
		Type:            ledger.TxDeposit,
		Amount:          money.MustFromCents(2500),
		OccurredAt:      time.Now().UTC(),
		ToAccountID:     "acc-1",
		ToAccountNumber: "123456789012",
		Description:     "cash deposit",
		ActorID:         "staff-1",
	}

	mock.ExpectExec(`insert into transactions`).
		WithArgs(tx.ID, "deposit", "25.00", tx.OccurredAt,
			"", "", "acc-1", "123456789012", "cash deposit", "staff-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Append(context.Background(), tx); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAppendIdempotent(t *testing.T) {
	s, mock := newMockStore(t)

	tx := &ledger.Transaction{
		ID:         "tx-1",
		Type:       ledger.TxWithdraw,
		Amount:     money.MustFromCents(100),
		OccurredAt: time.Now().UTC(),
	}

	// Conflict on id: zero rows affected, no error surfaced.
	mock.ExpectExec(`insert into transactions`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Append(context.Background(), tx); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRecent(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "tx_type", "amount", "occurred_at",
		"from_account_id", "from_account_number", "to_account_id", "to_account_number",
		"description", "actor_id",
	}).
		AddRow("tx-2", "transfer", "30.00", now, "acc-1", "111111111111", "acc-2", "222222222222", "rent", "cust-1").
		AddRow("tx-1", "deposit", "100.00", now.Add(-time.Minute), "", "", "acc-1", "111111111111", "", "staff-1")

	mock.ExpectQuery(`select .+ from transactions`).
		WithArgs(50).
		WillReturnRows(rows)

	got, err := s.Recent(context.Background(), 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(got))
	}
	if got[0].ID != "tx-2" || got[0].Type != ledger.TxTransfer || got[0].Amount.String() != "30.00" {
		t.Fatalf("unexpected first row: %+v", got[0])
	}
	if got[1].ToAccountID != "acc-1" || got[1].FromAccountID != "" {
		t.Fatalf("unexpected second row: %+v", got[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
