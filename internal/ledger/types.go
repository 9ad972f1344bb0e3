// Package ledger executes deposits, withdrawals and transfers and keeps the
// append-only transaction record. Committed transactions never change and are
// never rolled back.
package ledger

import (
	"errors"
	"time"

	"corebank.org/internal/money"
)

// TxType classifies a transaction.
type TxType string

const (
	TxDeposit  TxType = "deposit"
	TxWithdraw TxType = "withdraw"
	TxTransfer TxType = "transfer"
)

// Transaction is one committed ledger movement. All fields are immutable once
// the record is appended.
type Transaction struct {
	ID                string       `json:"id"`
	Type              TxType       `json:"type"`
	Amount            money.Amount `json:"amount"`
	OccurredAt        time.Time    `json:"occurred_at"`
	FromAccountID     string       `json:"from_account_id,omitempty"`
	FromAccountNumber string       `json:"from_account_number,omitempty"`
	ToAccountID       string       `json:"to_account_id,omitempty"`
	ToAccountNumber   string       `json:"to_account_number,omitempty"`
	Description       string       `json:"description,omitempty"`
	ActorID           string       `json:"actor_id,omitempty"`
}

// Statement is an account snapshot joined with the transactions that touch
// it, newest first. Rendering is the caller's concern.
type Statement struct {
	AccountID     string        `json:"account_id"`
	AccountNumber string        `json:"account_number"`
	AccountType   string        `json:"account_type"`
	Balance       money.Amount  `json:"balance"`
	GeneratedAt   time.Time     `json:"generated_at"`
	Transactions  []Transaction `json:"transactions"`
}

var (
	// ErrInvalidTransfer covers structurally bad transfers: same account on
	// both sides, a source the actor does not own, or a closed endpoint.
	ErrInvalidTransfer = errors.New("ledger: invalid transfer")
)
