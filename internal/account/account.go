// Package account holds account records and enforces balance invariants.
// Balances only move through Credit, Debit and Transfer, all of which
// serialize per account.
package account

import (
	"errors"
	"strings"
	"time"

	"corebank.org/internal/money"
)

// Type distinguishes the product an account belongs to.
type Type string

const (
	TypeSavings  Type = "savings"
	TypeChecking Type = "checking"
)

// ParseType normalizes and validates an account type string.
func ParseType(s string) (Type, bool) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeSavings:
		return TypeSavings, true
	case TypeChecking:
		return TypeChecking, true
	default:
		return "", false
	}
}

// Status is the account lifecycle state. Closed accounts keep their history
// but accept no further balance movement.
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Account is a customer's balance-bearing record. Number is system-generated
// and immutable; Balance never goes negative.
type Account struct {
	ID         string       `json:"id"`
	CustomerID string       `json:"customer_id"`
	Number     string       `json:"account_number"`
	Type       Type         `json:"account_type"`
	Balance    money.Amount `json:"balance"`
	Status     Status       `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
}

var (
	ErrNotFound          = errors.New("account: not found")
	ErrInsufficientFunds = errors.New("account: insufficient funds")
	ErrClosed            = errors.New("account: account is not active")
	// ErrBusy signals a bounded lock wait expired. The only retryable
	// failure in the taxonomy.
	ErrBusy = errors.New("account: busy, retry later")
)
