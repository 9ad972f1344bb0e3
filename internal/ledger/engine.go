package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"corebank.org/internal/access"
	"corebank.org/internal/account"
	"corebank.org/internal/audit"
	"corebank.org/internal/identity"
	"corebank.org/internal/ids"
	"corebank.org/internal/money"
	"corebank.org/internal/obs"
)

// Archiver durably records committed transactions. Archive failures are
// logged, never surfaced: the in-process record is authoritative.
type Archiver interface {
	Append(ctx context.Context, tx *Transaction) error
}

// Publisher fans a committed transaction out to live subscribers. Must not
// block.
type Publisher interface {
	Publish(v any)
}

// Directory is the slice of the identity store the engine needs to resolve
// account ownership.
type Directory interface {
	CustomerByUser(ctx context.Context, userID string) (*identity.CustomerProfile, error)
	CustomerByID(ctx context.Context, profileID string) (*identity.CustomerProfile, error)
}

// Engine executes ledger operations against the account store and keeps the
// append-only transaction log.
type Engine struct {
	accounts *account.Store
	dir      Directory
	control  *access.Control

	archiver Archiver
	feed     Publisher

	mu  sync.RWMutex
	log []*Transaction
}

// EngineOption configures optional engine collaborators.
type EngineOption func(*Engine)

// WithArchiver attaches a durable transaction archive.
func WithArchiver(a Archiver) EngineOption {
	return func(e *Engine) { e.archiver = a }
}

// WithFeed attaches a live transaction feed.
func WithFeed(p Publisher) EngineOption {
	return func(e *Engine) { e.feed = p }
}

// NewEngine wires the engine over its collaborators.
func NewEngine(accounts *account.Store, dir Directory, control *access.Control, opts ...EngineOption) *Engine {
	e := &Engine{
		accounts: accounts,
		dir:      dir,
		control:  control,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OpenAccount creates an account for an approved customer profile. A positive
// initial balance is recorded as an opening deposit transaction.
func (e *Engine) OpenAccount(ctx context.Context, actor *identity.User, customerProfileID string, typ account.Type, initial money.Amount) (*account.Account, error) {
	if err := e.control.Authorize(actor, access.OpOpenAccount); err != nil {
		return nil, err
	}
	profile, err := e.dir.CustomerByID(ctx, customerProfileID)
	if err != nil {
		return nil, err
	}
	if profile.Status != identity.ApprovalApproved {
		return nil, fmt.Errorf("%w: customer %s is %s", identity.ErrInvalidState, profile.ID, profile.Status)
	}

	acc, err := e.accounts.Open(ctx, profile.ID, typ, initial)
	if err != nil {
		return nil, err
	}
	if initial.IsPositive() {
		e.append(ctx, &Transaction{
			ID:              ids.New(),
			Type:            TxDeposit,
			Amount:          initial,
			OccurredAt:      acc.CreatedAt,
			ToAccountID:     acc.ID,
			ToAccountNumber: acc.Number,
			Description:     "opening deposit",
			ActorID:         actor.ID,
		})
	}
	audit.LogEvent(ctx, "account.open", map[string]any{
		"account_id":  acc.ID,
		"customer_id": profile.ID,
		"type":        string(acc.Type),
		"initial":     initial.String(),
	})
	return acc, nil
}

// Deposit credits an account and records one deposit transaction.
func (e *Engine) Deposit(ctx context.Context, actor *identity.User, accountID string, amount money.Amount, desc string) (tx *Transaction, err error) {
	defer func() { obs.ObserveLedgerOp("deposit", err) }()

	if err = e.control.Authorize(actor, access.OpDeposit); err != nil {
		return nil, err
	}
	acc, err := e.accounts.Credit(ctx, accountID, amount)
	if err != nil {
		return nil, err
	}
	tx = &Transaction{
		ID:              ids.New(),
		Type:            TxDeposit,
		Amount:          amount,
		OccurredAt:      time.Now().UTC(),
		ToAccountID:     acc.ID,
		ToAccountNumber: acc.Number,
		Description:     desc,
		ActorID:         actor.ID,
	}
	e.append(ctx, tx)
	audit.LogEvent(ctx, "ledger.deposit", map[string]any{
		"transaction_id": tx.ID,
		"account_id":     acc.ID,
		"amount":         amount.String(),
	})
	return tx, nil
}

// Withdraw debits an account and records one withdraw transaction.
func (e *Engine) Withdraw(ctx context.Context, actor *identity.User, accountID string, amount money.Amount, desc string) (tx *Transaction, err error) {
	defer func() { obs.ObserveLedgerOp("withdraw", err) }()

	if err = e.control.Authorize(actor, access.OpWithdraw); err != nil {
		return nil, err
	}
	acc, err := e.accounts.Debit(ctx, accountID, amount)
	if err != nil {
		return nil, err
	}
	tx = &Transaction{
		ID:                ids.New(),
		Type:              TxWithdraw,
		Amount:            amount,
		OccurredAt:        time.Now().UTC(),
		FromAccountID:     acc.ID,
		FromAccountNumber: acc.Number,
		Description:       desc,
		ActorID:           actor.ID,
	}
	e.append(ctx, tx)
	audit.LogEvent(ctx, "ledger.withdraw", map[string]any{
		"transaction_id": tx.ID,
		"account_id":     acc.ID,
		"amount":         amount.String(),
	})
	return tx, nil
}

// Transfer moves funds from an account the actor owns to the account with
// the given number. Either both sides move or neither does; success appends
// exactly one transfer transaction.
func (e *Engine) Transfer(ctx context.Context, actor *identity.User, fromAccountID, toAccountNumber string, amount money.Amount, desc string) (tx *Transaction, err error) {
	defer func() { obs.ObserveLedgerOp("transfer", err) }()

	if err = e.control.Authorize(actor, access.OpTransfer); err != nil {
		return nil, err
	}
	from, err := e.ownedAccount(ctx, actor, fromAccountID, ErrInvalidTransfer)
	if err != nil {
		return nil, err
	}
	dest, err := e.accounts.GetByNumber(ctx, toAccountNumber)
	if err != nil {
		return nil, err
	}
	if dest.ID == from.ID {
		return nil, fmt.Errorf("%w: source and destination are the same account", ErrInvalidTransfer)
	}

	fromAcc, toAcc, err := e.accounts.Transfer(ctx, from.ID, dest.ID, amount)
	if err != nil {
		if err == account.ErrClosed {
			return nil, fmt.Errorf("%w: account is not active", ErrInvalidTransfer)
		}
		return nil, err
	}
	tx = &Transaction{
		ID:                ids.New(),
		Type:              TxTransfer,
		Amount:            amount,
		OccurredAt:        time.Now().UTC(),
		FromAccountID:     fromAcc.ID,
		FromAccountNumber: fromAcc.Number,
		ToAccountID:       toAcc.ID,
		ToAccountNumber:   toAcc.Number,
		Description:       desc,
		ActorID:           actor.ID,
	}
	e.append(ctx, tx)
	audit.LogEvent(ctx, "ledger.transfer", map[string]any{
		"transaction_id": tx.ID,
		"from":           fromAcc.ID,
		"to":             toAcc.ID,
		"amount":         amount.String(),
	})
	return tx, nil
}

// ListTransactions returns transactions newest first. Customers see only
// movements touching their own accounts; staff and admin see everything.
func (e *Engine) ListTransactions(ctx context.Context, actor *identity.User, limit int) ([]Transaction, error) {
	if err := e.control.Authorize(actor, access.OpViewTransactions); err != nil {
		return nil, err
	}
	var owned map[string]bool
	if actor.Role == identity.RoleCustomer {
		var err error
		owned, err = e.ownedAccountIDs(ctx, actor)
		if err != nil {
			return nil, err
		}
	}
	return e.recent(limit, func(tx *Transaction) bool {
		if owned == nil {
			return true
		}
		return owned[tx.FromAccountID] || owned[tx.ToAccountID]
	}), nil
}

// Statement builds the statement data for one of the actor's accounts.
func (e *Engine) Statement(ctx context.Context, actor *identity.User, accountID string) (*Statement, error) {
	if err := e.control.Authorize(actor, access.OpStatement); err != nil {
		return nil, err
	}
	acc, err := e.ownedAccount(ctx, actor, accountID, access.ErrForbidden)
	if err != nil {
		return nil, err
	}
	txs := e.recent(0, func(tx *Transaction) bool {
		return tx.FromAccountID == acc.ID || tx.ToAccountID == acc.ID
	})
	return &Statement{
		AccountID:     acc.ID,
		AccountNumber: acc.Number,
		AccountType:   string(acc.Type),
		Balance:       acc.Balance,
		GeneratedAt:   time.Now().UTC(),
		Transactions:  txs,
	}, nil
}

// AccountsFor lists the actor's own accounts.
func (e *Engine) AccountsFor(ctx context.Context, actor *identity.User) ([]*account.Account, error) {
	if err := e.control.Authorize(actor, access.OpViewOwnAccounts); err != nil {
		return nil, err
	}
	profile, err := e.dir.CustomerByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return e.accounts.ListByCustomer(ctx, profile.ID), nil
}

// AccountsForCustomer lists a customer's accounts for staff.
func (e *Engine) AccountsForCustomer(ctx context.Context, actor *identity.User, customerProfileID string) ([]*account.Account, error) {
	if err := e.control.Authorize(actor, access.OpViewAccounts); err != nil {
		return nil, err
	}
	if _, err := e.dir.CustomerByID(ctx, customerProfileID); err != nil {
		return nil, err
	}
	return e.accounts.ListByCustomer(ctx, customerProfileID), nil
}

// Count returns the number of committed transactions.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.log)
}

// Recent returns the newest transactions without authorization; reporting
// callers gate access themselves.
func (e *Engine) Recent(limit int) []Transaction {
	return e.recent(limit, func(*Transaction) bool { return true })
}

func (e *Engine) recent(limit int, keep func(*Transaction) bool) []Transaction {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := []Transaction{}
	for i := len(e.log) - 1; i >= 0; i-- {
		if !keep(e.log[i]) {
			continue
		}
		out = append(out, *e.log[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func (e *Engine) append(ctx context.Context, tx *Transaction) {
	e.mu.Lock()
	e.log = append(e.log, tx)
	e.mu.Unlock()

	if e.archiver != nil {
		if err := e.archiver.Append(ctx, tx); err != nil {
			obs.Logger().Warn().Err(err).Str("transaction_id", tx.ID).Msg("transaction archive append failed")
		}
	}
	if e.feed != nil {
		e.feed.Publish(tx)
	}
}

// ownedAccount resolves an account and verifies the actor's customer profile
// owns it, failing with the caller's mismatch sentinel otherwise.
func (e *Engine) ownedAccount(ctx context.Context, actor *identity.User, accountID string, mismatch error) (*account.Account, error) {
	acc, err := e.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	profile, err := e.dir.CustomerByUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: actor has no customer profile", mismatch)
	}
	if acc.CustomerID != profile.ID {
		return nil, fmt.Errorf("%w: account %s is not owned by the actor", mismatch, accountID)
	}
	return acc, nil
}

func (e *Engine) ownedAccountIDs(ctx context.Context, actor *identity.User) (map[string]bool, error) {
	profile, err := e.dir.CustomerByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	owned := make(map[string]bool)
	for _, acc := range e.accounts.ListByCustomer(ctx, profile.ID) {
		owned[acc.ID] = true
	}
	return owned, nil
}
