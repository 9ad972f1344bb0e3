package account

import (
	"context"
	mathrand "math/rand"
	"sort"
	"sync"
	"time"

	"corebank.org/internal/ids"
	"corebank.org/internal/money"
)

const defaultLockWait = 2 * time.Second

// Store keeps accounts in memory with per-account mutual exclusion.
// Operations on disjoint accounts proceed in parallel; operations on the
// same account serialize. Lock acquisition is bounded: waiting longer than
// the configured window fails ErrBusy instead of deadlocking.
type Store struct {
	mu       sync.RWMutex
	accts    map[string]*entry
	byNumber map[string]string
	lockWait time.Duration
	rnd      *mathrand.Rand
	rndMu    sync.Mutex
}

// entry pairs the record with its operation semaphore. Field access takes
// recMu; balance-changing operations additionally hold sem for their full
// duration so two-step transfers stay atomic.
type entry struct {
	recMu sync.RWMutex
	rec   Account
	sem   chan struct{}
}

// Option configures the store.
type Option func(*Store)

// WithLockWait overrides the bounded lock wait.
func WithLockWait(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockWait = d
		}
	}
}

// NewStore creates an empty account store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		accts:    make(map[string]*entry),
		byNumber: make(map[string]string),
		lockWait: defaultLockWait,
		rnd:      mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates an account with a fresh unique 12-digit number. The initial
// balance may be zero; recording the matching opening deposit Transaction is
// the caller's job.
func (s *Store) Open(ctx context.Context, customerID string, typ Type, initial money.Amount) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	number := s.generateNumber()
	for _, taken := s.byNumber[number]; taken; _, taken = s.byNumber[number] {
		number = s.generateNumber()
	}

	e := &entry{
		rec: Account{
			ID:         ids.New(),
			CustomerID: customerID,
			Number:     number,
			Type:       typ,
			Balance:    initial,
			Status:     StatusActive,
			CreatedAt:  time.Now().UTC(),
		},
		sem: make(chan struct{}, 1),
	}
	s.accts[e.rec.ID] = e
	s.byNumber[number] = e.rec.ID
	out := e.rec
	return &out, nil
}

// Get returns a copy of the account.
func (s *Store) Get(ctx context.Context, id string) (*Account, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	e.recMu.RLock()
	defer e.recMu.RUnlock()
	out := e.rec
	return &out, nil
}

// GetByNumber resolves an account by its public number.
func (s *Store) GetByNumber(ctx context.Context, number string) (*Account, error) {
	s.mu.RLock()
	id, ok := s.byNumber[number]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// ListByCustomer returns the customer's accounts ordered by id.
func (s *Store) ListByCustomer(ctx context.Context, customerID string) []*Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Account
	for _, e := range s.accts {
		e.recMu.RLock()
		if e.rec.CustomerID == customerID {
			cp := e.rec
			out = append(out, &cp)
		}
		e.recMu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Snapshot copies every account for aggregation. The copy is consistent per
// account, not across accounts, which is all the dashboard needs.
func (s *Store) Snapshot(ctx context.Context) []*Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Account, 0, len(s.accts))
	for _, e := range s.accts {
		e.recMu.RLock()
		cp := e.rec
		e.recMu.RUnlock()
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Credit adds amount to the account balance.
func (s *Store) Credit(ctx context.Context, id string, amount money.Amount) (*Account, error) {
	if !amount.IsPositive() {
		return nil, money.ErrInvalidAmount
	}
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := s.acquire(ctx, e); err != nil {
		return nil, err
	}
	defer release(e)
	return e.credit(amount)
}

// Debit subtracts amount from the account balance, never below zero.
func (s *Store) Debit(ctx context.Context, id string, amount money.Amount) (*Account, error) {
	if !amount.IsPositive() {
		return nil, money.ErrInvalidAmount
	}
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := s.acquire(ctx, e); err != nil {
		return nil, err
	}
	defer release(e)
	return e.debit(amount)
}

// Transfer moves amount between two accounts as a single atomic unit:
// either both the debit and the credit apply, or neither does. Locks are
// taken in ascending account-id order so opposing transfers cannot deadlock.
func (s *Store) Transfer(ctx context.Context, fromID, toID string, amount money.Amount) (from, to *Account, err error) {
	if !amount.IsPositive() {
		return nil, nil, money.ErrInvalidAmount
	}
	fromE, err := s.lookup(fromID)
	if err != nil {
		return nil, nil, err
	}
	toE, err := s.lookup(toID)
	if err != nil {
		return nil, nil, err
	}

	first, second := fromE, toE
	if toID < fromID {
		first, second = toE, fromE
	}
	if err := s.acquire(ctx, first); err != nil {
		return nil, nil, err
	}
	defer release(first)
	if err := s.acquire(ctx, second); err != nil {
		return nil, nil, err
	}
	defer release(second)

	// Validate both sides before touching either balance.
	if err := fromE.ensureActive(); err != nil {
		return nil, nil, err
	}
	if err := toE.ensureActive(); err != nil {
		return nil, nil, err
	}
	from, err = fromE.debit(amount)
	if err != nil {
		return nil, nil, err
	}
	to, err = toE.credit(amount)
	if err != nil {
		// Unreachable: credit on an active account cannot fail after the
		// checks above. Kept so a future invariant change cannot corrupt
		// the pair silently.
		return nil, nil, err
	}
	return from, to, nil
}

func (s *Store) lookup(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.accts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

func (s *Store) acquire(ctx context.Context, e *entry) error {
	timer := time.NewTimer(s.lockWait)
	defer timer.Stop()
	select {
	case e.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrBusy
	case <-ctx.Done():
		return ctx.Err()
	}
}

func release(e *entry) { <-e.sem }

func (e *entry) ensureActive() error {
	e.recMu.RLock()
	defer e.recMu.RUnlock()
	if e.rec.Status != StatusActive {
		return ErrClosed
	}
	return nil
}

func (e *entry) credit(amount money.Amount) (*Account, error) {
	e.recMu.Lock()
	defer e.recMu.Unlock()
	if e.rec.Status != StatusActive {
		return nil, ErrClosed
	}
	e.rec.Balance = e.rec.Balance.Add(amount)
	out := e.rec
	return &out, nil
}

func (e *entry) debit(amount money.Amount) (*Account, error) {
	e.recMu.Lock()
	defer e.recMu.Unlock()
	if e.rec.Status != StatusActive {
		return nil, ErrClosed
	}
	if e.rec.Balance.Less(amount) {
		return nil, ErrInsufficientFunds
	}
	e.rec.Balance = e.rec.Balance.Sub(amount)
	out := e.rec
	return &out, nil
}

func (s *Store) generateNumber() string {
	const digits = "0123456789"
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	b := make([]byte, 12)
	for i := range b {
		b[i] = digits[s.rnd.Intn(len(digits))]
	}
	return string(b)
}
