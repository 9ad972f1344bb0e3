package identity

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"corebank.org/internal/ids"
)

// Store holds users, customer profiles and the session log with in-process
// concurrency safety.
type Store struct {
	mu             sync.RWMutex
	users          map[string]*User
	byEmail        map[string]string
	customers      map[string]*CustomerProfile // profile id -> profile
	customerByUser map[string]string
	sessions       []*Session
}

// NewStore creates an empty directory.
func NewStore() *Store {
	return &Store{
		users:          make(map[string]*User),
		byEmail:        make(map[string]string),
		customers:      make(map[string]*CustomerProfile),
		customerByUser: make(map[string]string),
	}
}

// CreateUser creates a user record with a hashed credential.
func (s *Store) CreateUser(ctx context.Context, name, email, password string, role Role, active bool, createdByID string) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: name and valid email are required", ErrInvalidInput)
	}
	hash, err := HashPassword(strings.TrimSpace(password))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[email]; taken {
		return nil, ErrEmailTaken
	}
	u := &User{
		ID:           ids.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       active,
		CreatedAt:    time.Now().UTC(),
		CreatedByID:  createdByID,
	}
	s.users[u.ID] = u
	s.byEmail[email] = u.ID
	out := *u
	return &out, nil
}

// RegisterCustomer is the self-service path: the user starts inactive and
// the profile pending until staff approves.
func (s *Store) RegisterCustomer(ctx context.Context, name, email, password, phone, address string) (*User, *CustomerProfile, error) {
	return s.createCustomer(ctx, name, email, password, phone, address, "", ApprovalPending, false)
}

// CreateCustomer is the staff-initiated path: active immediately.
func (s *Store) CreateCustomer(ctx context.Context, name, email, password, phone, address, createdByID string) (*User, *CustomerProfile, error) {
	return s.createCustomer(ctx, name, email, password, phone, address, createdByID, ApprovalApproved, true)
}

func (s *Store) createCustomer(ctx context.Context, name, email, password, phone, address, createdByID string, status ApprovalStatus, active bool) (*User, *CustomerProfile, error) {
	u, err := s.CreateUser(ctx, name, email, password, RoleCustomer, active, createdByID)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := &CustomerProfile{
		ID:        ids.New(),
		UserID:    u.ID,
		Phone:     strings.TrimSpace(phone),
		Address:   strings.TrimSpace(address),
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	s.customers[p.ID] = p
	s.customerByUser[u.ID] = p.ID
	prof := *p
	return u, &prof, nil
}

// Find returns a copy of the user.
func (s *Store) Find(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

// FindByEmail returns a copy of the user registered under email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	out := *s.users[id]
	return &out, nil
}

// Authenticate verifies credentials. It does not check Active: a blocked
// user may log in to see their state but can perform no mutating operation.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := VerifyPassword(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// SetActive flips the active flag and returns the updated record.
func (s *Store) SetActive(ctx context.Context, id string, active bool) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.Active = active
	out := *u
	return &out, nil
}

// CustomerByUser resolves the profile owned by a user.
func (s *Store) CustomerByUser(ctx context.Context, userID string) (*CustomerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pid, ok := s.customerByUser[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *s.customers[pid]
	return &out, nil
}

// CustomerByID resolves a profile by its own id.
func (s *Store) CustomerByID(ctx context.Context, profileID string) (*CustomerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.customers[profileID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

// TransitionApproval moves a pending profile to approved or rejected and
// adjusts the linked user's active flag in the same critical section.
// Any transition from a non-pending state fails ErrInvalidState.
func (s *Store) TransitionApproval(ctx context.Context, userID string, to ApprovalStatus) (*CustomerProfile, error) {
	if to != ApprovalApproved && to != ApprovalRejected {
		return nil, fmt.Errorf("%w: cannot transition to %s", ErrInvalidInput, to)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pid, ok := s.customerByUser[userID]
	if !ok {
		return nil, ErrNotFound
	}
	p := s.customers[pid]
	if p.Status != ApprovalPending {
		return nil, ErrInvalidState
	}
	p.Status = to
	s.users[userID].Active = to == ApprovalApproved
	out := *p
	return &out, nil
}

// ListUsers returns all users ordered by creation id.
func (s *Store) ListUsers(ctx context.Context) []*User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListCustomers returns non-rejected customer profiles. Rejected profiles
// stay on record for audit but drop out of listings.
func (s *Store) ListCustomers(ctx context.Context) []*CustomerProfile {
	return s.listCustomers(func(p *CustomerProfile) bool { return p.Status != ApprovalRejected })
}

// ListPendingCustomers returns profiles awaiting an approval decision.
func (s *Store) ListPendingCustomers(ctx context.Context) []*CustomerProfile {
	return s.listCustomers(func(p *CustomerProfile) bool { return p.Status == ApprovalPending })
}

func (s *Store) listCustomers(keep func(*CustomerProfile) bool) []*CustomerProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*CustomerProfile
	for _, p := range s.customers {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RecordLogin appends a session to the log.
func (s *Store) RecordLogin(ctx context.Context, userID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return nil, ErrNotFound
	}
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		LoginTime: time.Now().UTC(),
	}
	s.sessions = append(s.sessions, sess)
	out := *sess
	return &out, nil
}

// RecordLogout closes the most recent open session for the user, if any.
func (s *Store) RecordLogout(ctx context.Context, userID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.sessions) - 1; i >= 0; i-- {
		sess := s.sessions[i]
		if sess.UserID != userID || sess.LogoutTime != nil {
			continue
		}
		now := time.Now().UTC()
		sess.LogoutTime = &now
		sess.DurationSeconds = now.Sub(sess.LoginTime).Seconds()
		out := *sess
		return &out, nil
	}
	return nil, ErrNotFound
}

// RecentSessions returns the newest sessions first, joined with user names.
func (s *Store) RecentSessions(ctx context.Context, limit int) []SessionSummary {
	if limit <= 0 {
		limit = 10
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SessionSummary, 0, limit)
	for i := len(s.sessions) - 1; i >= 0 && len(out) < limit; i-- {
		sess := *s.sessions[i]
		name := ""
		if u, ok := s.users[sess.UserID]; ok {
			name = u.Name
		}
		out = append(out, SessionSummary{Session: sess, UserName: name})
	}
	return out
}

// Counts reports user totals for the dashboard.
func (s *Store) Counts(ctx context.Context) (users, customers, staff int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users = len(s.users)
	for _, u := range s.users {
		switch u.Role {
		case RoleCustomer:
			customers++
		case RoleStaff:
			staff++
		}
	}
	return users, customers, staff
}
